package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBenefitNotFound    = errors.New("benefit not found")
	ErrInvalidListOptions = errors.New("invalid list options")
)

// Benefit is a reward users can redeem with points.
type Benefit struct {
	ID       int64  `json:"id" bson:"_id"`
	Name     string `json:"nome" bson:"nome"`
	Address  string `json:"endereco" bson:"endereco"`
	Points   int    `json:"pontos" bson:"pontos"`
	Date     string `json:"data" bson:"data"`
	Quantity int    `json:"quantidade" bson:"quantidade"`
}

const (
	DefaultListLimit = 10
	DefaultOrder     = "id"
)

// sortableColumns lists the columns a listing may be ordered by.
var sortableColumns = map[string]struct{}{
	"id":         {},
	"nome":       {},
	"endereco":   {},
	"pontos":     {},
	"data":       {},
	"quantidade": {},
}

// ListOptions carries pagination and ordering for benefit listings.
type ListOptions struct {
	Limit int
	Skip  int
	Order string
}

// Validate checks bounds and that Order names a sortable column.
func (o ListOptions) Validate() error {
	if o.Limit < 0 || o.Skip < 0 {
		return fmt.Errorf("%w: limit and skip must not be negative", ErrInvalidListOptions)
	}
	if _, ok := sortableColumns[o.Order]; !ok {
		return fmt.Errorf("%w: cannot order by %q", ErrInvalidListOptions, o.Order)
	}
	return nil
}

// PointsRange bounds the /gt listing; both ends are exclusive.
type PointsRange struct {
	Min int
	Max int
}

var DefaultPointsRange = PointsRange{Min: 200, Max: 1000}
