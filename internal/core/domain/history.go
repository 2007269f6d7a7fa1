package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"
)

const (
	HistoryKindPoints      = "ponto"
	HistoryKindTransaction = "transacao"

	// DuplicateCouponCode is the machine-readable code sent when a coupon is reused.
	DuplicateCouponCode = "DUPLICATE_COUPON"

	dateLayout        = "2006-01-02"
	historyDateLayout = "02/01/2006, 15:04:05"
)

var ErrDuplicateCoupon = errors.New("coupon already redeemed")

// Location is the wall clock history timestamps are recorded and displayed in.
var Location = mustLoadLocation("America/Sao_Paulo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("domain: load location %s: %v", name, err))
	}
	return loc
}

// PointsEntry records points credited by redeeming a coupon. ID is the coupon code.
type PointsEntry struct {
	ID     string    `json:"id" bson:"_id"`
	UserID int64     `json:"idUsuario" bson:"idUsuario"`
	Points int       `json:"pontos" bson:"pontos"`
	Date   time.Time `json:"data" bson:"data"`
}

// Transaction records points spent on a benefit.
type Transaction struct {
	ID          int64     `json:"id" bson:"_id"`
	UserID      int64     `json:"idUsuario" bson:"idUsuario"`
	BenefitID   int64     `json:"idBeneficio" bson:"idBeneficio"`
	Description string    `json:"descricao" bson:"descricao"`
	Points      int       `json:"pontos" bson:"pontos"`
	Date        time.Time `json:"data" bson:"data"`
}

// HistoryItem is the merged view over points entries and transactions.
type HistoryItem struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"idUsuario"`
	Description *string   `json:"descricao,omitempty"`
	Points      int       `json:"pontos"`
	Date        time.Time `json:"-"`
	DisplayDate string    `json:"data"`
	Kind        string    `json:"tipo"`
}

// MergeHistory concatenates both histories, newest first, with display dates filled in.
func MergeHistory(points, transactions []HistoryItem) []HistoryItem {
	out := make([]HistoryItem, 0, len(points)+len(transactions))
	out = append(out, points...)
	out = append(out, transactions...)
	for i := range out {
		out[i].DisplayDate = out[i].Date.In(Location).Format(historyDateLayout)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// GroupHistoryByUser buckets a merged history by user, keeping order inside each bucket.
func GroupHistoryByUser(items []HistoryItem) map[int64][]HistoryItem {
	out := make(map[int64][]HistoryItem)
	for _, it := range items {
		out[it.UserID] = append(out[it.UserID], it)
	}
	return out
}

// DateRange is an inclusive time window.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange turns optional yyyy-mm-dd bounds into a window covering whole days.
// Missing bounds default to 1970-01-01 00:00:00 and 2999-12-31 23:59:59.
func ParseDateRange(start, end string) (DateRange, error) {
	if start == "" {
		start = "1970-01-01"
	}
	if end == "" {
		end = "2999-12-31"
	}
	from, err := time.ParseInLocation(dateLayout, start, Location)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q", start)
	}
	to, err := time.ParseInLocation(dateLayout, end, Location)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q", end)
	}
	to = to.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return DateRange{From: from, To: to}, nil
}

// Now returns the current instant on the history wall clock.
func Now() time.Time {
	return time.Now().In(Location)
}
