package handler

import (
	"strings"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

// errorResponse is the single-message error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

type msgResponse struct {
	Msg string `json:"msg"`
}

type benefitRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"       validate:"required,min=5,max=200,notnumeric"`
	Address  string `json:"endereco"   validate:"required,min=5,max=500,notblank"`
	Points   *int   `json:"pontos"     validate:"required,min=0"`
	Date     string `json:"data"       validate:"isodate,futuredate"`
	Quantity *int   `json:"quantidade" validate:"required,min=0"`
}

func (r *benefitRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *benefitRequest) messages() messageTable {
	return messageTable{
		"nome.required":       "É obrigatório informar o nome do benefício",
		"nome.min":            "O nome é muito curto. Mínimo de 5",
		"nome.max":            "O nome é muito longo. Máximo de 200",
		"nome.notnumeric":     "O nome não pode conter apenas números",
		"endereco.required":   "O endereço é obrigatório",
		"endereco.min":        "O endereço é muito curto. Mínimo de 5",
		"endereco.max":        "O endereço é muito longo. Máximo de 500",
		"endereco.notblank":   "O endereço não pode conter apenas espaços em branco",
		"pontos.required":     "Os pontos devem ser um número",
		"pontos.type":         "Os pontos devem ser um número",
		"pontos.min":          "Os pontos não podem ser negativos",
		"data.isodate":        "O formato de data é inválido. Informe yyyy-mm-dd",
		"data.futuredate":     "A data deve ser maior do que o dia de hoje",
		"quantidade.required": "A quantidade deve ser um número",
		"quantidade.type":     "A quantidade deve ser um número",
		"quantidade.min":      "A quantidade não pode ser negativa",
	}
}

func (r *benefitRequest) toDomain() *domain.Benefit {
	return &domain.Benefit{
		ID:       r.ID,
		Name:     r.Name,
		Address:  r.Address,
		Points:   *r.Points,
		Date:     r.Date,
		Quantity: *r.Quantity,
	}
}

type redeemBenefitRequest struct {
	ID       int64 `json:"id"`
	Quantity *int  `json:"quantidade" validate:"required,min=0"`
}

func (r *redeemBenefitRequest) messages() messageTable {
	return messageTable{
		"quantidade.required": "A quantidade não pode ser negativa",
		"quantidade.type":     "A quantidade não pode ser negativa",
		"quantidade.min":      "A quantidade não pode ser negativa",
	}
}

type createBenefitResponse struct {
	InsertID int64  `json:"insertId"`
	Name     string `json:"nome"`
	Address  string `json:"endereco"`
	Points   int    `json:"pontos"`
	Date     string `json:"data"`
	Quantity int    `json:"quantidade"`
}

type affectedRowsResponse struct {
	AffectedRows int64 `json:"affectedRows"`
}

type listFailureResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
