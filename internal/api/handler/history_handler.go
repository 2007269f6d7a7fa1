package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecosrev/ecosrev-api/internal/api/metrics"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const (
	msgMissingFields      = "Campos obrigatórios ausentes."
	msgHistoryFetchFailed = "Erro ao buscar histórico."
	msgCouponTooLong      = "O cupom deve ter no máximo 100 caracteres."
)

// couponCode accepts the coupon either as a JSON string or a number.
type couponCode string

func (c *couponCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = couponCode(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = couponCode(n.String())
	return nil
}

type pointsEntryRequest struct {
	ID     couponCode `json:"id" validate:"max=100"`
	UserID int64      `json:"idUsuario"`
	Points int        `json:"pontos"`
}

type transactionRequest struct {
	UserID      int64  `json:"idUsuario"`
	BenefitID   int64  `json:"idBeneficio"`
	Description string `json:"descricao"`
	Points      int    `json:"pontos"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type detailedErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type duplicateCouponResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HistoryHandler struct {
	service ports.HistoryService
}

func NewHistoryHandler(service ports.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// RedeemCoupon credits the points of a coupon to a user. Each coupon is accepted once.
//
// @Summary      Redeem a coupon
// @Tags         hist
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      pointsEntryRequest  true  "Coupon, user and points"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  duplicateCouponResponse
// @Failure      500   {object}  detailedErrorResponse
// @Router       /api/hist/pontos [post]
func (h *HistoryHandler) RedeemCoupon(c echo.Context) error {
	var req pointsEntryRequest
	if err := c.Bind(&req); err != nil || req.ID == "" || req.UserID == 0 || req.Points == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingFields})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msgCouponTooLong})
	}

	err := h.service.RedeemCoupon(c.Request().Context(), domain.PointsEntry{
		ID:     string(req.ID),
		UserID: req.UserID,
		Points: req.Points,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateCoupon) {
			metrics.DuplicateCouponsTotal.Inc()
			return c.JSON(http.StatusBadRequest, duplicateCouponResponse{
				Error: "Este cupom já foi resgatado anteriormente.",
				Code:  domain.DuplicateCouponCode,
			})
		}
		return c.JSON(http.StatusInternalServerError, detailedErrorResponse{
			Error:   "Erro ao registrar histórico de pontos.",
			Details: err.Error(),
		})
	}
	metrics.CouponsRedeemedTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Histórico de pontos registrado com sucesso."})
}

// RecordTransaction stores points spent on a benefit.
//
// @Summary      Record a transaction
// @Tags         hist
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      transactionRequest  true  "Transaction"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  detailedErrorResponse
// @Router       /api/hist/transacoes [post]
func (h *HistoryHandler) RecordTransaction(c echo.Context) error {
	var req transactionRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 || req.BenefitID == 0 ||
		strings.TrimSpace(req.Description) == "" || req.Points == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingFields})
	}

	err := h.service.RecordTransaction(c.Request().Context(), domain.Transaction{
		UserID:      req.UserID,
		BenefitID:   req.BenefitID,
		Description: req.Description,
		Points:      req.Points,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, detailedErrorResponse{
			Error:   "Erro ao registrar transação.",
			Details: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Histórico de transação registrado com sucesso."})
}

// UserHistory returns one user's points and transactions, newest first.
//
// @Summary      History of a user
// @Tags         hist
// @Produce      json
// @Security     AccessToken
// @Param        idUsuario  path      int     true   "User id"
// @Param        start      query     string  false  "yyyy-mm-dd"
// @Param        end        query     string  false  "yyyy-mm-dd"
// @Success      200        {array}   domain.HistoryItem
// @Failure      400        {object}  detailedErrorResponse
// @Failure      500        {object}  detailedErrorResponse
// @Router       /api/hist/{idUsuario} [get]
func (h *HistoryHandler) UserHistory(c echo.Context) error {
	userID, ok := pathID(c, "idUsuario")
	if !ok {
		return c.JSON(http.StatusBadRequest, detailedErrorResponse{Error: msgHistoryFetchFailed, Details: "invalid idUsuario"})
	}
	r, err := domain.ParseDateRange(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, detailedErrorResponse{Error: msgHistoryFetchFailed, Details: err.Error()})
	}

	items, err := h.service.UserHistory(c.Request().Context(), userID, r)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, detailedErrorResponse{Error: msgHistoryFetchFailed, Details: err.Error()})
	}
	return c.JSON(http.StatusOK, items)
}

// AllHistory returns every user's history grouped by user id.
//
// @Summary      History of all users
// @Tags         hist
// @Produce      json
// @Security     AccessToken
// @Param        start  query     string  false  "yyyy-mm-dd"
// @Param        end    query     string  false  "yyyy-mm-dd"
// @Success      200    {object}  map[string][]domain.HistoryItem
// @Failure      400    {object}  detailedErrorResponse
// @Failure      500    {object}  detailedErrorResponse
// @Router       /api/hist [get]
func (h *HistoryHandler) AllHistory(c echo.Context) error {
	r, err := domain.ParseDateRange(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, detailedErrorResponse{Error: msgHistoryFetchFailed, Details: err.Error()})
	}

	grouped, err := h.service.AllHistory(c.Request().Context(), r)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, detailedErrorResponse{Error: msgHistoryFetchFailed, Details: err.Error()})
	}
	return c.JSON(http.StatusOK, grouped)
}
