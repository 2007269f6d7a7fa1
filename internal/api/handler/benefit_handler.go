package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecosrev/ecosrev-api/internal/api/metrics"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const msgBenefitListFailed = "Erro ao obter a listagem dos benefícios"

type BenefitHandler struct {
	service ports.BenefitService
}

func NewBenefitHandler(service ports.BenefitService) *BenefitHandler {
	return &BenefitHandler{service: service}
}

// listOptions reads limit, skip and order. A zero limit means the default.
// ok is false when any is malformed.
func listOptions(c echo.Context) (domain.ListOptions, bool) {
	limit, ok1 := queryInt(c, "limit", domain.DefaultListLimit)
	if limit == 0 {
		limit = domain.DefaultListLimit
	}
	skip, ok2 := queryInt(c, "skip", 0)
	order := c.QueryParam("order")
	if order == "" {
		order = domain.DefaultOrder
	}
	opts := domain.ListOptions{Limit: limit, Skip: skip, Order: order}
	if !ok1 || !ok2 || opts.Validate() != nil {
		return opts, false
	}
	return opts, true
}

func badListParams(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorsBody{Errors: ValidationErrors{{
		Msg:      "Parâmetros de listagem inválidos",
		Param:    "limit|skip|order",
		Location: "query",
	}}})
}

// List returns a page of benefits.
//
// @Summary      List benefits
// @Tags         beneficio
// @Produce      json
// @Security     AccessToken
// @Param        limit  query     int     false  "Page size"  default(10)
// @Param        skip   query     int     false  "Offset"     default(0)
// @Param        order  query     string  false  "Sort column" default(id)
// @Success      200    {array}   domain.Benefit
// @Failure      400    {object}  errorsBody
// @Failure      500    {object}  listFailureResponse
// @Router       /api/beneficio [get]
func (h *BenefitHandler) List(c echo.Context) error {
	opts, ok := listOptions(c)
	if !ok {
		return badListParams(c)
	}
	docs, err := h.service.List(c.Request().Context(), opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, listFailureResponse{Message: msgBenefitListFailed, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, docs)
}

// ListInRange returns benefits worth more than min and less than max points.
//
// @Summary      List benefits within a points range
// @Tags         beneficio
// @Produce      json
// @Security     AccessToken
// @Param        min    query     int     false  "Exclusive lower bound"  default(200)
// @Param        max    query     int     false  "Exclusive upper bound"  default(1000)
// @Param        limit  query     int     false  "Page size"  default(10)
// @Param        skip   query     int     false  "Offset"     default(0)
// @Param        order  query     string  false  "Sort column" default(id)
// @Success      200    {array}   domain.Benefit
// @Failure      400    {object}  errorsBody
// @Failure      500    {object}  listFailureResponse
// @Router       /api/beneficio/gt [get]
func (h *BenefitHandler) ListInRange(c echo.Context) error {
	opts, ok := listOptions(c)
	if !ok {
		return badListParams(c)
	}
	lo, ok1 := queryInt(c, "min", domain.DefaultPointsRange.Min)
	hi, ok2 := queryInt(c, "max", domain.DefaultPointsRange.Max)
	if !ok1 || !ok2 {
		return badListParams(c)
	}

	docs, err := h.service.ListInPointsRange(c.Request().Context(), domain.PointsRange{Min: lo, Max: hi}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, listFailureResponse{Message: msgBenefitListFailed, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, docs)
}

// Get returns one benefit.
//
// @Summary      Get a benefit by id
// @Tags         beneficio
// @Produce      json
// @Security     AccessToken
// @Param        id   path      int  true  "Benefit id"
// @Success      200  {object}  domain.Benefit
// @Failure      404  {object}  msgResponse
// @Failure      500  {object}  map[string]any
// @Router       /api/beneficio/id/{id} [get]
func (h *BenefitHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, msgResponse{Msg: "Benefício não encontrado"})
	}
	doc, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrBenefitNotFound) {
			return c.JSON(http.StatusNotFound, msgResponse{Msg: "Benefício não encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, legacyError(err.Error(), "Erro ao obter o benefício pelo ID", "/id/:id"))
	}
	return c.JSON(http.StatusOK, doc)
}

// SearchByName returns benefits whose name contains the filter.
//
// @Summary      Search benefits by name
// @Tags         beneficio
// @Produce      json
// @Security     AccessToken
// @Param        filtro  path      string  true  "Case-insensitive substring"
// @Success      200     {array}   domain.Benefit
// @Failure      500     {object}  map[string]any
// @Router       /api/beneficio/nome/{filtro} [get]
func (h *BenefitHandler) SearchByName(c echo.Context) error {
	docs, err := h.service.SearchByName(c.Request().Context(), c.Param("filtro"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, legacyError(err.Error(), "Erro ao obter o benefícios pelo nome", "/nome/:filtro"))
	}
	return c.JSON(http.StatusOK, docs)
}

// Delete removes a benefit.
//
// @Summary      Delete a benefit
// @Tags         beneficio
// @Produce      json
// @Security     AccessToken
// @Param        id   path      int  true  "Benefit id"
// @Success      200  {object}  msgResponse
// @Failure      404  {object}  map[string]any
// @Failure      500  {object}  errorResponse
// @Router       /api/beneficio/{id} [delete]
func (h *BenefitHandler) Delete(c echo.Context) error {
	notFound := func() error {
		return c.JSON(http.StatusNotFound, legacyError(
			"Não há nenhum benefício com o id "+c.Param("id"), "Erro ao excluir o benefício", "/:id"))
	}

	id, ok := pathID(c, "id")
	if !ok {
		return notFound()
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrBenefitNotFound) {
			return notFound()
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, msgResponse{Msg: "Benefício excluído com sucesso"})
}

// Create registers a benefit.
//
// @Summary      Create a benefit
// @Tags         beneficio
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      benefitRequest  true  "Benefit"
// @Success      201   {object}  createBenefitResponse
// @Failure      400   {object}  errorsBody
// @Failure      500   {object}  map[string]string
// @Router       /api/beneficio [post]
func (h *BenefitHandler) Create(c echo.Context) error {
	var req benefitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "beneficio.create", err)
	}

	b := req.toDomain()
	id, err := h.service.Create(c.Request().Context(), b)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": err.Error() + " Erro no Server"})
	}
	return c.JSON(http.StatusCreated, createBenefitResponse{
		InsertID: id,
		Name:     b.Name,
		Address:  b.Address,
		Points:   b.Points,
		Date:     b.Date,
		Quantity: b.Quantity,
	})
}

// Update replaces a benefit identified by the id in the body.
//
// @Summary      Update a benefit
// @Tags         beneficio
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      benefitRequest  true  "Benefit with id"
// @Success      202   {object}  affectedRowsResponse
// @Failure      400   {object}  errorsBody
// @Failure      500   {object}  map[string]string
// @Router       /api/beneficio [put]
func (h *BenefitHandler) Update(c echo.Context) error {
	var req benefitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "beneficio.update", err)
	}

	affected, err := h.service.Update(c.Request().Context(), req.toDomain())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"errors": err.Error()})
	}
	return c.JSON(http.StatusAccepted, affectedRowsResponse{AffectedRows: affected})
}

// Redeem stores the remaining quantity of a benefit after a redemption.
//
// @Summary      Redeem a benefit
// @Tags         beneficio
// @Accept       json
// @Produce      json
// @Security     AccessToken
// @Param        body  body      redeemBenefitRequest  true  "Benefit id and remaining quantity"
// @Success      202   {object}  affectedRowsResponse
// @Failure      400   {object}  errorsBody
// @Failure      500   {object}  map[string]string
// @Router       /api/beneficio/resgate [put]
func (h *BenefitHandler) Redeem(c echo.Context) error {
	var req redeemBenefitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondBindError(c, "beneficio.resgate", err)
	}

	affected, err := h.service.Redeem(c.Request().Context(), req.ID, *req.Quantity)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"errors": err.Error()})
	}
	if affected > 0 {
		metrics.BenefitsRedeemedTotal.Inc()
	}
	return c.JSON(http.StatusAccepted, affectedRowsResponse{AffectedRows: affected})
}
