package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

// knownErrors maps domain errors that escaped a handler to a response.
// The first match wins.
var knownErrors = []struct {
	err  error
	code int
	msg  string
}{
	{domain.ErrUserNotFound, http.StatusNotFound, "Usuário não encontrado"},
	{domain.ErrBenefitNotFound, http.StatusNotFound, "Benefício não encontrado"},
	{domain.ErrImageNotFound, http.StatusNotFound, "Registro não encontrado"},
	{domain.ErrEmailTaken, http.StatusConflict, "email já cadastrado"},
	{domain.ErrDuplicateCoupon, http.StatusBadRequest, "Este cupom já foi resgatado anteriormente."},
	{domain.ErrMissingCredential, http.StatusUnauthorized, "Acesso negado. É obrigatório o envio do token JWT"},
	{domain.ErrInvalidCredential, http.StatusForbidden, "Token inválido"},
	{domain.ErrExpiredCredential, http.StatusForbidden, "Token inválido"},
}

// NewHTTPErrorHandler renders errors no handler answered as {"error": msg}.
// Unknown errors are logged and hidden behind a 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, errorBody{Error: fmt.Sprint(he.Message)})
			return
		}

		for _, k := range knownErrors {
			if errors.Is(err, k.err) {
				_ = c.JSON(k.code, errorBody{Error: k.msg})
				return
			}
		}

		log.Error().
			Err(err).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		_ = c.JSON(http.StatusInternalServerError, errorBody{Error: "Erro interno do servidor"})
	}
}
