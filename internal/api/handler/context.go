package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ecosrev/ecosrev-api/internal/api/middleware"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
)

// callerIdentity extracts the identity injected by the Auth middleware.
// Its absence means the route was mounted without the gate.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.Identity(c)
	if !ok || id.ID == 0 {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// legacyError is the single-entry errors envelope some routes answer with.
func legacyError(value, msg, param string) map[string]any {
	return map[string]any{
		"errors": []map[string]string{{"value": value, "msg": msg, "param": param}},
	}
}
