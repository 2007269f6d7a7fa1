package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

const msgRoleDenied = "Acesso negado. Permissão insuficiente"

// RequireRole admits callers whose identity carries one of roles. Mount it
// after Auth; a request that reaches it without an identity is refused.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := Identity(c)
			if !ok || !slices.Contains(roles, id.Role) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": msgRoleDenied})
			}
			return next(c)
		}
	}
}
