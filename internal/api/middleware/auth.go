package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
)

const (
	// CredentialHeader carries the raw access credential, without a scheme prefix.
	CredentialHeader = "access-token"
	// IdentityKey is the echo.Context key holding the verified domain.Identity.
	IdentityKey = "usuario"

	msgMissingCredential = "Acesso negado. É obrigatório o envio do token JWT"
	msgInvalidCredential = "Token inválido"
)

// Auth verifies the access-token header and attaches the caller identity.
// Invalid and expired credentials share one response.
func Auth(verifier ports.CredentialVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := verifier.Verify(c.Request().Header.Get(CredentialHeader))
			if err != nil {
				if errors.Is(err, domain.ErrMissingCredential) {
					return c.JSON(http.StatusUnauthorized, map[string]string{"msg": msgMissingCredential})
				}
				return c.JSON(http.StatusForbidden, map[string]string{"error": msgInvalidCredential})
			}

			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

// OptionalAuth attaches the caller identity when a valid credential is sent
// and lets the request through either way.
func OptionalAuth(verifier ports.CredentialVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if identity, err := verifier.Verify(c.Request().Header.Get(CredentialHeader)); err == nil {
				c.Set(IdentityKey, identity)
			}
			return next(c)
		}
	}
}

// Identity returns the identity attached by Auth.
func Identity(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(IdentityKey).(domain.Identity)
	return id, ok
}
