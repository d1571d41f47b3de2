// Package middleware provides reusable HTTP middleware: credential
// verification, role gating and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"bookcourier/internal/auth"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and stores the verified identity (email + role) in the request
// context. Missing, malformed, signature-invalid and expired tokens all
// yield 401. Handlers read the identity via Identity(c); nothing
// downstream re-parses the credential.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			id, err := auth.VerifyAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("email", id.Email)
			c.Set("role", string(id.Role))
			return next(c)
		}
	}
}
