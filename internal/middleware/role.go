package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookcourier/internal/model"
)

// RequireRole enforces that the authenticated caller holds one of the
// given roles. It assumes JWTAuth has already stored the role in the
// context. Finer-grained ownership checks stay in the policy package;
// this gate only rejects requests that could never be allowed.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roleStr, ok := c.Get("role").(string)
			if !ok || !allowed[model.Role(roleStr)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
