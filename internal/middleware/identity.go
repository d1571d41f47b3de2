package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"bookcourier/internal/auth"
	"bookcourier/internal/model"
)

// ErrNoIdentity is returned when no verified identity is present in the
// request context (JWTAuth did not run or did not succeed).
var ErrNoIdentity = errors.New("no identity in context")

// Identity reconstructs the verified identity stored by JWTAuth.
func Identity(c echo.Context) (auth.Identity, error) {
	email, _ := c.Get("email").(string)
	roleStr, _ := c.Get("role").(string)
	role, err := model.ParseRole(roleStr)
	if err != nil || email == "" {
		return auth.Identity{}, ErrNoIdentity
	}
	return auth.Identity{Email: email, Role: role}, nil
}
