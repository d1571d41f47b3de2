// Package handler implements the HTTP handlers. Each handler struct
// bundles the repositories it needs; authentication is performed by
// middleware, authorization by the policy package, and every handler
// derives the caller's identity exactly once per request.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"bookcourier/internal/auth"
	"bookcourier/internal/middleware"
)

// dbTimeout bounds every database interaction performed by a handler.
const dbTimeout = 5 * time.Second

func identity(c echo.Context) (auth.Identity, error) {
	return middleware.Identity(c)
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
