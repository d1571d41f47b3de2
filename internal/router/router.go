package router

import (
	"github.com/labstack/echo/v4"

	"bookcourier/internal/handler"
	"bookcourier/internal/middleware"
	"bookcourier/internal/model"
)

// RegisterRoutes registers routes that need no authentication beyond
// what the handlers enforce themselves. Currently only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the credential endpoints under /v1/auth. The rate
// limiter sits in front of the whole group so password guessing and
// token grinding share one budget per client.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterAPI wires the catalog, order, payment and account endpoints.
// Public browsing stays outside the JWT group; everything else requires
// a valid access token, with fine-grained decisions left to the policy
// checks inside each handler.
func RegisterAPI(
	e *echo.Echo,
	jwtSecret string,
	limit echo.MiddlewareFunc,
	auth *handler.AuthHandler,
	users *handler.UserHandler,
	books *handler.BookHandler,
	orders *handler.OrderHandler,
	payments *handler.PaymentHandler,
) {
	// Guests may browse the published catalog.
	e.GET("/v1/books", books.ListPublished)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	v1.GET("/me", auth.Me)

	admin := v1.Group("/users", middleware.RequireRole(model.RoleAdmin))
	admin.GET("", users.List)
	admin.PATCH("/:email/role", users.SetRole)
	// Self-lookup is allowed too, so this one skips the admin gate and
	// relies on the policy check.
	v1.GET("/users/:email", users.Get)

	v1.POST("/books", books.Create)
	v1.PATCH("/books/:id", books.Update)
	v1.DELETE("/books/:id", books.Delete)
	v1.GET("/librarian/books", books.ListMine)

	v1.POST("/orders", orders.Create, limit)
	v1.GET("/orders", orders.ListForUser)
	v1.GET("/orders/:id", orders.Get)
	v1.PATCH("/orders/:id/status", orders.SetStatus)
	v1.POST("/orders/:id/cancel", orders.Cancel)
	v1.GET("/librarian/orders", orders.ListForLibrarian)

	v1.POST("/payments", payments.Settle)
	v1.GET("/payments", payments.List)
}
