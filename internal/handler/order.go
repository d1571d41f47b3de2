package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"bookcourier/internal/model"
	"bookcourier/internal/policy"
	"bookcourier/internal/queue"
	"bookcourier/internal/repository"
	queue_publisher "bookcourier/internal/service"
)

// OrderHandler owns the order lifecycle endpoints. Transition rules live
// on the OrderStatus enum, authorization in the policy package; this
// layer wires them to the store and keeps failure ordering strict:
// validate, authorize, then mutate.
type OrderHandler struct {
	Orders *repository.OrderRepo
	Books  *repository.BookRepo
}

func NewOrderHandler(o *repository.OrderRepo, b *repository.BookRepo) *OrderHandler {
	if o == nil || b == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: o, Books: b}
}

type orderResp struct {
	ID             uint64    `json:"id"`
	BookID         uint64    `json:"book_id"`
	UserEmail      string    `json:"user_email"`
	LibrarianEmail string    `json:"librarian_email"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toOrderResp(o model.Order) orderResp {
	return orderResp{
		ID:             o.ID,
		BookID:         o.BookID,
		UserEmail:      o.UserEmail,
		LibrarianEmail: o.LibrarianEmail,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		CreatedAt:      o.CreatedAt,
	}
}

// Create handles POST /v1/orders. The referenced book must exist and be
// published; the order starts pending/unpaid with the book's librarian
// denormalized onto the row.
func (h *OrderHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := policy.Authorize(id, policy.ActionCreateOrder, policy.Resource{}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req struct {
		BookID uint64 `json:"book_id"`
	}
	if err := c.Bind(&req); err != nil || req.BookID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_id required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	book, err := h.Books.GetByID(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if book.Status != model.BookPublished {
		return c.JSON(http.StatusConflict, echo.Map{"error": "book is not published"})
	}
	o := model.Order{
		BookID:         book.ID,
		UserEmail:      id.Email,
		LibrarianEmail: book.LibrarianEmail,
		Status:         model.OrderPending,
		PaymentStatus:  model.PaymentUnpaid,
	}
	if err := h.Orders.Create(ctx, &o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toOrderResp(o)})
}

// ListForUser handles GET /v1/orders?userEmail=. The email parameter
// must match the caller's identity: user A asking for user B's orders is
// always forbidden, whatever credential A holds.
func (h *OrderHandler) ListForUser(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	email := strings.ToLower(strings.TrimSpace(c.QueryParam("userEmail")))
	if email == "" {
		email = id.Email
	}
	if err := policy.Authorize(id, policy.ActionListUserOrders, policy.Resource{OwnerEmail: email}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	orders, err := h.Orders.ListByUserEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toOrderResps(orders)})
}

// ListForLibrarian handles GET /v1/librarian/orders. Librarian only;
// scoped to orders on the caller's own books.
func (h *OrderHandler) ListForLibrarian(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := policy.Authorize(id, policy.ActionListLibrarianOrders, policy.Resource{}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	orders, err := h.Orders.ListByLibrarianEmail(ctx, id.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toOrderResps(orders)})
}

// Get handles GET /v1/orders/:id. Purchaser, owning librarian and admin
// may view; anyone else gets a forbidden that carries nothing about the
// order.
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	res := policy.Resource{OwnerEmail: o.UserEmail, LibrarianEmail: o.LibrarianEmail}
	if err := policy.Authorize(id, policy.ActionViewOrder, res); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toOrderResp(o)})
}

// SetStatus handles PATCH /v1/orders/:id/status. Owning librarian only;
// the target status must be in the closed set and the order must not be
// in the terminal state. Payment status is never touched here.
func (h *OrderHandler) SetStatus(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	next, err := model.ParseOrderStatus(body.Status)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unknown status"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	res := policy.Resource{OwnerEmail: o.UserEmail, LibrarianEmail: o.LibrarianEmail}
	if err := policy.Authorize(id, policy.ActionSetOrderStatus, res); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if !o.Status.CanTransitionTo(next) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
	}
	if err := h.Orders.UpdateStatus(ctx, orderID, next); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	o.Status = next
	return c.JSON(http.StatusOK, echo.Map{"item": toOrderResp(o)})
}

// Cancel handles POST /v1/orders/:id/cancel. Purchaser or owning
// librarian; cancelling an already-cancelled order is a no-op success.
func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	res := policy.Resource{OwnerEmail: o.UserEmail, LibrarianEmail: o.LibrarianEmail}
	if err := policy.Authorize(id, policy.ActionCancelOrder, res); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if o.Status == model.OrderCancelled {
		return c.JSON(http.StatusOK, echo.Map{"item": toOrderResp(o)})
	}
	if err := h.Orders.UpdateStatus(ctx, orderID, model.OrderCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	o.Status = model.OrderCancelled

	go func(ev queue.OrderEvent) {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), dbTimeout)
		defer pubCancel()
		_ = queue_publisher.PublishOrderEvent(pubCtx, ev)
	}(queue.OrderEvent{
		Kind:           queue.KindOrderCancelled,
		OrderID:        o.ID,
		BookID:         o.BookID,
		UserEmail:      o.UserEmail,
		LibrarianEmail: o.LibrarianEmail,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"item": toOrderResp(o)})
}

func toOrderResps(orders []model.Order) []orderResp {
	items := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderResp(o))
	}
	return items
}
