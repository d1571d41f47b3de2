package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"bookcourier/internal/model"
	"bookcourier/internal/policy"
	"bookcourier/internal/queue"
	"bookcourier/internal/repository"
	queue_publisher "bookcourier/internal/service"
)

// paymentStore is the slice of the payment repository settlement and
// the payment queries use.
type paymentStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error
	GetByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint64) (model.Payment, error)
	ListByPayer(ctx context.Context, email string) ([]model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
}

// settlementOrderStore is the order-side of settlement: the locked read
// and the paid flip, both inside the handler's transaction.
type settlementOrderStore interface {
	DB() *sql.DB
	GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Order, error)
	MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64) error
}

// PaymentHandler implements settlement and payment queries. Settlement
// is the only code path that flips an order to paid, and it runs as one
// transaction: the row lock on the order makes a concurrent retry see
// either the unpaid order or the finished settlement, never the gap in
// between.
type PaymentHandler struct {
	Payments paymentStore
	Orders   settlementOrderStore
}

func NewPaymentHandler(p paymentStore, o settlementOrderStore) *PaymentHandler {
	if p == nil || o == nil {
		panic("nil repository passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: p, Orders: o}
}

type paymentResp struct {
	ID          uint64    `json:"id"`
	OrderID     uint64    `json:"order_id"`
	PayerEmail  string    `json:"payer_email"`
	AmountCents uint32    `json:"amount_cents"`
	Method      string    `json:"method"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPaymentResp(p model.Payment) paymentResp {
	return paymentResp{
		ID:          p.ID,
		OrderID:     p.OrderID,
		PayerEmail:  p.PayerEmail,
		AmountCents: p.AmountCents,
		Method:      p.Method,
		CreatedAt:   p.CreatedAt,
	}
}

// Settle handles POST /v1/payments. Marks the order paid and records the
// payment in a single transaction. Settling an already-paid order
// returns the existing payment instead of creating a duplicate, so
// client retries are safe. Cancelled orders cannot be settled.
func (h *PaymentHandler) Settle(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := policy.Authorize(id, policy.ActionSettlePayment, policy.Resource{}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req struct {
		OrderID     uint64 `json:"order_id"`
		AmountCents uint32 `json:"amount_cents"`
		Method      string `json:"method"`
	}
	if err := c.Bind(&req); err != nil || req.OrderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	o, err := h.Orders.GetByIDForUpdateTx(ctx, tx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	if o.UserEmail != id.Email {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if o.Status == model.OrderCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is cancelled"})
	}
	if o.PaymentStatus == model.PaymentPaid {
		existing, err := h.Payments.GetByOrderTx(ctx, tx, o.ID)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
		}
		if err := tx.Commit(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
		}
		committed = true
		return c.JSON(http.StatusOK, echo.Map{"item": toPaymentResp(existing), "already_paid": true})
	}

	if err := h.Orders.MarkPaidTx(ctx, tx, o.ID); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	p := model.Payment{
		OrderID:     o.ID,
		PayerEmail:  id.Email,
		AmountCents: req.AmountCents,
		Method:      req.Method,
	}
	if err := h.Payments.CreateTx(ctx, tx, &p); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	committed = true

	go func(ev queue.OrderEvent) {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), dbTimeout)
		defer pubCancel()
		_ = queue_publisher.PublishOrderEvent(pubCtx, ev)
	}(queue.OrderEvent{
		Kind:           queue.KindOrderSettled,
		OrderID:        o.ID,
		BookID:         o.BookID,
		UserEmail:      o.UserEmail,
		LibrarianEmail: o.LibrarianEmail,
		PaymentID:      p.ID,
		AmountCents:    p.AmountCents,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"item": toPaymentResp(p)})
}

// List handles GET /v1/payments. Users see only their own payments;
// an admin may pass ?all=true for the global view.
func (h *PaymentHandler) List(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if c.QueryParam("all") == "true" {
		if err := policy.Authorize(id, policy.ActionListAllPayments, policy.Resource{}); err != nil {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		payments, err := h.Payments.ListAll(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": toPaymentResps(payments)})
	}

	if err := policy.Authorize(id, policy.ActionListOwnPayments, policy.Resource{OwnerEmail: id.Email}); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	payments, err := h.Payments.ListByPayer(ctx, id.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toPaymentResps(payments)})
}

func toPaymentResps(payments []model.Payment) []paymentResp {
	items := make([]paymentResp, 0, len(payments))
	for _, p := range payments {
		items = append(items, toPaymentResp(p))
	}
	return items
}
