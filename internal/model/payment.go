package model

import "time"

// Payment mirrors the `payments` table. Exactly one row exists per
// settled order; its presence is what makes an order's paid payment
// status trustworthy.
type Payment struct {
	ID          uint64    // payments.id
	OrderID     uint64    // payments.order_id
	PayerEmail  string    // payments.payer_email
	AmountCents uint32    // payments.amount_cents
	Method      string    // payments.method (opaque to the core)
	CreatedAt   time.Time // payments.created_at
}
