// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// Event kinds published on the order.events queue.
const (
	KindOrderSettled   = "order.settled"
	KindOrderCancelled = "order.cancelled"
)

// OrderEvent is published after an order-affecting mutation commits. It
// carries enough information for downstream consumers to log or notify
// without querying the primary database.
type OrderEvent struct {
	Kind           string `json:"kind"`
	OrderID        uint64 `json:"order_id"`
	BookID         uint64 `json:"book_id"`
	UserEmail      string `json:"user_email"`
	LibrarianEmail string `json:"librarian_email"`
	PaymentID      uint64 `json:"payment_id,omitempty"`
	AmountCents    uint32 `json:"amount_cents,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}
