package model

import (
	"errors"
	"strings"
)

// OrderStatus is the closed set of order lifecycle states.
//
// State transitions:
//
//	pending ──> processing ──> shipped ──> delivered
//	   │             │            │
//	   └─────────────┴────────────┴──> cancelled (terminal)
//
// A librarian may move an order between any of the non-terminal states.
// Cancellation is a separate operation (Cancel on the order handler) and
// is the only way to reach the terminal state. Once cancelled, no further
// status mutation is accepted.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// PaymentStatus tracks settlement separately from the lifecycle status.
// It flips unpaid -> paid exclusively through payment settlement, never
// through a generic status update.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// ErrInvalidTransition is returned when a status change would leave the
// closed set or move an order out of a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")

var validStatuses = map[OrderStatus]struct{}{
	OrderPending:    {},
	OrderProcessing: {},
	OrderShipped:    {},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// ParseOrderStatus normalizes and validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validStatuses[st]; !ok {
		return "", ErrInvalidTransition
	}
	return st, nil
}

// Valid reports whether the status belongs to the closed set.
func (s OrderStatus) Valid() bool {
	_, ok := validStatuses[s]
	return ok
}

// Terminal reports whether no further transitions are permitted.
func (s OrderStatus) Terminal() bool { return s == OrderCancelled }

// CanTransitionTo validates a librarian-driven status update. Cancellation
// is excluded here on purpose: it has its own operation with its own
// authorization rules and idempotence guarantees.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.Terminal() {
		return false
	}
	return next != OrderCancelled
}
