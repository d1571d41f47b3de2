package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	t.Run("accepts every known status", func(t *testing.T) {
		for _, s := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
			got, err := ParseOrderStatus(s)
			require.NoError(t, err, s)
			assert.Equal(t, OrderStatus(s), got)
		}
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		got, err := ParseOrderStatus("  Shipped ")
		require.NoError(t, err)
		assert.Equal(t, OrderShipped, got)
	})

	t.Run("rejects values outside the closed set", func(t *testing.T) {
		for _, s := range []string{"", "paid", "returned", "PENDING!", "done"} {
			_, err := ParseOrderStatus(s)
			assert.ErrorIs(t, err, ErrInvalidTransition, s)
		}
	})
}

func TestOrderStatusTransitions(t *testing.T) {
	nonTerminal := []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered}

	t.Run("non-terminal states move freely between each other", func(t *testing.T) {
		for _, from := range nonTerminal {
			for _, to := range nonTerminal {
				assert.True(t, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("cancelled is never a status-update target", func(t *testing.T) {
		for _, from := range nonTerminal {
			assert.False(t, from.CanTransitionTo(OrderCancelled), "%s -> cancelled", from)
		}
	})

	t.Run("cancelled accepts no further transitions", func(t *testing.T) {
		for _, to := range append(nonTerminal, OrderCancelled) {
			assert.False(t, OrderCancelled.CanTransitionTo(to), "cancelled -> %s", to)
		}
	})

	t.Run("unknown statuses can neither move nor be moved to", func(t *testing.T) {
		assert.False(t, OrderStatus("archived").CanTransitionTo(OrderPending))
		assert.False(t, OrderPending.CanTransitionTo(OrderStatus("archived")))
	})

	t.Run("terminal flag", func(t *testing.T) {
		assert.True(t, OrderCancelled.Terminal())
		for _, s := range nonTerminal {
			assert.False(t, s.Terminal(), string(s))
		}
	})
}

func TestPaymentStatusValues(t *testing.T) {
	assert.Equal(t, PaymentStatus("unpaid"), PaymentUnpaid)
	assert.Equal(t, PaymentStatus("paid"), PaymentPaid)
}
