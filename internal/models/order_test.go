package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusLifecycle(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		terminal bool
		notifies bool
	}{
		{StatusPending, false, false},
		{StatusConfirmed, false, true},
		{StatusInKitchen, false, false},
		{StatusReady, false, false},
		{StatusOutForDelivery, false, true},
		{StatusCompleted, true, true},
		{StatusCancelled, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			parsed, err := ParseOrderStatus(string(tt.status))
			require.NoError(t, err)
			assert.Equal(t, tt.status, parsed)
			assert.Equal(t, tt.terminal, parsed.IsTerminal())
			assert.Equal(t, tt.notifies, parsed.NotifiesCustomer())
		})
	}

	_, err := ParseOrderStatus("baking")
	assert.Error(t, err)
	_, err = ParseOrderStatus("Confirmed")
	assert.Error(t, err)
}

func TestParsePaymentStatus(t *testing.T) {
	for _, raw := range []string{"pending", "paid", "failed", "refunded"} {
		got, err := ParsePaymentStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, PaymentStatus(raw), got)
	}
	_, err := ParsePaymentStatus("settled")
	assert.Error(t, err)
}

func TestOrderItemsTotal(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{Subtotal: decimal.RequireFromString("900")},
		{Subtotal: decimal.RequireFromString("99.99")},
	}}
	assert.True(t, decimal.RequireFromString("999.99").Equal(order.ItemsTotal()))
}
