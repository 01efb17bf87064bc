package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(OrderStatusPending, OrderStatusConfirmed))
	assert.False(t, CanTransitionTo(OrderStatusConfirmed, OrderStatusPending))
	assert.False(t, CanTransitionTo(OrderStatusPending, OrderStatusPending))
	assert.False(t, CanTransitionTo(OrderStatusConfirmed, OrderStatusConfirmed))
	assert.True(t, OrderStatusConfirmed.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, s)

	_, err = ParseOrderStatus("SHIPPED")
	assert.Error(t, err)
}

func TestOrderNumber(t *testing.T) {
	id := uuid.MustParse("7f3c2a1e-4b5d-4c6e-8f90-a1b2c3d4e5f6")
	assert.Equal(t, "C3D4E5F6", OrderNumber(id))
}

func TestSnapshotItem(t *testing.T) {
	item := CartItem{ID: "prd_01", Name: "Roses", UnitPrice: decimal.RequireFromString("49.99"), ImageURL: "roses.jpg", Quantity: 3}

	snap := SnapshotItem(item)

	assert.Equal(t, "prd_01", snap.ProductID)
	assert.Equal(t, "Roses", snap.ProductName)
	assert.Equal(t, "roses.jpg", snap.ProductImage)
	assert.Equal(t, 3, snap.Quantity)
	assert.Equal(t, "149.97", snap.TotalPrice.String())
}
