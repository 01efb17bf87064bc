package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/patelashutosh/bloom-store/internal/domain"
)

func TestNormalize(t *testing.T) {
	neg := item("neg", "10")
	neg.UnitPrice = decimal.NewFromInt(-1)
	zero := item("zero", "10")
	zero.Quantity = 0
	noID := item("", "10")
	a1 := item("a", "10")
	a2 := item("a", "10")
	a2.Quantity = 3
	b := item("b", "5")

	got := Normalize([]domain.CartItem{neg, a1, zero, noID, b, a2})

	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 4, got[0].Quantity)
	assert.Equal(t, "b", got[1].ID)
}

func TestNormalize_Nil(t *testing.T) {
	got := Normalize(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAddN(t *testing.T) {
	in := []domain.CartItem{item("a", "10")}

	got := AddN(in, item("a", "10"), 4)
	assert.Equal(t, 5, got[0].Quantity)

	got = AddN(got, item("b", "5"), 3)
	assert.Len(t, got, 2)
	assert.Equal(t, 3, got[1].Quantity)

	assert.Equal(t, got, AddN(got, item("b", "5"), 0))
}

func TestReducersDoNotMutateInput(t *testing.T) {
	in := []domain.CartItem{item("a", "10"), item("b", "5")}

	_ = Add(in, item("a", "10"))
	_ = AddN(in, item("b", "5"), 3)
	_ = SetQuantity(in, "b", 9)
	_ = Remove(in, "a")

	assert.Equal(t, 1, in[0].Quantity)
	assert.Equal(t, 1, in[1].Quantity)
	assert.Len(t, in, 2)
}
