package pricing

import (
	"testing"

	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(id, price string, qty int) domain.CartItem {
	return domain.CartItem{ID: id, Name: id, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestCalculate_BelowThreshold(t *testing.T) {
	totals := Calculate([]domain.CartItem{item("roses", "49.99", 2)})

	assert.Equal(t, 2, totals.ItemCount)
	assert.Equal(t, "99.98", totals.Subtotal.String())
	assert.Equal(t, "17.9964", totals.Tax.String())
	assert.Equal(t, "99", totals.Shipping.String())
	assert.Equal(t, "216.9764", totals.Total.String())
}

func TestCalculate_FreeShippingAtThreshold(t *testing.T) {
	totals := Calculate([]domain.CartItem{item("bouquet", "100", 3)})

	assert.Equal(t, "300", totals.Subtotal.String())
	assert.True(t, totals.Shipping.IsZero())
	assert.Equal(t, "354", totals.Total.String())
}

func TestCalculate_JustBelowThreshold(t *testing.T) {
	totals := Calculate([]domain.CartItem{item("bouquet", "299.99", 1)})

	assert.True(t, totals.Shipping.Equal(ShippingFee))
}

func TestCalculate_Empty(t *testing.T) {
	totals := Calculate(nil)

	assert.Equal(t, 0, totals.ItemCount)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Shipping.Equal(ShippingFee))
	assert.True(t, totals.Total.Equal(ShippingFee))
}

func TestCalculate_FormulaHoldsForMixedLines(t *testing.T) {
	items := []domain.CartItem{
		item("a", "44.99", 1),
		item("b", "29.99", 4),
		item("c", "89.99", 2),
	}

	totals := Calculate(items)

	want := decimal.Zero
	for _, it := range items {
		want = want.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.Equal(t, 7, totals.ItemCount)
	assert.True(t, totals.Subtotal.Equal(want))
	assert.True(t, totals.Tax.Equal(want.Mul(TaxRate)))
	assert.True(t, totals.Shipping.IsZero())
	assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax).Add(totals.Shipping)))
}

func TestCalculate_DoesNotMutateInput(t *testing.T) {
	items := []domain.CartItem{item("a", "10", 2)}
	_ = Calculate(items)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestMeetsMinimum(t *testing.T) {
	assert.True(t, Totals{Total: decimal.NewFromInt(1)}.MeetsMinimum())
	assert.False(t, Totals{Total: decimal.RequireFromString("0.99")}.MeetsMinimum())
}
