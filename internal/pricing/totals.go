// Package pricing derives cart and order totals from line items.
//
// The same calculation backs the cart view and the checkout; checkout results
// are the ones that get persisted.
package pricing

import (
	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/shopspring/decimal"
)

const Currency = "INR"

var (
	TaxRate               = decimal.RequireFromString("0.18")
	FreeShippingThreshold = decimal.NewFromInt(300)
	ShippingFee           = decimal.NewFromInt(99)
	MinimumOrderTotal     = decimal.NewFromInt(1)
)

type Totals struct {
	ItemCount int             `json:"total_items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

// Calculate never rounds: tax is subtotal × TaxRate exactly, shipping is free
// once the subtotal reaches FreeShippingThreshold.
func Calculate(items []domain.CartItem) Totals {
	var count int
	subtotal := decimal.Zero
	for _, item := range items {
		count += item.Quantity
		subtotal = subtotal.Add(item.LineTotal())
	}

	tax := subtotal.Mul(TaxRate)
	shipping := ShippingFee
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Totals{
		ItemCount: count,
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal.Add(tax).Add(shipping),
	}
}

func (t Totals) MeetsMinimum() bool {
	return t.Total.GreaterThanOrEqual(MinimumOrderTotal)
}
