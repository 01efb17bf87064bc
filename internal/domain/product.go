package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID               string          `json:"id"`
	Slug             string          `json:"slug"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	ImageURL         string          `json:"image_url"`
	FlowerType       string          `json:"flower_type"`
	Color            string          `json:"color"`
	Occasion         string          `json:"occasion"`
	Seasonality      string          `json:"seasonality"`
	CareInstructions string          `json:"care_instructions"`
	Featured         bool            `json:"featured"`
	Tags             []string        `json:"tags"`
	CategorySlug     string          `json:"category"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Category struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// CartItem builds the cart line the storefront adds for this product.
func (p Product) CartItem() CartItem {
	return CartItem{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageURL:  p.ImageURL,
		Quantity:  1,
	}
}
