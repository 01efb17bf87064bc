package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderConfirmed = "order.confirmed"

type OrderEventItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderConfirmedEvent is the outbox payload written when an order is confirmed.
type OrderConfirmedEvent struct {
	OrderID     string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	UserID      string           `json:"user_id"`
	Email       string           `json:"email"`
	FullName    string           `json:"full_name"`
	Total       decimal.Decimal  `json:"total"`
	Currency    string           `json:"currency"`
	Items       []OrderEventItem `json:"items"`
	ConfirmedAt time.Time        `json:"confirmed_at"`
}

func NewOrderConfirmedEvent(o *Order, at time.Time) OrderConfirmedEvent {
	items := make([]OrderEventItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderEventItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return OrderConfirmedEvent{
		OrderID:     o.ID.String(),
		OrderNumber: o.Number(),
		UserID:      o.UserID,
		Email:       o.ShippingAddress.Email,
		FullName:    o.ShippingAddress.FullName,
		Total:       o.Total,
		Currency:    o.Currency,
		Items:       items,
		ConfirmedAt: at,
	}
}
