package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/cart"
	"github.com/patelashutosh/bloom-store/internal/catalog"
	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/identity"
	"github.com/patelashutosh/bloom-store/internal/payment"
	"github.com/patelashutosh/bloom-store/internal/pricing"
	"github.com/patelashutosh/bloom-store/internal/repository"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	TransitionOrderStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, event *repository.OutboxEvent) error
	FindOrderIDByIdempotencyKey(ctx context.Context, userID, key string) (uuid.UUID, error)
	GetOrderForUser(ctx context.Context, id uuid.UUID, userID string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

// PriceSource supplies authoritative product data for checkout lines.
type PriceSource interface {
	GetProduct(ctx context.Context, ref string) (*domain.Product, error)
}

// CheckoutRequest is one checkout submission. A repeated IdempotencyKey from
// the same user replays the first order only when the product ids and
// quantities match it; otherwise the result is IDEMPOTENCY_KEY_REUSED.
type CheckoutRequest struct {
	Items          []domain.CartItem      `json:"items"`
	Customer       domain.ShippingAddress `json:"customer_info"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
}

// CheckoutResult is always returned, never a raw fault. Err holds the
// sentinel for callers that map failures to transport status codes.
type CheckoutResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Err     error  `json:"-"`
}

type CheckoutService struct {
	orders   OrderStore
	payments payment.Gateway
	prices   PriceSource
	now      func() time.Time
}

// NewCheckoutService accepts a nil prices, in which case submitted unit
// prices are used as-is.
func NewCheckoutService(orders OrderStore, payments payment.Gateway, prices PriceSource) *CheckoutService {
	return &CheckoutService{orders: orders, payments: payments, prices: prices, now: time.Now}
}

func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) CheckoutResult {
	log := logger.FromContext(ctx)

	// 1. identity
	id, err := identity.FromContext(ctx)
	if err != nil {
		return failure(ErrUnauthenticated, CodeUnauthenticated, msgUnauthenticated)
	}
	log = log.With(zap.String("user_id", id.UserID))

	// 2. items
	if len(req.Items) == 0 {
		return failure(ErrEmptyCart, CodeEmptyCart, msgEmptyCart)
	}
	items, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		if errors.Is(err, ErrInvalidItem) {
			log.Info("checkout rejected", zap.Error(err))
			return failure(err, CodeInvalidItem, msgInvalidItem)
		}
		log.Error("checkout price lookup failed", zap.Error(err))
		return failure(err, CodeInternal, msgInternal)
	}

	address, err := validateAddress(req.Customer)
	if err != nil {
		return failure(err, CodeInvalidAddress, msgInvalidAddress)
	}

	if req.IdempotencyKey != "" {
		existing, err := s.orders.FindOrderIDByIdempotencyKey(ctx, id.UserID, req.IdempotencyKey)
		switch {
		case err == nil:
			log.Info("duplicate checkout detected",
				zap.String("idempotency_key", req.IdempotencyKey), zap.String("order_id", existing.String()))
			return s.replay(ctx, id.UserID, existing, items)
		case !errors.Is(err, repository.ErrOrderNotFound):
			log.Error("idempotency lookup failed", zap.Error(err))
			return failure(err, CodeInternal, msgInternal)
		}
	}

	// 3. totals, never trusted from the client
	totals := pricing.Calculate(items)

	// 4. sanity floor
	if !totals.MeetsMinimum() {
		return failure(fmt.Errorf("%w: %s", ErrInvalidTotal, totals.Total), CodeInvalidTotal, msgInvalidTotal)
	}

	orderID := uuid.New()

	// 5. payment
	charge, err := s.payments.Charge(ctx, payment.ChargeRequest{
		Reference: orderID.String(),
		Amount:    totals.Total,
		Currency:  pricing.Currency,
	})
	if err != nil {
		log.Warn("payment attempt errored", zap.Error(err))
		return failure(fmt.Errorf("%w: %w", ErrPaymentFailed, err), CodePaymentFailed, msgPaymentFailed)
	}
	if !charge.Approved {
		log.Info("payment declined", zap.String("reason", charge.DeclineReason))
		return failure(fmt.Errorf("%w: %s", ErrPaymentFailed, charge.DeclineReason), CodePaymentFailed, msgPaymentFailed)
	}

	// 6. create PENDING, then confirm
	order := &domain.Order{
		ID:              orderID,
		UserID:          id.UserID,
		Status:          domain.OrderStatusPending,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCost:    totals.Shipping,
		Total:           totals.Total,
		Currency:        pricing.Currency,
		ShippingAddress: address,
		Items:           make([]domain.OrderItem, len(items)),
		IdempotencyKey:  req.IdempotencyKey,
		CreatedAt:       s.now().UTC(),
	}
	for i, item := range items {
		order.Items[i] = domain.SnapshotItem(item)
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
			if existing, lookupErr := s.orders.FindOrderIDByIdempotencyKey(ctx, id.UserID, req.IdempotencyKey); lookupErr == nil {
				log.Warn("concurrent duplicate checkout", zap.String("order_id", existing.String()),
					zap.String("transaction_id", charge.TransactionID))
				return s.replay(ctx, id.UserID, existing, items)
			}
		}
		log.Error("failed to create order", zap.Error(err), zap.String("transaction_id", charge.TransactionID))
		return failure(err, CodeInternal, msgInternal)
	}

	order.Status = domain.OrderStatusConfirmed
	event, err := repository.NewOutboxEvent(order.ID.String(), domain.EventOrderConfirmed,
		domain.NewOrderConfirmedEvent(order, s.now().UTC()))
	if err != nil {
		log.Error("failed to build order event", zap.Error(err))
		return failure(err, CodeInternal, msgInternal)
	}
	if err := s.orders.TransitionOrderStatus(ctx, order.ID,
		domain.OrderStatusPending, domain.OrderStatusConfirmed, event); err != nil {
		log.Error("failed to confirm order, left pending",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		return failure(err, CodeInternal, msgInternal)
	}

	log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.Total.String()),
		zap.String("transaction_id", charge.TransactionID))

	// 7. confirmation
	return success(order.ID)
}

// replay answers a repeated idempotency key with the stored order, provided
// the submitted lines are the ones that order was placed with.
func (s *CheckoutService) replay(ctx context.Context, userID string, orderID uuid.UUID, items []domain.CartItem) CheckoutResult {
	log := logger.FromContext(ctx)
	order, err := s.orders.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		log.Error("failed to load order for idempotent replay", zap.String("order_id", orderID.String()), zap.Error(err))
		return failure(err, CodeInternal, msgInternal)
	}
	if !sameLines(order.Items, items) {
		log.Warn("idempotency key reused with a different cart", zap.String("order_id", orderID.String()))
		return failure(ErrIdempotencyReuse, CodeKeyReused, msgKeyReused)
	}
	return success(orderID)
}

// sameLines compares product ids and quantities in line order. Prices and
// names are ignored since the catalog may have changed since the order.
func sameLines(placed []domain.OrderItem, items []domain.CartItem) bool {
	if len(placed) != len(items) {
		return false
	}
	for i := range placed {
		if placed[i].ProductID != items[i].ID || placed[i].Quantity != items[i].Quantity {
			return false
		}
	}
	return true
}

// resolveItems validates the submitted lines, merges duplicate ids and, when
// a price source is configured, replaces name, image and price with catalog
// values.
func (s *CheckoutService) resolveItems(ctx context.Context, submitted []domain.CartItem) ([]domain.CartItem, error) {
	for _, item := range submitted {
		if item.ID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: %q quantity %d price %s", ErrInvalidItem, item.ID, item.Quantity, item.UnitPrice)
		}
	}
	items := cart.Normalize(submitted)

	if s.prices == nil {
		return items, nil
	}
	for i := range items {
		p, err := s.prices.GetProduct(ctx, items[i].ID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: unknown product %q", ErrInvalidItem, items[i].ID)
		}
		if err != nil {
			return nil, fmt.Errorf("look up product %q: %w", items[i].ID, err)
		}
		items[i].Name = p.Name
		items[i].ImageURL = p.ImageURL
		items[i].UnitPrice = p.Price
	}
	return items, nil
}

func validateAddress(in domain.ShippingAddress) (domain.ShippingAddress, error) {
	a := domain.ShippingAddress{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.TrimSpace(in.Email),
		Address:  strings.TrimSpace(in.Address),
		City:     strings.TrimSpace(in.City),
		ZipCode:  strings.TrimSpace(in.ZipCode),
	}
	for field, v := range map[string]string{
		"full_name": a.FullName,
		"email":     a.Email,
		"address":   a.Address,
		"city":      a.City,
		"zip_code":  a.ZipCode,
	} {
		if v == "" {
			return a, fmt.Errorf("%w: %s is required", ErrInvalidAddress, field)
		}
	}
	parsed, err := mail.ParseAddress(a.Email)
	if err != nil || parsed.Address != a.Email {
		return a, fmt.Errorf("%w: malformed email", ErrInvalidAddress)
	}
	return a, nil
}

func success(orderID uuid.UUID) CheckoutResult {
	return CheckoutResult{
		Success: true,
		OrderID: orderID.String(),
		Message: fmt.Sprintf("Order #%s has been placed successfully! You will receive a confirmation email shortly.",
			domain.OrderNumber(orderID)),
	}
}

func failure(err error, code, msg string) CheckoutResult {
	return CheckoutResult{Success: false, Error: msg, Code: code, Err: err}
}
