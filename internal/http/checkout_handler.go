package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/cart"
	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/service"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

type Checkouter interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) service.CheckoutResult
}

type CheckoutHandler struct {
	checkout  Checkouter
	snapshots cart.SnapshotStore
	timeout   time.Duration
}

func NewCheckoutHandler(checkout Checkouter, snapshots cart.SnapshotStore, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:  checkout,
		snapshots: snapshots,
		timeout:   timeout,
	}
}

// CheckoutRequestDTO carries the shipping details. Items default to the
// session cart when omitted.
type CheckoutRequestDTO struct {
	Items          []domain.CartItem      `json:"items"`
	CustomerInfo   domain.ShippingAddress `json:"customer_info"`
	IdempotencyKey string                 `json:"idempotency_key"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	var store *cart.Store
	if session := cartSession(r.Context()); session != "" {
		var err error
		store, err = cart.Open(ctx, h.snapshots, session)
		if err != nil {
			if len(req.Items) == 0 {
				logger.FromContext(ctx).Error("error opening cart for checkout", zap.String("session", session), zap.Error(err))
				respondError(w, r, http.StatusServiceUnavailable, "cart_unavailable", "cart is temporarily unavailable")
				return
			}
			logger.FromContext(ctx).Warn("error opening cart for checkout", zap.Error(err))
		}
	}
	if len(req.Items) == 0 && store != nil {
		req.Items = store.Items()
	}

	result := h.checkout.Checkout(ctx, service.CheckoutRequest{
		Items:          req.Items,
		Customer:       req.CustomerInfo,
		IdempotencyKey: req.IdempotencyKey,
	})
	if !result.Success {
		respondJSON(w, r, checkoutStatus(result.Code), result)
		return
	}

	if store != nil {
		if _, err := store.ClearCart(ctx); err != nil {
			logger.FromContext(ctx).Warn("cart not cleared after checkout",
				zap.String("order_id", result.OrderID), zap.Error(err))
		}
	}
	respondJSON(w, r, http.StatusCreated, result)
}

func checkoutStatus(code string) int {
	switch code {
	case service.CodeUnauthenticated:
		return http.StatusUnauthorized
	case service.CodeEmptyCart, service.CodeInvalidItem, service.CodeInvalidAddress:
		return http.StatusBadRequest
	case service.CodeInvalidTotal:
		return http.StatusUnprocessableEntity
	case service.CodePaymentFailed:
		return http.StatusPaymentRequired
	case service.CodeKeyReused:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
