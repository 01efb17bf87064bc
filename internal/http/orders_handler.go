package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/service"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

type OrderReader interface {
	GetOrderDetails(ctx context.Context, orderID string) (*domain.Order, error)
	GetUserOrders(ctx context.Context) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderReader
	timeout time.Duration
}

func NewOrdersHandler(orders OrderReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// OrderResponseDTO adds the customer-facing order number.
type OrderResponseDTO struct {
	*domain.Order
	OrderNumber string `json:"order_number"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.GetUserOrders(ctx)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderDTO(o))
	}
	respondJSON(w, r, http.StatusOK, dtos)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, r, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	order, err := h.orders.GetOrderDetails(ctx, orderID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderDTO(order))
}

func (h *OrdersHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	case errors.Is(err, service.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", "order not found")
	default:
		logger.FromContext(r.Context()).Error("order query failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func toOrderDTO(o *domain.Order) OrderResponseDTO {
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return OrderResponseDTO{Order: o, OrderNumber: o.Number()}
}
