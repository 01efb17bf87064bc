// Package grpc serves order queries to internal callers over gRPC.
package grpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/service"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

type OrderReader interface {
	GetOrderDetails(ctx context.Context, orderID string) (*domain.Order, error)
	GetUserOrders(ctx context.Context) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders OrderReader
}

func NewOrdersHandler(orders OrderReader) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

func (h *OrdersHandler) GetOrder(ctx context.Context, req *GetOrderRequest) (*GetOrderResponse, error) {
	if req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}

	order, err := h.orders.GetOrderDetails(ctx, req.OrderID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &GetOrderResponse{Order: order}, nil
}

func (h *OrdersHandler) ListOrders(ctx context.Context, _ *ListOrdersRequest) (*ListOrdersResponse, error) {
	orders, err := h.orders.GetUserOrders(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return &ListOrdersResponse{Orders: orders}, nil
}

func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "order not found")
	default:
		logger.FromContext(ctx).Error("order query failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
