package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/identity"
	"github.com/patelashutosh/bloom-store/internal/repository"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

type OrderQueries struct {
	orders OrderStore
}

func NewOrderQueries(orders OrderStore) *OrderQueries {
	return &OrderQueries{orders: orders}
}

// GetOrderDetails answers ErrNotFound for missing orders, orders owned by
// someone else, malformed ids and store faults alike.
func (q *OrderQueries) GetOrderDetails(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := identity.FromContext(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrNotFound
	}

	order, err := q.orders.GetOrderForUser(ctx, oid, id.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrOrderNotFound) {
			logger.FromContext(ctx).Error("error fetching order details",
				zap.String("order_id", orderID), zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return order, nil
}

// GetUserOrders lists the caller's orders newest first. Store faults are
// logged and yield an empty list.
func (q *OrderQueries) GetUserOrders(ctx context.Context) ([]*domain.Order, error) {
	id, err := identity.FromContext(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	orders, err := q.orders.ListOrdersByUser(ctx, id.UserID)
	if err != nil {
		logger.FromContext(ctx).Error("error fetching user orders",
			zap.String("user_id", id.UserID), zap.Error(err))
		return []*domain.Order{}, nil
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}
