package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/patelashutosh/bloom-store/internal/catalog"
	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/payment"
	"github.com/patelashutosh/bloom-store/internal/repository"
)

// MockOrderStore is an in-memory OrderStore that records every call.
type MockOrderStore struct {
	m sync.Mutex

	Orders      map[uuid.UUID]*domain.Order
	Events      []*repository.OutboxEvent
	CreateCalls int

	CreateErr     error
	TransitionErr error
	FindErr       error
	GetErr        error
	ListErr       error
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{Orders: map[uuid.UUID]*domain.Order{}}
}

func (m *MockOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, o := range m.Orders {
		if order.IdempotencyKey != "" && o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
			return repository.ErrDuplicateIdempotencyKey
		}
	}
	stored := *order
	m.Orders[order.ID] = &stored
	return nil
}

func (m *MockOrderStore) TransitionOrderStatus(_ context.Context, id uuid.UUID, from, to domain.OrderStatus, event *repository.OutboxEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.TransitionErr != nil {
		return m.TransitionErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Status != from || !domain.CanTransitionTo(from, to) {
		return domain.ErrIllegalTransition
	}
	o.Status = to
	if event != nil {
		m.Events = append(m.Events, event)
	}
	return nil
}

func (m *MockOrderStore) FindOrderIDByIdempotencyKey(_ context.Context, userID, key string) (uuid.UUID, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.FindErr != nil {
		return uuid.Nil, m.FindErr
	}
	for _, o := range m.Orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o.ID, nil
		}
	}
	return uuid.Nil, repository.ErrOrderNotFound
}

func (m *MockOrderStore) GetOrderForUser(_ context.Context, id uuid.UUID, userID string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	o, ok := m.Orders[id]
	if !ok || o.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderStore) ListOrdersByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Order
	for _, o := range m.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	// newest first
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.After(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (m *MockOrderStore) only() *domain.Order {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.Orders {
		return o
	}
	return nil
}

// MockGateway approves or declines every charge and counts calls.
type MockGateway struct {
	Approve bool
	Err     error
	Calls   int
	Last    payment.ChargeRequest
}

func (m *MockGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	m.Calls++
	m.Last = req
	if m.Err != nil {
		return nil, m.Err
	}
	if !m.Approve {
		return &payment.ChargeResult{Approved: false, DeclineReason: "insufficient funds"}, nil
	}
	return &payment.ChargeResult{Approved: true, TransactionID: "TXN-test"}, nil
}

// MockPriceSource serves products from a map.
type MockPriceSource struct {
	Products map[string]*domain.Product
	Err      error
}

func (m *MockPriceSource) GetProduct(_ context.Context, ref string) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[ref]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}
