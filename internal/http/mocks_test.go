package http

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/patelashutosh/bloom-store/internal/cart"
	"github.com/patelashutosh/bloom-store/internal/catalog"
	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/identity"
	"github.com/patelashutosh/bloom-store/internal/service"
)

// --- snapshots ---

type MockSnapshots struct {
	m       sync.Mutex
	data    map[string][]byte
	loadErr error
}

func NewMockSnapshots() *MockSnapshots {
	return &MockSnapshots{data: make(map[string][]byte)}
}

func (s *MockSnapshots) Load(_ context.Context, key string) ([]byte, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, cart.ErrSnapshotNotFound
	}
	return data, nil
}

func (s *MockSnapshots) Save(_ context.Context, key string, data []byte) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.data[key] = data
	return nil
}

func (s *MockSnapshots) items(session string) []domain.CartItem {
	s.m.Lock()
	defer s.m.Unlock()
	data, ok := s.data[cart.SnapshotKey(session)]
	if !ok {
		return nil
	}
	items, _ := cart.DecodeSnapshot(data)
	return items
}

// --- catalog ---

type MockCatalog struct {
	products   []*domain.Product
	categories []*domain.Category
	lastFilter catalog.Filter
	err        error
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		products: []*domain.Product{
			{ID: "prd_01", Slug: "red-roses", Name: "Red Roses", Price: decimal.RequireFromString("49.99"), CategorySlug: "roses"},
			{ID: "prd_02", Slug: "white-lilies", Name: "White Lilies", Price: decimal.RequireFromString("350"), CategorySlug: "lilies"},
		},
		categories: []*domain.Category{{Slug: "roses", Name: "Roses"}},
	}
}

func (c *MockCatalog) ListProducts(_ context.Context, f catalog.Filter) ([]*domain.Product, error) {
	c.lastFilter = f
	if c.err != nil {
		return nil, c.err
	}
	return c.products, nil
}

func (c *MockCatalog) GetProduct(_ context.Context, ref string) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, p := range c.products {
		if p.ID == ref || p.Slug == ref {
			return p, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

func (c *MockCatalog) ListCategories(context.Context) ([]*domain.Category, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.categories, nil
}

// --- checkout ---

type MockCheckouter struct {
	result   service.CheckoutResult
	requests []service.CheckoutRequest
}

func (c *MockCheckouter) Checkout(_ context.Context, req service.CheckoutRequest) service.CheckoutResult {
	c.requests = append(c.requests, req)
	return c.result
}

// --- orders ---

type MockOrderReader struct {
	order   *domain.Order
	orders  []*domain.Order
	err     error
	callers []string
}

func (m *MockOrderReader) GetOrderDetails(ctx context.Context, _ string) (*domain.Order, error) {
	m.record(ctx)
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *MockOrderReader) GetUserOrders(ctx context.Context) ([]*domain.Order, error) {
	m.record(ctx)
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *MockOrderReader) record(ctx context.Context) {
	if id, err := identity.FromContext(ctx); err == nil {
		m.callers = append(m.callers, id.UserID)
	}
}
