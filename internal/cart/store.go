// Package cart holds the shopping cart state container.
//
// A Store owns the item list of one cart session. Every mutation runs a pure
// reducer from reducer.go, recomputes totals and then calls the persist hook
// once with the new item list. Totals are never persisted; a rehydrated Store
// always recomputes them from the restored items.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/internal/pricing"
)

// PersistFunc receives the item list after each mutation.
type PersistFunc func(ctx context.Context, items []domain.CartItem) error

// State is the view returned by every Store operation.
type State struct {
	Items []domain.CartItem `json:"items"`
	pricing.Totals
}

type Store struct {
	mu      sync.Mutex
	items   []domain.CartItem
	totals  pricing.Totals
	persist PersistFunc
}

// NewStore returns an empty cart. persist may be nil.
func NewStore(persist PersistFunc) *Store {
	return Rehydrate(nil, persist)
}

// Rehydrate builds a Store from a restored item list. The list is normalized
// and totals are recomputed; persist is not called.
func Rehydrate(items []domain.CartItem, persist PersistFunc) *Store {
	restored := Normalize(items)
	return &Store{
		items:   restored,
		totals:  pricing.Calculate(restored),
		persist: persist,
	}
}

func (s *Store) AddItem(ctx context.Context, item domain.CartItem) (State, error) {
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		return Add(items, item)
	})
}

// AddQuantity adds n units of item as a single mutation.
func (s *Store) AddQuantity(ctx context.Context, item domain.CartItem, n int) (State, error) {
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		return AddN(items, item, n)
	})
}

func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) (State, error) {
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		return SetQuantity(items, id, quantity)
	})
}

func (s *Store) RemoveItem(ctx context.Context, id string) (State, error) {
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		return Remove(items, id)
	})
}

func (s *Store) ClearCart(ctx context.Context) (State, error) {
	return s.mutate(ctx, Clear)
}

func (s *Store) GetItem(id string) (domain.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.CartItem{}, false
}

func (s *Store) IsInCart(id string) bool {
	_, ok := s.GetItem(id)
	return ok
}

// ItemCount is the badge number: the sum of quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals.ItemCount
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Items returns a copy of the current lines.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items)
}

// mutate applies the reducer and persists while holding the lock so snapshot
// writes happen in mutation order. On a persist failure the in-memory state
// keeps the mutation and the error is returned with it.
func (s *Store) mutate(ctx context.Context, reduce func([]domain.CartItem) []domain.CartItem) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = reduce(s.items)
	s.totals = pricing.Calculate(s.items)
	state := s.stateLocked()

	if s.persist == nil {
		return state, nil
	}
	if err := s.persist(ctx, clone(s.items)); err != nil {
		return state, fmt.Errorf("persist cart: %w", err)
	}
	return state, nil
}

func (s *Store) stateLocked() State {
	return State{Items: clone(s.items), Totals: s.totals}
}
