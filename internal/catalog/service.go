// Package catalog serves the flower catalog from SQLite behind a Redis
// read-through cache.
package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/patelashutosh/bloom-store/internal/domain"
)

type Store interface {
	ListProducts(ctx context.Context, f Filter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, ref string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type Service struct {
	store Store
	cache Cache
	log   *zap.Logger
	sfg   singleflight.Group
}

// NewService accepts a nil cache, in which case every read hits the store.
func NewService(store Store, cache Cache, log *zap.Logger) *Service {
	return &Service{store: store, cache: cache, log: log}
}

func (s *Service) ListProducts(ctx context.Context, f Filter) ([]*domain.Product, error) {
	return readThrough(ctx, s, "products:"+f.key(), func(ctx context.Context) ([]*domain.Product, error) {
		return s.store.ListProducts(ctx, f)
	})
}

// GetProduct returns ErrProductNotFound for unknown refs. Misses are not
// cached.
func (s *Service) GetProduct(ctx context.Context, ref string) (*domain.Product, error) {
	return readThrough(ctx, s, "product:"+ref, func(ctx context.Context) (*domain.Product, error) {
		return s.store.GetProduct(ctx, ref)
	})
}

func (s *Service) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return readThrough(ctx, s, "categories", func(ctx context.Context) ([]*domain.Category, error) {
		return s.store.ListCategories(ctx)
	})
}

func readThrough[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	v, err, _ := s.sfg.Do(key, func() (any, error) {
		var cached T
		if s.cache != nil {
			err := s.cache.Get(ctx, key, &cached)
			if err == nil {
				return cached, nil
			}
			if !errors.Is(err, ErrCacheMiss) {
				s.log.Warn("catalog cache get failed", zap.String("key", key), zap.Error(err))
			}
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := s.cache.Set(ctx, key, value); err != nil {
					s.log.Warn("catalog cache set failed", zap.String("key", key), zap.Error(err))
				}
			}()
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
