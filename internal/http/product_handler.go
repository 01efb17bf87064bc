package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/catalog"
	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

type CatalogReader interface {
	ListProducts(ctx context.Context, f catalog.Filter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, ref string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type ProductHandler struct {
	catalog CatalogReader
	timeout time.Duration
}

func NewProductHandler(c CatalogReader, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		timeout: timeout,
	}
}

// GET /api/v1/products?category=&featured=&occasion=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	filter := catalog.Filter{
		Category: q.Get("category"),
		Occasion: q.Get("occasion"),
	}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_featured", "featured must be true or false")
			return
		}
		filter.Featured = featured
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("error listing products", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}
	respondJSON(w, r, http.StatusOK, products)
}

// GET /api/v1/products/{ref}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ref := chi.URLParam(r, "ref")
	product, err := h.catalog.GetProduct(ctx, ref)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, r, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).Error("error fetching product", zap.String("ref", ref), zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	respondJSON(w, r, http.StatusOK, product)
}

// GET /api/v1/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("error listing categories", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	respondJSON(w, r, http.StatusOK, categories)
}
