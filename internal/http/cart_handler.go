package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/cart"
	"github.com/patelashutosh/bloom-store/internal/catalog"
	"github.com/patelashutosh/bloom-store/internal/domain"
	"github.com/patelashutosh/bloom-store/pkg/logger"
)

const maxLineQuantity = 99

// ProductLookup resolves a product by id or slug.
type ProductLookup interface {
	GetProduct(ctx context.Context, ref string) (*domain.Product, error)
}

type CartHandler struct {
	snapshots cart.SnapshotStore
	products  ProductLookup
	timeout   time.Duration
}

func NewCartHandler(snapshots cart.SnapshotStore, products ProductLookup, timeout time.Duration) *CartHandler {
	return &CartHandler{
		snapshots: snapshots,
		products:  products,
		timeout:   timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.open(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, store.State())
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.products.GetProduct(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, r, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	if err != nil {
		logger.FromContext(ctx).Error("error looking up product", zap.String("product_id", req.ProductID), zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	store, ok := h.open(ctx, w, r)
	if !ok {
		return
	}

	if line, _ := store.GetItem(product.ID); line.Quantity+req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity",
			fmt.Sprintf("cart already holds %d; a line may hold at most %d", line.Quantity, maxLineQuantity))
		return
	}

	state, err := store.AddQuantity(ctx, product.CartItem(), req.Quantity)
	h.logPersistError(ctx, err)

	respondJSON(w, r, http.StatusCreated, state)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	store, ok := h.open(ctx, w, r)
	if !ok {
		return
	}
	state, err := store.UpdateQuantity(ctx, productID, req.Quantity)
	h.logPersistError(ctx, err)

	respondJSON(w, r, http.StatusOK, state)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.open(ctx, w, r)
	if !ok {
		return
	}
	state, err := store.RemoveItem(ctx, chi.URLParam(r, "product_id"))
	h.logPersistError(ctx, err)

	respondJSON(w, r, http.StatusOK, state)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.open(ctx, w, r)
	if !ok {
		return
	}
	state, err := store.ClearCart(ctx)
	h.logPersistError(ctx, err)

	respondJSON(w, r, http.StatusOK, state)
}

func (h *CartHandler) open(ctx context.Context, w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	session := cartSession(r.Context())
	if session == "" {
		respondError(w, r, http.StatusBadRequest, "missing_cart_session", "cart session is required")
		return nil, false
	}

	store, err := cart.Open(ctx, h.snapshots, session)
	if err != nil {
		logger.FromContext(ctx).Error("error opening cart", zap.String("session", session), zap.Error(err))
		respondError(w, r, http.StatusServiceUnavailable, "cart_unavailable", "cart is temporarily unavailable")
		return nil, false
	}
	return store, true
}

// A failed snapshot write keeps the in-memory result; the response still
// reflects the mutation.
func (h *CartHandler) logPersistError(ctx context.Context, err error) {
	if err != nil {
		logger.FromContext(ctx).Warn("cart snapshot not saved", zap.Error(err))
	}
}
