package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aamersadiq/cart-pricing/internal/catalog"
	"github.com/aamersadiq/cart-pricing/internal/coupon"
	"github.com/aamersadiq/cart-pricing/internal/domain"
	"github.com/aamersadiq/cart-pricing/internal/pricing"
)

// CartOps is the slice of the cart service the handler uses.
type CartOps interface {
	GetCart(ctx context.Context, owner domain.Actor) (*domain.Cart, error)
	AddItem(ctx context.Context, owner domain.Actor, productID, variantID string, quantity int) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, owner domain.Actor, productID, variantID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner domain.Actor, productID, variantID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, owner domain.Actor) (*domain.Cart, error)
	ApplyCoupon(ctx context.Context, owner domain.Actor, code string) (*domain.Cart, error)
	RemoveCoupon(ctx context.Context, owner domain.Actor) (*domain.Cart, error)
}

type CartHandler struct {
	ops     CartOps
	timeout time.Duration
}

func NewCartHandler(ops CartOps, timeout time.Duration) *CartHandler {
	return &CartHandler{ops: ops, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing actor identity")
		return
	}

	cart, err := h.ops.GetCart(ctx, owner)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing actor identity")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	cart, err := h.ops.AddItem(ctx, owner, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing actor identity")
		return
	}

	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.ops.UpdateItemQuantity(ctx, owner, productID, req.VariantID, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing actor identity")
		return
	}

	productID := chi.URLParam(r, "product_id")
	variantID := r.URL.Query().Get("variant")

	cart, err := h.ops.RemoveItem(ctx, owner, productID, variantID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing actor identity")
		return
	}

	cart, err := h.ops.ClearCart(ctx, owner)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing actor identity")
		return
	}

	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_coupon_code", "code is required")
		return
	}

	cart, err := h.ops.ApplyCoupon(ctx, owner, req.Code)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing actor identity")
		return
	}

	cart, err := h.ops.RemoveCoupon(ctx, owner)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleServiceError maps the engine's error taxonomy onto HTTP statuses.
// Validation failures are 400s, missing things are 404s, and coupon rule
// violations are 422s: the request was well-formed but the business rule says
// no.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
	case errors.Is(err, pricing.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", "item is not in the cart")
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "unknown product or variant")
	case errors.Is(err, coupon.ErrNotFound):
		respondError(w, http.StatusNotFound, "coupon_not_found", "unknown coupon code")
	case errors.Is(err, pricing.ErrCouponExpired):
		respondError(w, http.StatusUnprocessableEntity, "coupon_expired", "coupon is not redeemable")
	case errors.Is(err, coupon.ErrLimitReached):
		respondError(w, http.StatusUnprocessableEntity, "coupon_limit_reached", "coupon usage limit reached")
	case errors.Is(err, pricing.ErrMinimumPurchaseNotMet):
		respondError(w, http.StatusUnprocessableEntity, "minimum_purchase_not_met", "cart subtotal below coupon minimum")
	case errors.Is(err, domain.ErrNoOwner):
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing actor identity")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
