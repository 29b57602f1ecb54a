package http

import (
	"context"
	"net/http"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"go.uber.org/zap"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.CartSnapshot, error)
	Reconcile(ctx context.Context, userID string, requested domain.CartSnapshot) (domain.CartSnapshot, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(carts CartService, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, timeout: timeout, logger: logger}
}

type UpdateCartRequestDTO struct {
	CartItems []domain.CartItem `json:"cartItems" validate:"dive"`
}

type CartResponseDTO struct {
	CartItems []domain.CartItem `json:"cartItems"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, uid)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, CartResponseDTO{CartItems: cart.Items()})
}

// UpdateCart replaces the whole cart; items with quantity 0 are removed.
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req UpdateCartRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}
	requested, err := domain.SnapshotFromItems(req.CartItems)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	cart, err := h.carts.Reconcile(ctx, uid, requested)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, CartResponseDTO{CartItems: cart.Items()})
}
