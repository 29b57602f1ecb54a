package http

import (
	"context"
	"net/http"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WishlistService interface {
	Add(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
	Remove(ctx context.Context, userID, productID string) (*domain.Wishlist, error)
	Products(ctx context.Context, userID string) ([]*domain.Product, error)
}

type ReviewService interface {
	Add(ctx context.Context, userID, productID string, rating int, comment string) (*domain.Review, error)
	List(ctx context.Context, productID string) (*service.ReviewSummary, error)
}

// EngagementHandler serves wishlists and reviews.
type EngagementHandler struct {
	wishlists WishlistService
	reviews   ReviewService
	timeout   time.Duration
	logger    *zap.Logger
}

func NewEngagementHandler(wishlists WishlistService, reviews ReviewService, timeout time.Duration, logger *zap.Logger) *EngagementHandler {
	return &EngagementHandler{wishlists: wishlists, reviews: reviews, timeout: timeout, logger: logger}
}

type AddReviewRequestDTO struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

func (h *EngagementHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	wishlist, err := h.wishlists.Add(ctx, uid, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlist)
}

func (h *EngagementHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	wishlist, err := h.wishlists.Remove(ctx, uid, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlist)
}

func (h *EngagementHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	products, err := h.wishlists.Products(ctx, uid)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, viewProduct(p))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *EngagementHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req AddReviewRequestDTO
	if !decodeRequest(w, r, &req) {
		return
	}

	review, err := h.reviews.Add(ctx, uid, chi.URLParam(r, "productId"), req.Rating, req.Comment)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

func (h *EngagementHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.reviews.List(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
