package service

import (
	"context"
	"strings"
	"time"

	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"github.com/google/uuid"
)

type ReviewSummary struct {
	ProductID     string      `json:"productId"`
	AverageRating float64     `json:"averageRating"`
	NumOfReviews  int         `json:"numOfReviews"`
	Reviews       []*d.Review `json:"reviews"`
}

type ReviewService struct {
	products productReader
	reviews  store.ReviewStore
	now      func() time.Time
}

func NewReviewService(products productReader, reviews store.ReviewStore) *ReviewService {
	return &ReviewService{products: products, reviews: reviews, now: time.Now}
}

// Add stores one review per user and product and updates the product's rating.
func (s *ReviewService) Add(ctx context.Context, userID, productID string, rating int, comment string) (*d.Review, error) {
	if userID == "" || productID == "" {
		return nil, d.InvalidInput("user id and product id are required")
	}
	if rating < d.MinRating || rating > d.MaxRating {
		return nil, d.InvalidInput("rating must be between %d and %d", d.MinRating, d.MaxRating)
	}

	review := &d.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.now(),
	}
	if err := s.reviews.AddReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, productID string) (*ReviewSummary, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListReviews(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ReviewSummary{
		ProductID:     productID,
		AverageRating: product.AverageRating(),
		NumOfReviews:  product.NumReviews,
		Reviews:       reviews,
	}, nil
}
