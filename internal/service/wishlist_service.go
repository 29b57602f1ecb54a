package service

import (
	"context"
	"errors"

	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"go.uber.org/zap"
)

type productReader interface {
	GetProduct(ctx context.Context, productID string) (*d.Product, error)
}

type WishlistService struct {
	products  productReader
	wishlists store.WishlistStore
	logger    *zap.Logger
}

func NewWishlistService(products productReader, wishlists store.WishlistStore, logger *zap.Logger) *WishlistService {
	return &WishlistService{products: products, wishlists: wishlists, logger: logger}
}

func (s *WishlistService) Add(ctx context.Context, userID, productID string) (*d.Wishlist, error) {
	if userID == "" || productID == "" {
		return nil, d.InvalidInput("user id and product id are required")
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.wishlists.AddToWishlist(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.wishlists.GetWishlist(ctx, userID)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID string) (*d.Wishlist, error) {
	if userID == "" || productID == "" {
		return nil, d.InvalidInput("user id and product id are required")
	}
	if err := s.wishlists.RemoveFromWishlist(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.wishlists.GetWishlist(ctx, userID)
}

// Products returns the wishlisted products, skipping ones removed from the catalog.
func (s *WishlistService) Products(ctx context.Context, userID string) ([]*d.Product, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}
	wishlist, err := s.wishlists.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	products := make([]*d.Product, 0, len(wishlist.Products))
	for _, id := range wishlist.Products {
		p, err := s.products.GetProduct(ctx, id)
		if errors.Is(err, d.ErrProductNotFound) {
			s.logger.Debug("wishlisted product no longer exists", zap.String("product_id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}
