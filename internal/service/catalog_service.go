package service

import (
	"context"
	"strings"
	"time"

	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewCatalogService(st store.Store, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: st, logger: logger, now: time.Now}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*d.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*d.Product, error) {
	if productID == "" {
		return nil, d.InvalidInput("product id is required")
	}
	return s.store.GetProduct(ctx, productID)
}

func (s *CatalogService) AddProduct(ctx context.Context, product *d.Product) (*d.Product, error) {
	p := product.Clone()
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.RatingTotal = 0
	p.NumReviews = 0
	p.CreatedAt = s.now()

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product added", zap.String("product_id", p.ID), zap.Int("stock", p.Stock))
	return p, nil
}

func (s *CatalogService) AddAddress(ctx context.Context, userID string, address *d.Address) (*d.Address, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}
	a := *address
	a.ID = uuid.New().String()
	a.UserID = userID
	if err := s.store.CreateAddress(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *CatalogService) ListAddresses(ctx context.Context, userID string) ([]*d.Address, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}
	return s.store.ListAddresses(ctx, userID)
}

// UpdateAddress replaces every field of one of the user's addresses.
// Orders keep the address id they were placed with.
func (s *CatalogService) UpdateAddress(ctx context.Context, userID, addressID string, address *d.Address) (*d.Address, error) {
	if userID == "" || addressID == "" {
		return nil, d.InvalidInput("user id and address id are required")
	}
	a := *address
	a.ID = addressID
	a.UserID = userID
	if err := s.store.UpdateAddress(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *CatalogService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	if userID == "" || addressID == "" {
		return d.InvalidInput("user id and address id are required")
	}
	if err := s.store.DeleteAddress(ctx, addressID, userID); err != nil {
		return err
	}
	s.logger.Info("address deleted", zap.String("user_id", userID), zap.String("address_id", addressID))
	return nil
}
