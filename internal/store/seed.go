package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
)

// DemoCatalog is the product set loaded into an empty store for local runs.
func DemoCatalog(now time.Time) []*domain.Product {
	return []*domain.Product{
		{ID: "potato-500g", Name: "Potato 500g", Category: "Vegetables", Description: []string{"Fresh and organic", "Rich in carbohydrates"}, Price: 25, OfferPrice: 20, Stock: 50, CreatedAt: now},
		{ID: "tomato-1kg", Name: "Tomato 1 kg", Category: "Vegetables", Description: []string{"Juicy and ripe", "Rich in Vitamin C"}, Price: 40, OfferPrice: 35, Stock: 40, CreatedAt: now},
		{ID: "apple-1kg", Name: "Apple 1 kg", Category: "Fruits", Description: []string{"Crisp and juicy"}, Price: 120, OfferPrice: 110, Stock: 30, CreatedAt: now},
		{ID: "amul-milk-1l", Name: "Amul Milk 1L", Category: "Dairy", Description: []string{"Pure and fresh"}, Price: 60, OfferPrice: 55, Stock: 25, CreatedAt: now},
		{ID: "brown-bread-400g", Name: "Brown Bread 400g", Category: "Bakery", Description: []string{"Soft and healthy"}, Price: 40, OfferPrice: 35, Stock: 20, CreatedAt: now},
		{ID: "basmati-rice-5kg", Name: "Basmati Rice 5kg", Category: "Grains", Description: []string{"Long grain and aromatic"}, Price: 550, OfferPrice: 520, Stock: 10, CreatedAt: now},
	}
}

// Seed inserts products that are not present yet.
func Seed(ctx context.Context, s Store, products []*domain.Product) error {
	for _, p := range products {
		_, err := s.GetProduct(ctx, p.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrProductNotFound) {
			return fmt.Errorf("failed to look up product %s: %w", p.ID, err)
		}
		if err := s.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}
