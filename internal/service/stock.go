package service

import (
	"context"
	"errors"
	"math"

	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"go.uber.org/zap"
)

// maxSubtotal leaves room for tax on top of the subtotal without overflowing.
const maxSubtotal = math.MaxInt64 / 2

// quote checks every item before anything is mutated and returns the taxed total.
// Units already claimed by the user's cart count as available to that user.
func quote(ctx context.Context, tx store.Tx, items []d.LineItem, cart d.CartSnapshot) (int64, error) {
	var subtotal int64
	for _, item := range items {
		product, err := tx.GetProduct(ctx, item.ProductID)
		if err != nil {
			return 0, err
		}
		available := product.Stock + cart[item.ProductID]
		if available < item.Quantity {
			return 0, &d.InsufficientStockError{
				ProductID: item.ProductID,
				Available: available,
				Requested: item.Quantity,
			}
		}
		qty := int64(item.Quantity)
		if product.OfferPrice > (maxSubtotal-subtotal)/qty {
			return 0, d.InvalidInput("order total too large")
		}
		subtotal += product.OfferPrice * qty
	}
	return d.ApplyTax(subtotal), nil
}

// checkoutCart hands the cart's claims over to an order: it releases what the
// cart holds, claims the order's items and empties the cart.
func checkoutCart(ctx context.Context, tx store.Tx, logger *zap.Logger, userID string, cart d.CartSnapshot, items []d.LineItem) error {
	for _, productID := range cart.ProductIDs() {
		err := tx.AdjustStock(ctx, productID, cart[productID])
		if errors.Is(err, d.ErrProductNotFound) {
			logger.Warn("cart references a product no longer in the catalog",
				zap.String("user_id", userID), zap.String("product_id", productID))
			continue
		}
		if err != nil {
			return err
		}
	}

	for _, item := range items {
		if err := tx.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			return err
		}
	}

	return tx.SaveCart(ctx, userID, d.CartSnapshot{})
}
