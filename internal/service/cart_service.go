package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/cache"
	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/lock"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	store  store.Store
	cache  cache.CartCache
	locker lock.Locker
	logger *zap.Logger
	sfg    singleflight.Group // Prevents cache stampede
}

func NewCartService(st store.Store, c cache.CartCache, locker lock.Locker, logger *zap.Logger) *CartService {
	return &CartService{
		store:  st,
		cache:  c,
		locker: locker,
		logger: logger,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (d.CartSnapshot, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		cart, err = s.store.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		go func(cart d.CartSnapshot) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(ctx, userID, cart); err != nil {
				s.logger.Warn("cache set error", zap.String("user_id", userID), zap.Error(err))
			}
		}(cart.Clone())

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a flight must not share the map
	return v.(d.CartSnapshot).Clone(), nil
}

// Reconcile replaces the user's cart with requested, claiming and releasing
// stock for the difference. Either every adjustment and the new cart commit, or nothing does.
func (s *CartService) Reconcile(ctx context.Context, userID string, requested d.CartSnapshot) (d.CartSnapshot, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}
	requested, err := requested.Normalize()
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	defer unlock()

	var deltas []d.CartDelta
	err = retryTransient(ctx, s.logger, "reconcile cart", func() error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			deltas, err = reconcile(ctx, tx, userID, requested)
			return err
		})
	})
	if err != nil {
		s.logger.Info("cart update rejected", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.invalidateCache(userID)
	s.logger.Debug("cart updated",
		zap.String("user_id", userID),
		zap.Int("products", len(requested)),
		zap.Int("adjustments", countChanges(deltas)))
	return requested, nil
}

func reconcile(ctx context.Context, tx store.Tx, userID string, requested d.CartSnapshot) ([]d.CartDelta, error) {
	previous, err := tx.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	deltas := d.Diff(previous, requested)

	// First pass: every product must exist and every claim must fit
	for _, delta := range deltas {
		product, err := tx.GetProduct(ctx, delta.ProductID)
		if err != nil {
			return nil, err
		}
		if delta.IsClaim() && product.Stock < delta.Change {
			return nil, &d.InsufficientStockError{
				ProductID: delta.ProductID,
				Available: product.Stock,
				Requested: delta.Change,
			}
		}
	}

	// Second pass: releases, then claims
	for _, delta := range deltas {
		if delta.IsRelease() {
			if err := tx.AdjustStock(ctx, delta.ProductID, -delta.Change); err != nil {
				return nil, err
			}
		}
	}
	for _, delta := range deltas {
		if delta.IsClaim() {
			if err := tx.AdjustStock(ctx, delta.ProductID, -delta.Change); err != nil {
				return nil, err
			}
		}
	}

	return deltas, tx.SaveCart(ctx, userID, requested)
}

func countChanges(deltas []d.CartDelta) int {
	n := 0
	for _, delta := range deltas {
		if delta.Change != 0 {
			n++
		}
	}
	return n
}

func (s *CartService) invalidateCache(userID string) {
	invalidateCart(s.cache, s.logger, userID)
}

func invalidateCart(c cache.CartCache, logger *zap.Logger, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Delete(ctx, userID); err != nil {
		logger.Warn("cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}
