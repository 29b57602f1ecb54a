package cache

import (
	"context"
	"errors"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (domain.CartSnapshot, error)
	Set(ctx context.Context, userID string, cart domain.CartSnapshot) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no Redis is configured; every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (domain.CartSnapshot, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, string, domain.CartSnapshot) error   { return nil }
func (Noop) Delete(context.Context, string) error                     { return nil }
