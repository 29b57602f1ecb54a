package service

import (
	"context"
	"errors"
	"time"

	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	maxTransientRetries = 3
	retryInitialDelay   = 50 * time.Millisecond
	retryMaxDelay       = 500 * time.Millisecond
)

// retryTransient re-runs op while it fails with d.ErrTransientStore.
// Any other error, or a done context, ends the loop.
func retryTransient(ctx context.Context, logger *zap.Logger, operation string, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialDelay
	policy.MaxInterval = retryMaxDelay

	return backoff.RetryNotify(func() error {
		err := op()
		if err == nil || errors.Is(err, d.ErrTransientStore) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, maxTransientRetries), ctx),
		func(err error, wait time.Duration) {
			logger.Warn("transient store failure, retrying",
				zap.String("operation", operation),
				zap.Duration("backoff", wait),
				zap.Error(err))
		})
}

func userLockKey(userID string) string {
	return "user:" + userID
}
