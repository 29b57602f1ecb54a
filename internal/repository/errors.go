package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

// mapError marks driver errors worth retrying with domain.ErrTransientStore.
// The driver error stays in the chain so WithTransaction can still read its labels.
func mapError(err error) error {
	if err == nil || errors.Is(err, domain.ErrTransientStore) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %w", domain.ErrTransientStore, err)
	}
	return err
}

func isTransient(err error) bool {
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) &&
		(labeled.HasErrorLabel(labelTransientTransaction) || labeled.HasErrorLabel(labelUnknownCommitResult)) {
		return true
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

func wrap(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, mapError(err))
}
