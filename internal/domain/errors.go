package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidInput         = errors.New("invalid input")
	ErrVerificationFailed   = errors.New("payment verification failed")
	ErrPendingRecordMissing = errors.New("pending payment record missing")
	ErrTransientStore       = errors.New("transient store failure")

	ErrAddressNotFound     = errors.New("address not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderAlreadyPaid    = errors.New("order already paid")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrAlreadyInWishlist   = errors.New("product already in wishlist")
	ErrWishlistNotFound    = errors.New("wishlist not found")
	ErrAlreadyReviewed     = errors.New("product already reviewed by user")
	ErrChatSessionNotFound = errors.New("chat session not found")
)

// InsufficientStockError reports the first product whose claim could not be satisfied.
// It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidInput wraps ErrInvalidInput with a description of the offending field.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
