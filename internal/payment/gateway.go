package payment

import (
	"context"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
)

type IntentRequest struct {
	// Amount is in the currency's minor unit.
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway creates a payment intent the client completes with the provider.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*domain.PaymentIntent, error)
}
