package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/cache"
	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/lock"
	"github.com/28Syed/Greencart-ecommerce/internal/payment"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutConfig struct {
	Currency string
	// MinorUnits converts an amount into the gateway's smallest unit (paise for INR).
	MinorUnits int64
	// KeyID is the public gateway key handed to the client checkout.
	KeyID string
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{Currency: "INR", MinorUnits: 100}
}

type OrderService struct {
	store   store.Store
	cache   cache.CartCache
	locker  lock.Locker
	gateway payment.Gateway
	cfg     CheckoutConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewOrderService(st store.Store, c cache.CartCache, locker lock.Locker, gateway payment.Gateway, cfg CheckoutConfig, logger *zap.Logger) *OrderService {
	if cfg.MinorUnits <= 0 {
		cfg.MinorUnits = 100
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &OrderService{
		store:   st,
		cache:   c,
		locker:  locker,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// PlaceCOD validates every item, then in one commit moves the cart's claims to
// the order, clears the cart and stores the order unpaid with payment type COD.
func (s *OrderService) PlaceCOD(ctx context.Context, userID string, items []d.LineItem, addressID string) (*d.Order, error) {
	items, err := validateOrderRequest(userID, items, addressID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	defer unlock()

	var order *d.Order
	err = retryTransient(ctx, s.logger, "place cod order", func() error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if _, err := tx.GetAddress(ctx, addressID, userID); err != nil {
				return err
			}
			cart, err := tx.GetCart(ctx, userID)
			if err != nil {
				return err
			}
			amount, err := quote(ctx, tx, items, cart)
			if err != nil {
				return err
			}

			if err := checkoutCart(ctx, tx, s.logger, userID, cart, items); err != nil {
				return err
			}

			now := s.now()
			order = &d.Order{
				ID:          uuid.New().String(),
				UserID:      userID,
				Items:       items,
				Amount:      amount,
				AddressID:   addressID,
				PaymentType: d.PaymentCOD,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.CreateOrder(ctx, order); err != nil {
				return err
			}
			event, err := d.NewOrderEvent(d.EventOrderPlaced, order, now)
			if err != nil {
				return err
			}
			return tx.AppendOutbox(ctx, event)
		})
	})
	if err != nil {
		s.logger.Info("cod order rejected", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	invalidateCart(s.cache, s.logger, userID)
	s.logger.Info("cod order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int64("amount", order.Amount))
	return order, nil
}

// CreatePendingOrder prices and validates the order, asks the gateway for a
// payment intent and only then stores the unpaid order with its pending payment
// record. Stock and cart stay untouched until the payment is confirmed.
// A non-zero clientAmount must equal the computed total.
func (s *OrderService) CreatePendingOrder(ctx context.Context, userID string, items []d.LineItem, addressID string, clientAmount int64) (*d.PendingCheckout, error) {
	items, err := validateOrderRequest(userID, items, addressID)
	if err != nil {
		return nil, err
	}
	if clientAmount < 0 {
		return nil, d.InvalidInput("amount must not be negative")
	}

	var amount int64
	err = retryTransient(ctx, s.logger, "quote online order", func() error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			amount, err = s.quoteFor(ctx, tx, userID, items, addressID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if clientAmount != 0 && clientAmount != amount {
		return nil, d.InvalidInput("amount %d does not match order total %d", clientAmount, amount)
	}
	if amount > math.MaxInt64/s.cfg.MinorUnits {
		return nil, d.InvalidInput("order total %d too large for the payment gateway", amount)
	}

	orderID := uuid.New().String()
	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		Amount:   amount * s.cfg.MinorUnits,
		Currency: s.cfg.Currency,
		Receipt:  orderID,
	})
	if err != nil {
		return nil, err
	}

	err = retryTransient(ctx, s.logger, "create pending order", func() error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			// Stock or prices may have moved while the gateway was called
			current, err := s.quoteFor(ctx, tx, userID, items, addressID)
			if err != nil {
				return err
			}
			if current != amount {
				return d.InvalidInput("order total changed from %d to %d, please retry", amount, current)
			}

			now := s.now()
			order := &d.Order{
				ID:          orderID,
				UserID:      userID,
				Items:       items,
				Amount:      amount,
				AddressID:   addressID,
				PaymentType: d.PaymentOnline,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.CreateOrder(ctx, order); err != nil {
				return err
			}
			return tx.CreatePendingPayment(ctx, &d.PendingPayment{
				GatewayOrderID: intent.ID,
				OrderID:        orderID,
				UserID:         userID,
				Items:          items,
				Amount:         amount,
				AddressID:      addressID,
				CreatedAt:      now,
			})
		})
	})
	if err != nil {
		// The gateway order is never paid and expires on the gateway side
		s.logger.Warn("pending order not stored after gateway intent",
			zap.String("order_id", orderID),
			zap.String("gateway_order_id", intent.ID),
			zap.Error(err))
		return nil, err
	}

	currency := intent.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	s.logger.Info("pending online order created",
		zap.String("order_id", orderID),
		zap.String("gateway_order_id", intent.ID),
		zap.String("user_id", userID),
		zap.Int64("amount", amount))

	return &d.PendingCheckout{
		OrderID:        orderID,
		GatewayOrderID: intent.ID,
		Amount:         amount,
		GatewayAmount:  amount * s.cfg.MinorUnits,
		Currency:       currency,
		KeyID:          s.cfg.KeyID,
	}, nil
}

func (s *OrderService) quoteFor(ctx context.Context, tx store.Tx, userID string, items []d.LineItem, addressID string) (int64, error) {
	if _, err := tx.GetAddress(ctx, addressID, userID); err != nil {
		return 0, err
	}
	cart, err := tx.GetCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	return quote(ctx, tx, items, cart)
}

// ListUserOrders returns the user's COD and paid orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]*d.Order, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return visibleOrders(orders), nil
}

// ListAllOrders is the seller view over every user's COD and paid orders.
func (s *OrderService) ListAllOrders(ctx context.Context) ([]*d.Order, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return visibleOrders(orders), nil
}

func visibleOrders(orders []*d.Order) []*d.Order {
	visible := make([]*d.Order, 0, len(orders))
	for _, o := range orders {
		if o.Visible() {
			visible = append(visible, o)
		}
	}
	return visible
}

func validateOrderRequest(userID string, items []d.LineItem, addressID string) ([]d.LineItem, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}
	if addressID == "" {
		return nil, d.InvalidInput("address is required")
	}
	return d.MergeLineItems(items)
}
