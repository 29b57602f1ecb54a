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
)

type SignatureVerifier interface {
	Verify(gatewayOrderID, paymentID, signature string) bool
}

type ConfirmRequest struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	// OrderID is the client's idea of the internal order; the pending record is authoritative.
	OrderID string
}

type PaymentService struct {
	store    store.Store
	cache    cache.CartCache
	locker   lock.Locker
	verifier SignatureVerifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewPaymentService(st store.Store, c cache.CartCache, locker lock.Locker, verifier SignatureVerifier, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		store:    st,
		cache:    c,
		locker:   locker,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Confirm finishes an online order once the gateway callback checks out.
// A bad signature discards the pending order and returns d.ErrVerificationFailed.
// A valid one claims the recorded items, marks the order paid, clears the cart
// and consumes the pending record, so a repeated call fails with d.ErrPendingRecordMissing.
func (s *PaymentService) Confirm(ctx context.Context, userID string, req ConfirmRequest) (*d.Order, error) {
	if userID == "" {
		return nil, d.InvalidInput("user id is required")
	}
	if req.GatewayOrderID == "" || req.PaymentID == "" {
		return nil, d.InvalidInput("gateway order id and payment id are required")
	}

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	defer unlock()

	if !s.verifier.Verify(req.GatewayOrderID, req.PaymentID, req.Signature) {
		return nil, s.rejectPayment(ctx, userID, req)
	}

	var paid *d.Order
	err = retryTransient(ctx, s.logger, "confirm payment", func() error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			paid, err = s.completePayment(ctx, tx, userID, req)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, d.ErrInsufficientStock) {
			// The customer has paid but the goods are gone; the pending record is kept for a refund or retry
			s.logger.Error("paid order could not be fulfilled",
				zap.String("user_id", userID),
				zap.String("gateway_order_id", req.GatewayOrderID),
				zap.String("payment_id", req.PaymentID),
				zap.Error(err))
		} else {
			s.logger.Info("payment confirmation rejected",
				zap.String("user_id", userID),
				zap.String("gateway_order_id", req.GatewayOrderID),
				zap.Error(err))
		}
		return nil, err
	}

	invalidateCart(s.cache, s.logger, userID)
	s.logger.Info("online order paid",
		zap.String("order_id", paid.ID),
		zap.String("gateway_order_id", req.GatewayOrderID),
		zap.String("user_id", userID))
	return paid, nil
}

func (s *PaymentService) completePayment(ctx context.Context, tx store.Tx, userID string, req ConfirmRequest) (*d.Order, error) {
	pending, err := tx.GetPendingPayment(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if pending.UserID != userID {
		return nil, d.ErrPendingRecordMissing
	}
	if req.OrderID != "" && req.OrderID != pending.OrderID {
		return nil, d.InvalidInput("order %s does not belong to gateway order %s", req.OrderID, req.GatewayOrderID)
	}

	order, err := tx.GetOrder(ctx, pending.OrderID)
	if err != nil {
		return nil, err
	}
	cart, err := tx.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := checkoutCart(ctx, tx, s.logger, userID, cart, pending.Items); err != nil {
		return nil, err
	}

	now := s.now()
	ref := d.GatewayReference{OrderID: req.GatewayOrderID, PaymentID: req.PaymentID}
	if err := tx.MarkOrderPaid(ctx, order.ID, ref, now); err != nil {
		return nil, err
	}
	if err := tx.DeletePendingPayment(ctx, req.GatewayOrderID); err != nil {
		return nil, err
	}

	order.IsPaid = true
	order.GatewayOrderID = ref.OrderID
	order.GatewayPaymentID = ref.PaymentID
	order.UpdatedAt = now
	event, err := d.NewOrderEvent(d.EventOrderPaid, order, now)
	if err != nil {
		return nil, err
	}
	if err := tx.AppendOutbox(ctx, event); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PaymentService) rejectPayment(ctx context.Context, userID string, req ConfirmRequest) error {
	err := retryTransient(ctx, s.logger, "discard pending order", func() error {
		return s.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return discardPending(ctx, tx, userID, req)
		})
	})
	s.logger.Warn("payment signature verification failed",
		zap.String("user_id", userID),
		zap.String("gateway_order_id", req.GatewayOrderID),
		zap.String("order_id", req.OrderID))
	if err != nil {
		s.logger.Error("failed to discard pending order", zap.String("gateway_order_id", req.GatewayOrderID), zap.Error(err))
		return errors.Join(d.ErrVerificationFailed, err)
	}
	return d.ErrVerificationFailed
}

// discardPending removes the caller's pending record for the gateway order
// together with its unpaid order, plus the unpaid online order the client named.
func discardPending(ctx context.Context, tx store.Tx, userID string, req ConfirmRequest) error {
	discarded := ""
	pending, err := tx.GetPendingPayment(ctx, req.GatewayOrderID)
	switch {
	case err == nil && pending.UserID == userID:
		if err := tx.DeletePendingPayment(ctx, pending.GatewayOrderID); err != nil {
			return err
		}
		if err := deleteUnpaidOrder(ctx, tx, userID, pending.OrderID); err != nil {
			return err
		}
		discarded = pending.OrderID
	case err != nil && !errors.Is(err, d.ErrPendingRecordMissing):
		return err
	}

	if req.OrderID != "" && req.OrderID != discarded {
		return deleteUnpaidOrder(ctx, tx, userID, req.OrderID)
	}
	return nil
}

func deleteUnpaidOrder(ctx context.Context, tx store.Tx, userID, orderID string) error {
	order, err := tx.GetOrder(ctx, orderID)
	if errors.Is(err, d.ErrOrderNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if order.UserID != userID || order.IsPaid || order.PaymentType != d.PaymentOnline {
		return nil
	}
	return tx.DeleteOrder(ctx, orderID)
}
