package store

import (
	"context"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
)

// memTx operates on the store maps while the caller holds s.mu.
type memTx struct {
	s    *MemoryStore
	undo []func()
}

// remember records the current entry for key so rollback can restore it.
func remember[K comparable, V any](tx *memTx, m map[K]V, key K) {
	prev, existed := m[key]
	tx.undo = append(tx.undo, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

func (tx *memTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *memTx) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	p, ok := tx.s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p.Clone(), nil
}

func (tx *memTx) AdjustStock(_ context.Context, productID string, delta int) error {
	p, ok := tx.s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if delta == 0 {
		return nil
	}
	if p.Stock+delta < 0 {
		return &domain.InsufficientStockError{ProductID: productID, Available: p.Stock, Requested: -delta}
	}

	remember(tx, tx.s.products, productID)
	updated := p.Clone()
	updated.Stock += delta
	tx.s.products[productID] = updated
	return nil
}

func (tx *memTx) GetCart(_ context.Context, userID string) (domain.CartSnapshot, error) {
	cart, ok := tx.s.carts[userID]
	if !ok {
		return domain.CartSnapshot{}, nil
	}
	return cart.Clone(), nil
}

func (tx *memTx) SaveCart(_ context.Context, userID string, cart domain.CartSnapshot) error {
	remember(tx, tx.s.carts, userID)
	tx.s.carts[userID] = cart.Clone()
	return nil
}

func (tx *memTx) GetAddress(_ context.Context, addressID, userID string) (*domain.Address, error) {
	a, ok := tx.s.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, domain.ErrAddressNotFound
	}
	c := *a
	return &c, nil
}

func (tx *memTx) CreateOrder(_ context.Context, order *domain.Order) error {
	if _, exists := tx.s.orders[order.ID]; exists {
		return domain.InvalidInput("order %s already exists", order.ID)
	}
	remember(tx, tx.s.orders, order.ID)
	tx.s.orders[order.ID] = order.Clone()
	return nil
}

func (tx *memTx) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	o, ok := tx.s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (tx *memTx) MarkOrderPaid(_ context.Context, orderID string, ref domain.GatewayReference, at time.Time) error {
	o, ok := tx.s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.IsPaid {
		return domain.ErrOrderAlreadyPaid
	}

	remember(tx, tx.s.orders, orderID)
	updated := o.Clone()
	updated.IsPaid = true
	updated.GatewayOrderID = ref.OrderID
	updated.GatewayPaymentID = ref.PaymentID
	updated.UpdatedAt = at
	tx.s.orders[orderID] = updated
	return nil
}

func (tx *memTx) DeleteOrder(_ context.Context, orderID string) error {
	if _, ok := tx.s.orders[orderID]; !ok {
		return domain.ErrOrderNotFound
	}
	remember(tx, tx.s.orders, orderID)
	delete(tx.s.orders, orderID)
	return nil
}

func (tx *memTx) CreatePendingPayment(_ context.Context, pending *domain.PendingPayment) error {
	if _, exists := tx.s.pending[pending.GatewayOrderID]; exists {
		return domain.InvalidInput("pending payment %s already exists", pending.GatewayOrderID)
	}
	remember(tx, tx.s.pending, pending.GatewayOrderID)
	tx.s.pending[pending.GatewayOrderID] = pending.Clone()
	return nil
}

func (tx *memTx) GetPendingPayment(_ context.Context, gatewayOrderID string) (*domain.PendingPayment, error) {
	p, ok := tx.s.pending[gatewayOrderID]
	if !ok {
		return nil, domain.ErrPendingRecordMissing
	}
	return p.Clone(), nil
}

func (tx *memTx) DeletePendingPayment(_ context.Context, gatewayOrderID string) error {
	if _, ok := tx.s.pending[gatewayOrderID]; !ok {
		return domain.ErrPendingRecordMissing
	}
	remember(tx, tx.s.pending, gatewayOrderID)
	delete(tx.s.pending, gatewayOrderID)
	return nil
}

func (tx *memTx) AppendOutbox(_ context.Context, event *domain.OutboxEvent) error {
	remember(tx, tx.s.outbox, event.ID)
	c := *event
	tx.s.outbox[event.ID] = &c
	return nil
}
