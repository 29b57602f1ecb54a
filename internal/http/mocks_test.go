package http

import (
	"context"
	"net/http"

	"github.com/28Syed/Greencart-ecommerce/internal/auth"
	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/service"
)

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), &auth.Identity{UserID: userID}))
}

type CartServiceMock struct {
	cart      domain.CartSnapshot
	err       error
	requested domain.CartSnapshot
}

func (m *CartServiceMock) GetCart(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *CartServiceMock) Reconcile(ctx context.Context, userID string, requested domain.CartSnapshot) (domain.CartSnapshot, error) {
	m.requested = requested
	if m.err != nil {
		return nil, m.err
	}
	return requested, nil
}

type OrderServiceMock struct {
	order    *domain.Order
	checkout *domain.PendingCheckout
	orders   []*domain.Order
	err      error

	items        []domain.LineItem
	addressID    string
	clientAmount int64
}

func (m *OrderServiceMock) PlaceCOD(ctx context.Context, userID string, items []domain.LineItem, addressID string) (*domain.Order, error) {
	m.items, m.addressID = items, addressID
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *OrderServiceMock) CreatePendingOrder(ctx context.Context, userID string, items []domain.LineItem, addressID string, clientAmount int64) (*domain.PendingCheckout, error) {
	m.items, m.addressID, m.clientAmount = items, addressID, clientAmount
	if m.err != nil {
		return nil, m.err
	}
	return m.checkout, nil
}

func (m *OrderServiceMock) ListUserOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *OrderServiceMock) ListAllOrders(ctx context.Context) ([]*domain.Order, error) {
	return m.orders, m.err
}

type PaymentServiceMock struct {
	order *domain.Order
	err   error
	got   service.ConfirmRequest
}

func (m *PaymentServiceMock) Confirm(ctx context.Context, userID string, req service.ConfirmRequest) (*domain.Order, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}
