package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/28Syed/Greencart-ecommerce/internal/cache"
	d "github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/lock"
	"github.com/28Syed/Greencart-ecommerce/internal/payment"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test_secret"

// MockCache implements cache.CartCache for testing
type MockCache struct {
	mu      sync.Mutex
	data    map[string]d.CartSnapshot
	deleted []string
	getErr  error
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string]d.CartSnapshot)}
}

func (m *MockCache) Get(_ context.Context, userID string) (d.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	cart, ok := m.data[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart.Clone(), nil
}

func (m *MockCache) Set(_ context.Context, userID string, cart d.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = cart.Clone()
	return nil
}

func (m *MockCache) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

func (m *MockCache) Has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[userID]
	return ok
}

func (m *MockCache) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// MockGateway implements payment.Gateway for testing
type MockGateway struct {
	mu       sync.Mutex
	Requests []payment.IntentRequest
	Err      error
	counter  int
}

func (m *MockGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*d.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	m.counter++
	return &d.PaymentIntent{
		ID:       fmt.Sprintf("order_gw_%d", m.counter),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

// FlakyStore fails the first Failures transactions with a transient error
type FlakyStore struct {
	*store.MemoryStore
	Failures atomic.Int32
	Attempts atomic.Int32
}

func (f *FlakyStore) RunInTx(ctx context.Context, fn store.TxFunc) error {
	f.Attempts.Add(1)
	if f.Failures.Add(-1) >= 0 {
		return fmt.Errorf("%w: write conflict", d.ErrTransientStore)
	}
	return f.MemoryStore.RunInTx(ctx, fn)
}

type fixture struct {
	store    *store.MemoryStore
	cache    *MockCache
	locker   *lock.LocalLocker
	gateway  *MockGateway
	verifier *payment.Verifier
	carts    *CartService
	orders   *OrderService
	payments *PaymentService
}

func newFixture(t *testing.T) *fixture {
	st := store.NewMemoryStore(store.DefaultPendingTTL)
	t.Cleanup(func() { st.Close() })
	return newFixtureWithStore(t, st, st)
}

func newFixtureWithStore(t *testing.T, mem *store.MemoryStore, st store.Store) *fixture {
	f := &fixture{
		store:    mem,
		cache:    NewMockCache(),
		locker:   lock.NewLocalLocker(),
		gateway:  &MockGateway{},
		verifier: payment.NewVerifier(testSecret),
	}
	logger := zap.NewNop()
	f.carts = NewCartService(st, f.cache, f.locker, logger)
	f.orders = NewOrderService(st, f.cache, f.locker, f.gateway,
		CheckoutConfig{Currency: "INR", MinorUnits: 100, KeyID: "rzp_test"}, logger)
	f.payments = NewPaymentService(st, f.cache, f.locker, f.verifier, logger)
	return f
}

func (f *fixture) addProduct(t *testing.T, id string, offerPrice int64, stock int) {
	t.Helper()
	require.NoError(t, f.store.CreateProduct(context.Background(), &d.Product{
		ID: id, Name: id, Price: offerPrice, OfferPrice: offerPrice, Stock: stock,
	}))
}

func (f *fixture) addAddress(t *testing.T, userID string) string {
	t.Helper()
	id := "addr-" + userID
	require.NoError(t, f.store.CreateAddress(context.Background(), &d.Address{ID: id, UserID: userID}))
	return id
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) cart(t *testing.T, userID string) d.CartSnapshot {
	t.Helper()
	cart, err := f.store.GetCart(context.Background(), userID)
	require.NoError(t, err)
	return cart
}
