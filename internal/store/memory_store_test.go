package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *MemoryStore {
	store := NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })
	return store
}

func addProduct(t *testing.T, s *MemoryStore, id string, stock int) {
	t.Helper()
	require.NoError(t, s.CreateProduct(context.Background(), &domain.Product{
		ID: id, Name: id, Price: 100, OfferPrice: 100, Stock: stock, CreatedAt: time.Now(),
	}))
}

func stockOf(t *testing.T, s *MemoryStore, id string) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestMemoryStore_AdjustStock(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	addProduct(t, store, "A", 5)

	require.NoError(t, store.AdjustStock(ctx, "A", -3))
	assert.Equal(t, 2, stockOf(t, store, "A"))

	require.NoError(t, store.AdjustStock(ctx, "A", 4))
	assert.Equal(t, 6, stockOf(t, store, "A"))
}

func TestMemoryStore_AdjustStock_NeverNegative(t *testing.T) {
	store := setupStore(t)
	addProduct(t, store, "A", 2)

	err := store.AdjustStock(context.Background(), "A", -3)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "A", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockOf(t, store, "A"))
}

func TestMemoryStore_AdjustStock_UnknownProduct(t *testing.T) {
	store := setupStore(t)

	err := store.AdjustStock(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMemoryStore_RunInTx_RollsBackEveryWrite(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	addProduct(t, store, "A", 5)
	require.NoError(t, store.SaveCart(ctx, "u1", domain.CartSnapshot{"A": 1}))

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.AdjustStock(ctx, "A", -2))
		require.NoError(t, tx.SaveCart(ctx, "u1", domain.CartSnapshot{"A": 3}))
		require.NoError(t, tx.CreateOrder(ctx, &domain.Order{ID: "o1", UserID: "u1"}))
		require.NoError(t, tx.CreatePendingPayment(ctx, &domain.PendingPayment{GatewayOrderID: "g1"}))
		require.NoError(t, tx.AppendOutbox(ctx, &domain.OutboxEvent{ID: "e1"}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, stockOf(t, store, "A"))
	cart, _ := store.GetCart(ctx, "u1")
	assert.Equal(t, domain.CartSnapshot{"A": 1}, cart)
	_, err = store.GetOrder(ctx, "o1")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = store.GetPendingPayment(ctx, "g1")
	assert.ErrorIs(t, err, domain.ErrPendingRecordMissing)
	events, _ := store.GetUnprocessedEvents(ctx, 10)
	assert.Empty(t, events)
}

func TestMemoryStore_RunInTx_RestoresDeletes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateOrder(ctx, &domain.Order{ID: "o1", UserID: "u1"}))
	require.NoError(t, store.CreatePendingPayment(ctx, &domain.PendingPayment{GatewayOrderID: "g1", OrderID: "o1"}))

	err := store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.DeletePendingPayment(ctx, "g1"))
		require.NoError(t, tx.DeleteOrder(ctx, "o1"))
		return errors.New("abort")
	})

	require.Error(t, err)
	_, err = store.GetOrder(ctx, "o1")
	assert.NoError(t, err)
	_, err = store.GetPendingPayment(ctx, "g1")
	assert.NoError(t, err)
}

func TestMemoryStore_RunInTx_CancelledContextRollsBack(t *testing.T) {
	store := setupStore(t)
	addProduct(t, store, "A", 5)
	ctx, cancel := context.WithCancel(context.Background())

	err := store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.AdjustStock(ctx, "A", -5))
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, stockOf(t, store, "A"))
}

func TestMemoryStore_ConcurrentClaimsOnLastUnit(t *testing.T) {
	store := setupStore(t)
	addProduct(t, store, "A", 1)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.AdjustStock(context.Background(), "A", -1) == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, 0, stockOf(t, store, "A"))
}

func TestMemoryStore_MarkOrderPaid(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateOrder(ctx, &domain.Order{ID: "o1", PaymentType: domain.PaymentOnline}))

	require.NoError(t, store.MarkOrderPaid(ctx, "o1", domain.GatewayReference{OrderID: "g1", PaymentID: "p1"}, time.Now()))

	order, err := store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, order.IsPaid)
	assert.Equal(t, "g1", order.GatewayOrderID)
	assert.Equal(t, "p1", order.GatewayPaymentID)

	err = store.MarkOrderPaid(ctx, "o1", domain.GatewayReference{}, time.Now())
	assert.ErrorIs(t, err, domain.ErrOrderAlreadyPaid)
	assert.ErrorIs(t, store.MarkOrderPaid(ctx, "missing", domain.GatewayReference{}, time.Now()), domain.ErrOrderNotFound)
}

func TestMemoryStore_ReturnedValuesAreCopies(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	addProduct(t, store, "A", 5)
	require.NoError(t, store.SaveCart(ctx, "u1", domain.CartSnapshot{"A": 1}))

	p, _ := store.GetProduct(ctx, "A")
	p.Stock = 100
	cart, _ := store.GetCart(ctx, "u1")
	cart["A"] = 50

	assert.Equal(t, 5, stockOf(t, store, "A"))
	fresh, _ := store.GetCart(ctx, "u1")
	assert.Equal(t, 1, fresh["A"])
}

func TestMemoryStore_GetAddress_OwnedOnly(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAddress(ctx, &domain.Address{ID: "a1", UserID: "u1"}))

	_, err := store.GetAddress(ctx, "a1", "u1")
	assert.NoError(t, err)
	_, err = store.GetAddress(ctx, "a1", "u2")
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
}

func TestMemoryStore_UpdateAndDeleteAddress_OwnedOnly(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAddress(ctx, &domain.Address{ID: "a1", UserID: "u1", City: "Pune"}))

	err := store.UpdateAddress(ctx, &domain.Address{ID: "a1", UserID: "u2", City: "Goa"})
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
	assert.ErrorIs(t, store.DeleteAddress(ctx, "a1", "u2"), domain.ErrAddressNotFound)

	require.NoError(t, store.UpdateAddress(ctx, &domain.Address{ID: "a1", UserID: "u1", City: "Goa"}))
	a, err := store.GetAddress(ctx, "a1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Goa", a.City)

	require.NoError(t, store.DeleteAddress(ctx, "a1", "u1"))
	_, err = store.GetAddress(ctx, "a1", "u1")
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
	assert.ErrorIs(t, store.UpdateAddress(ctx, &domain.Address{ID: "a1", UserID: "u1"}), domain.ErrAddressNotFound)
}

func TestMemoryStore_ListOrders_NewestFirst(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Now()
	require.NoError(t, store.CreateOrder(ctx, &domain.Order{ID: "old", UserID: "u1", CreatedAt: base}))
	require.NoError(t, store.CreateOrder(ctx, &domain.Order{ID: "new", UserID: "u1", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, store.CreateOrder(ctx, &domain.Order{ID: "other", UserID: "u2", CreatedAt: base}))

	orders, err := store.ListOrdersByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "new", orders[0].ID)
	assert.Equal(t, "old", orders[1].ID)

	all, _ := store.ListOrders(ctx)
	assert.Len(t, all, 3)
}

func TestMemoryStore_ExpirePendingPayments(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.CreatePendingPayment(ctx, &domain.PendingPayment{GatewayOrderID: "old", CreatedAt: now.Add(-2 * time.Minute)}))
	require.NoError(t, store.CreatePendingPayment(ctx, &domain.PendingPayment{GatewayOrderID: "fresh", CreatedAt: now}))

	assert.Equal(t, 1, store.expirePendingPayments())

	_, err := store.GetPendingPayment(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrPendingRecordMissing)
	_, err = store.GetPendingPayment(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryStore_Outbox(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.AppendOutbox(ctx, &domain.OutboxEvent{ID: "e2", CreatedAt: now.Add(time.Second)}))
	require.NoError(t, store.AppendOutbox(ctx, &domain.OutboxEvent{ID: "e1", CreatedAt: now}))

	events, err := store.GetUnprocessedEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)

	require.NoError(t, store.MarkEventAsProcessed(ctx, "e1"))
	assert.ErrorIs(t, store.MarkEventAsProcessed(ctx, "missing"), ErrEventNotFound)

	events, _ = store.GetUnprocessedEvents(ctx, 10)
	require.Len(t, events, 1)
	assert.Equal(t, "e2", events[0].ID)

	deleted, err := store.DeleteProcessedEvents(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestMemoryStore_Wishlist(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	w, err := store.GetWishlist(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, w.Products)
	assert.ErrorIs(t, store.RemoveFromWishlist(ctx, "u1", "A"), domain.ErrWishlistNotFound)

	require.NoError(t, store.AddToWishlist(ctx, "u1", "A"))
	require.NoError(t, store.AddToWishlist(ctx, "u1", "B"))
	assert.ErrorIs(t, store.AddToWishlist(ctx, "u1", "A"), domain.ErrAlreadyInWishlist)

	require.NoError(t, store.RemoveFromWishlist(ctx, "u1", "A"))
	w, _ = store.GetWishlist(ctx, "u1")
	assert.Equal(t, []string{"B"}, w.Products)
}

func TestMemoryStore_AddReview(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	addProduct(t, store, "A", 1)

	require.NoError(t, store.AddReview(ctx, &domain.Review{ID: "r1", ProductID: "A", UserID: "u1", Rating: 5}))
	require.NoError(t, store.AddReview(ctx, &domain.Review{ID: "r2", ProductID: "A", UserID: "u2", Rating: 2}))
	err := store.AddReview(ctx, &domain.Review{ID: "r3", ProductID: "A", UserID: "u1", Rating: 1})
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	assert.ErrorIs(t, store.AddReview(ctx, &domain.Review{ProductID: "missing", UserID: "u1", Rating: 1}), domain.ErrProductNotFound)

	p, _ := store.GetProduct(ctx, "A")
	assert.Equal(t, 2, p.NumReviews)
	assert.Equal(t, 7, p.RatingTotal)
	assert.InDelta(t, 3.5, p.AverageRating(), 0.001)

	reviews, _ := store.ListReviews(ctx, "A")
	assert.Len(t, reviews, 2)
}

func TestMemoryStore_ChatSessions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.CreateChatSession(ctx, &domain.ChatSession{ID: "chat_1", UserID: "u1", IsActive: true}))

	_, err := store.GetChatSession(ctx, "u2", "chat_1")
	assert.ErrorIs(t, err, domain.ErrChatSessionNotFound)

	require.NoError(t, store.AppendChatMessages(ctx, "u1", "chat_1", now,
		domain.ChatMessage{Role: domain.RoleUser, Content: "hi"},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: "hello"}))
	session, err := store.GetChatSession(ctx, "u1", "chat_1")
	require.NoError(t, err)
	assert.Len(t, session.Messages, 2)
	assert.Equal(t, now, session.LastActivity)

	require.NoError(t, store.EndChatSession(ctx, "u1", "chat_1"))
	_, err = store.GetChatSession(ctx, "u1", "chat_1")
	assert.ErrorIs(t, err, domain.ErrChatSessionNotFound)
	assert.ErrorIs(t, store.AppendChatMessages(ctx, "u1", "chat_1", now), domain.ErrChatSessionNotFound)
}

func TestSeed_SkipsExisting(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	addProduct(t, store, "apple-1kg", 1)

	require.NoError(t, Seed(ctx, store, DemoCatalog(time.Now())))

	assert.Equal(t, 1, stockOf(t, store, "apple-1kg"))
	products, _ := store.ListProducts(ctx)
	assert.Len(t, products, len(DemoCatalog(time.Now())))
}
