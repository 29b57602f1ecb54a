package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
)

const (
	// DefaultPendingTTL is how long an unconfirmed online payment is kept
	DefaultPendingTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 30 * time.Second
)

type reviewKey struct {
	productID string
	userID    string
}

// MemoryStore implements Backend with in-memory maps guarded by one mutex.
// Stored values are never mutated in place, which lets a transaction undo
// its writes by restoring the previous map entries.
type MemoryStore struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	carts     map[string]domain.CartSnapshot
	addresses map[string]*domain.Address
	orders    map[string]*domain.Order
	pending   map[string]*domain.PendingPayment
	outbox    map[string]*domain.OutboxEvent
	wishlists map[string]*domain.Wishlist
	reviews   map[reviewKey]*domain.Review
	chats     map[string]*domain.ChatSession

	pendingTTL time.Duration
	now        func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

var _ Backend = (*MemoryStore)(nil)

// NewMemoryStore creates the store and starts the pending payment expiry loop.
func NewMemoryStore(pendingTTL time.Duration) *MemoryStore {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	s := &MemoryStore{
		products:    make(map[string]*domain.Product),
		carts:       make(map[string]domain.CartSnapshot),
		addresses:   make(map[string]*domain.Address),
		orders:      make(map[string]*domain.Order),
		pending:     make(map[string]*domain.PendingPayment),
		outbox:      make(map[string]*domain.OutboxEvent),
		wishlists:   make(map[string]*domain.Wishlist),
		reviews:     make(map[reviewKey]*domain.Review),
		chats:       make(map[string]*domain.ChatSession),
		pendingTTL:  pendingTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expirePendingPayments()
		case <-s.stopCleanup:
			return
		}
	}
}

// expirePendingPayments drops pending records past their TTL. Their orders stay
// unpaid and hidden; a late confirmation fails with ErrPendingRecordMissing.
func (s *MemoryStore) expirePendingPayments() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := 0
	for id, p := range s.pending {
		if p.IsExpired(s.pendingTTL, now) {
			delete(s.pending, id)
			expired++
		}
	}
	return expired
}

// Close stops the background cleanup and waits for it to finish
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}

// RunInTx holds the store lock for the whole of fn and undoes its writes on error.
// A context cancelled while fn ran also rolls back.
func (s *MemoryStore) RunInTx(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// autocommit runs a single operation under the lock.
func (s *MemoryStore) autocommit(fn func(tx *memTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{s: s})
}

func (s *MemoryStore) GetProduct(ctx context.Context, productID string) (p *domain.Product, err error) {
	err = s.autocommit(func(tx *memTx) error {
		p, err = tx.GetProduct(ctx, productID)
		return err
	})
	return p, err
}

func (s *MemoryStore) AdjustStock(ctx context.Context, productID string, delta int) error {
	return s.autocommit(func(tx *memTx) error { return tx.AdjustStock(ctx, productID, delta) })
}

func (s *MemoryStore) GetCart(ctx context.Context, userID string) (cart domain.CartSnapshot, err error) {
	err = s.autocommit(func(tx *memTx) error {
		cart, err = tx.GetCart(ctx, userID)
		return err
	})
	return cart, err
}

func (s *MemoryStore) SaveCart(ctx context.Context, userID string, cart domain.CartSnapshot) error {
	return s.autocommit(func(tx *memTx) error { return tx.SaveCart(ctx, userID, cart) })
}

func (s *MemoryStore) GetAddress(ctx context.Context, addressID, userID string) (a *domain.Address, err error) {
	err = s.autocommit(func(tx *memTx) error {
		a, err = tx.GetAddress(ctx, addressID, userID)
		return err
	})
	return a, err
}

func (s *MemoryStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	return s.autocommit(func(tx *memTx) error { return tx.CreateOrder(ctx, order) })
}

func (s *MemoryStore) GetOrder(ctx context.Context, orderID string) (o *domain.Order, err error) {
	err = s.autocommit(func(tx *memTx) error {
		o, err = tx.GetOrder(ctx, orderID)
		return err
	})
	return o, err
}

func (s *MemoryStore) MarkOrderPaid(ctx context.Context, orderID string, ref domain.GatewayReference, at time.Time) error {
	return s.autocommit(func(tx *memTx) error { return tx.MarkOrderPaid(ctx, orderID, ref, at) })
}

func (s *MemoryStore) DeleteOrder(ctx context.Context, orderID string) error {
	return s.autocommit(func(tx *memTx) error { return tx.DeleteOrder(ctx, orderID) })
}

func (s *MemoryStore) CreatePendingPayment(ctx context.Context, pending *domain.PendingPayment) error {
	return s.autocommit(func(tx *memTx) error { return tx.CreatePendingPayment(ctx, pending) })
}

func (s *MemoryStore) GetPendingPayment(ctx context.Context, gatewayOrderID string) (p *domain.PendingPayment, err error) {
	err = s.autocommit(func(tx *memTx) error {
		p, err = tx.GetPendingPayment(ctx, gatewayOrderID)
		return err
	})
	return p, err
}

func (s *MemoryStore) DeletePendingPayment(ctx context.Context, gatewayOrderID string) error {
	return s.autocommit(func(tx *memTx) error { return tx.DeletePendingPayment(ctx, gatewayOrderID) })
}

func (s *MemoryStore) AppendOutbox(ctx context.Context, event *domain.OutboxEvent) error {
	return s.autocommit(func(tx *memTx) error { return tx.AppendOutbox(ctx, event) })
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p.Clone())
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return domain.InvalidInput("product %s already exists", product.ID)
	}
	s.products[product.ID] = product.Clone()
	return nil
}

func (s *MemoryStore) CreateAddress(_ context.Context, address *domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := *address
	s.addresses[a.ID] = &a
	return nil
}

func (s *MemoryStore) ListAddresses(_ context.Context, userID string) ([]*domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addresses := make([]*domain.Address, 0)
	for _, a := range s.addresses {
		if a.UserID == userID {
			c := *a
			addresses = append(addresses, &c)
		}
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i].ID < addresses[j].ID })
	return addresses, nil
}

func (s *MemoryStore) UpdateAddress(_ context.Context, address *domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.addresses[address.ID]
	if !ok || current.UserID != address.UserID {
		return domain.ErrAddressNotFound
	}
	a := *address
	s.addresses[a.ID] = &a
	return nil
}

func (s *MemoryStore) DeleteAddress(_ context.Context, addressID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.addresses[addressID]
	if !ok || current.UserID != userID {
		return domain.ErrAddressNotFound
	}
	delete(s.addresses, addressID)
	return nil
}

func (s *MemoryStore) ListOrdersByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	return s.listOrders(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (s *MemoryStore) ListOrders(_ context.Context) ([]*domain.Order, error) {
	return s.listOrders(func(*domain.Order) bool { return true }), nil
}

func (s *MemoryStore) listOrders(match func(*domain.Order) bool) []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]*domain.Order, 0)
	for _, o := range s.orders {
		if match(o) {
			orders = append(orders, o.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (s *MemoryStore) GetUnprocessedEvents(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]*domain.OutboxEvent, 0)
	for _, e := range s.outbox {
		if !e.Processed {
			c := *e
			events = append(events, &c)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *MemoryStore) MarkEventAsProcessed(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.outbox[eventID]
	if !ok {
		return ErrEventNotFound
	}
	now := s.now()
	c := *e
	c.Processed = true
	c.ProcessedAt = &now
	s.outbox[eventID] = &c
	return nil
}

func (s *MemoryStore) DeleteProcessedEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, e := range s.outbox {
		if e.Processed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(s.outbox, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) GetWishlist(_ context.Context, userID string) (*domain.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wishlists[userID]
	if !ok {
		return &domain.Wishlist{UserID: userID, Products: []string{}}, nil
	}
	return &domain.Wishlist{UserID: userID, Products: append([]string{}, w.Products...)}, nil
}

func (s *MemoryStore) AddToWishlist(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wishlists[userID]
	if !ok {
		w = &domain.Wishlist{UserID: userID}
	}
	if w.Contains(productID) {
		return domain.ErrAlreadyInWishlist
	}
	s.wishlists[userID] = &domain.Wishlist{
		UserID:   userID,
		Products: append(append([]string{}, w.Products...), productID),
	}
	return nil
}

func (s *MemoryStore) RemoveFromWishlist(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wishlists[userID]
	if !ok {
		return domain.ErrWishlistNotFound
	}
	products := make([]string, 0, len(w.Products))
	for _, id := range w.Products {
		if id != productID {
			products = append(products, id)
		}
	}
	s.wishlists[userID] = &domain.Wishlist{UserID: userID, Products: products}
	return nil
}

func (s *MemoryStore) AddReview(ctx context.Context, review *domain.Review) error {
	return s.RunInTx(ctx, func(ctx context.Context, t Tx) error {
		tx := t.(*memTx)
		p, err := tx.GetProduct(ctx, review.ProductID)
		if err != nil {
			return err
		}

		key := reviewKey{productID: review.ProductID, userID: review.UserID}
		if _, exists := s.reviews[key]; exists {
			return domain.ErrAlreadyReviewed
		}
		remember(tx, s.reviews, key)
		r := *review
		s.reviews[key] = &r

		remember(tx, s.products, p.ID)
		p.RatingTotal += review.Rating
		p.NumReviews++
		s.products[p.ID] = p
		return nil
	})
}

func (s *MemoryStore) ListReviews(_ context.Context, productID string) ([]*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews := make([]*domain.Review, 0)
	for key, r := range s.reviews {
		if key.productID == productID {
			c := *r
			reviews = append(reviews, &c)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func (s *MemoryStore) CreateChatSession(_ context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats[session.ID] = session.Clone()
	return nil
}

func (s *MemoryStore) GetChatSession(_ context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[sessionID]
	if !ok || c.UserID != userID || !c.IsActive {
		return nil, domain.ErrChatSessionNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) AppendChatMessages(_ context.Context, userID, sessionID string, at time.Time, messages ...domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[sessionID]
	if !ok || c.UserID != userID || !c.IsActive {
		return domain.ErrChatSessionNotFound
	}
	updated := c.Clone()
	updated.Messages = append(updated.Messages, messages...)
	updated.LastActivity = at
	s.chats[sessionID] = updated
	return nil
}

func (s *MemoryStore) EndChatSession(_ context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[sessionID]
	if !ok || c.UserID != userID {
		return nil
	}
	updated := c.Clone()
	updated.IsActive = false
	s.chats[sessionID] = updated
	return nil
}
