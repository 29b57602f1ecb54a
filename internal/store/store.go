package store

import (
	"context"
	"errors"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
)

var ErrEventNotFound = errors.New("outbox event not found")

// Tx is the set of operations that take part in one atomic unit of work.
// Outside RunInTx each call commits on its own.
type Tx interface {
	// GetProduct returns domain.ErrProductNotFound for unknown ids.
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// AdjustStock adds delta to the product's stock. A negative delta only applies
	// while stock >= -delta, otherwise *domain.InsufficientStockError is returned
	// and nothing changes.
	AdjustStock(ctx context.Context, productID string, delta int) error

	// GetCart returns an empty snapshot for users without a cart.
	GetCart(ctx context.Context, userID string) (domain.CartSnapshot, error)
	SaveCart(ctx context.Context, userID string, cart domain.CartSnapshot) error

	// GetAddress only returns addresses owned by userID.
	GetAddress(ctx context.Context, addressID, userID string) (*domain.Address, error)

	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	MarkOrderPaid(ctx context.Context, orderID string, ref domain.GatewayReference, at time.Time) error
	DeleteOrder(ctx context.Context, orderID string) error

	CreatePendingPayment(ctx context.Context, pending *domain.PendingPayment) error
	// GetPendingPayment returns domain.ErrPendingRecordMissing when no record exists.
	GetPendingPayment(ctx context.Context, gatewayOrderID string) (*domain.PendingPayment, error)
	DeletePendingPayment(ctx context.Context, gatewayOrderID string) error

	AppendOutbox(ctx context.Context, event *domain.OutboxEvent) error
}

// TxFunc may be invoked more than once when the backend retries a transaction.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the primary storage used by the cart and order flows.
type Store interface {
	Tx

	// RunInTx commits every write made through tx or none of them.
	RunInTx(ctx context.Context, fn TxFunc) error

	ListProducts(ctx context.Context) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error

	CreateAddress(ctx context.Context, address *domain.Address) error
	ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error)
	// UpdateAddress and DeleteAddress only touch addresses owned by the
	// address's user and return domain.ErrAddressNotFound otherwise.
	UpdateAddress(ctx context.Context, address *domain.Address) error
	DeleteAddress(ctx context.Context, addressID, userID string) error

	// ListOrdersByUser and ListOrders return newest first.
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}

type OutboxStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID string) error
	DeleteProcessedEvents(ctx context.Context, before time.Time) (int64, error)
}

type WishlistStore interface {
	// GetWishlist returns an empty wishlist when the user has none.
	GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)
	AddToWishlist(ctx context.Context, userID, productID string) error
	RemoveFromWishlist(ctx context.Context, userID, productID string) error
}

type ReviewStore interface {
	// AddReview stores the review and folds its rating into the product aggregate atomically.
	AddReview(ctx context.Context, review *domain.Review) error
	ListReviews(ctx context.Context, productID string) ([]*domain.Review, error)
}

type ChatStore interface {
	CreateChatSession(ctx context.Context, session *domain.ChatSession) error
	// GetChatSession only returns active sessions owned by userID.
	GetChatSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error)
	AppendChatMessages(ctx context.Context, userID, sessionID string, at time.Time, messages ...domain.ChatMessage) error
	EndChatSession(ctx context.Context, userID, sessionID string) error
}

// Backend is implemented by every storage engine.
type Backend interface {
	Store
	OutboxStore
	WishlistStore
	ReviewStore
	ChatStore
}
