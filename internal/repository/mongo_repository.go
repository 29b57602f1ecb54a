package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoRepository implements store.Backend. Inside RunInTx the context is a
// mongo.SessionContext, so every method called with it joins the transaction.
type MongoRepository struct {
	client     *mongo.Client
	products   *mongo.Collection
	users      *mongo.Collection
	addresses  *mongo.Collection
	orders     *mongo.Collection
	pending    *mongo.Collection
	outbox     *mongo.Collection
	wishlists  *mongo.Collection
	reviews    *mongo.Collection
	chats      *mongo.Collection
	pendingTTL time.Duration
}

var _ store.Backend = (*MongoRepository)(nil)

func NewMongoRepository(db *mongo.Database, pendingTTL time.Duration) *MongoRepository {
	if pendingTTL <= 0 {
		pendingTTL = store.DefaultPendingTTL
	}
	return &MongoRepository{
		client:     db.Client(),
		products:   db.Collection("products"),
		users:      db.Collection("users"),
		addresses:  db.Collection("addresses"),
		orders:     db.Collection("orders"),
		pending:    db.Collection("pending_payments"),
		outbox:     db.Collection("outbox"),
		wishlists:  db.Collection("wishlists"),
		reviews:    db.Collection("reviews"),
		chats:      db.Collection("chats"),
		pendingTTL: pendingTTL,
	}
}

func (m *MongoRepository) RunInTx(ctx context.Context, fn store.TxFunc) error {
	session, err := m.client.StartSession()
	if err != nil {
		return wrap("start session", err)
	}
	defer session.EndSession(context.Background())

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, m)
	}, txOpts)
	return mapError(err)
}

func (m *MongoRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	err := m.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, wrap("get product", err)
	}
	return &product, nil
}

// AdjustStock applies the change with a single conditional update, so two
// concurrent claims on the last unit cannot both match.
func (m *MongoRepository) AdjustStock(ctx context.Context, productID string, delta int) error {
	if delta == 0 {
		_, err := m.GetProduct(ctx, productID)
		return err
	}

	filter := bson.M{"_id": productID}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	res, err := m.products.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": delta}})
	if err != nil {
		return wrap("adjust stock", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	product, err := m.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{ProductID: productID, Available: product.Stock, Requested: -delta}
}

func (m *MongoRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := m.products.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrap("list products", err)
	}
	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, wrap("decode products", err)
	}
	return products, nil
}

func (m *MongoRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if _, err := m.products.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.InvalidInput("product %s already exists", product.ID)
		}
		return wrap("create product", err)
	}
	return nil
}

type userCart struct {
	CartItems domain.CartSnapshot `bson:"cart_items"`
}

func (m *MongoRepository) GetCart(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	var doc userCart
	opts := options.FindOne().SetProjection(bson.M{"cart_items": 1})
	err := m.users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.CartSnapshot{}, nil
		}
		return nil, wrap("get cart", err)
	}
	if doc.CartItems == nil {
		return domain.CartSnapshot{}, nil
	}
	return doc.CartItems, nil
}

func (m *MongoRepository) SaveCart(ctx context.Context, userID string, cart domain.CartSnapshot) error {
	if cart == nil {
		cart = domain.CartSnapshot{}
	}
	update := bson.M{"$set": bson.M{"cart_items": cart, "updated_at": time.Now()}}
	_, err := m.users.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return wrap("save cart", err)
	}
	return nil
}

func (m *MongoRepository) GetAddress(ctx context.Context, addressID, userID string) (*domain.Address, error) {
	var address domain.Address
	err := m.addresses.FindOne(ctx, bson.M{"_id": addressID, "user_id": userID}).Decode(&address)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, wrap("get address", err)
	}
	return &address, nil
}

func (m *MongoRepository) CreateAddress(ctx context.Context, address *domain.Address) error {
	if _, err := m.addresses.InsertOne(ctx, address); err != nil {
		return wrap("create address", err)
	}
	return nil
}

func (m *MongoRepository) ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error) {
	cursor, err := m.addresses.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrap("list addresses", err)
	}
	addresses := make([]*domain.Address, 0)
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, wrap("decode addresses", err)
	}
	return addresses, nil
}

func (m *MongoRepository) UpdateAddress(ctx context.Context, address *domain.Address) error {
	result, err := m.addresses.ReplaceOne(ctx, bson.M{"_id": address.ID, "user_id": address.UserID}, address)
	if err != nil {
		return wrap("update address", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (m *MongoRepository) DeleteAddress(ctx context.Context, addressID, userID string) error {
	result, err := m.addresses.DeleteOne(ctx, bson.M{"_id": addressID, "user_id": userID})
	if err != nil {
		return wrap("delete address", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		m.products:  {{Keys: bson.D{{Key: "category", Value: 1}}}},
		m.addresses: {{Keys: bson.D{{Key: "user_id", Value: 1}}}},
		m.orders: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		m.pending: {{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(m.pendingTTL.Seconds())),
		}},
		m.outbox: {{Keys: bson.D{{Key: "processed", Value: 1}, {Key: "created_at", Value: 1}}}},
		m.reviews: {{
			Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		m.chats: {{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}}}},
	}

	for collection, models := range indexes {
		if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection.Name(), err)
		}
	}
	return nil
}
