package repository

import (
	"context"
	"errors"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if _, err := m.orders.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.InvalidInput("order %s already exists", order.ID)
		}
		return wrap("create order", err)
	}
	return nil
}

func (m *MongoRepository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := m.orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, wrap("get order", err)
	}
	return &order, nil
}

func (m *MongoRepository) MarkOrderPaid(ctx context.Context, orderID string, ref domain.GatewayReference, at time.Time) error {
	filter := bson.M{"_id": orderID, "is_paid": false}
	update := bson.M{"$set": bson.M{
		"is_paid":            true,
		"gateway_order_id":   ref.OrderID,
		"gateway_payment_id": ref.PaymentID,
		"updated_at":         at,
	}}

	res, err := m.orders.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrap("mark order paid", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := m.GetOrder(ctx, orderID); err != nil {
		return err
	}
	return domain.ErrOrderAlreadyPaid
}

func (m *MongoRepository) DeleteOrder(ctx context.Context, orderID string) error {
	res, err := m.orders.DeleteOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		return wrap("delete order", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (m *MongoRepository) ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return m.findOrders(ctx, bson.M{"user_id": userID})
}

func (m *MongoRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return m.findOrders(ctx, bson.M{})
}

func (m *MongoRepository) findOrders(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap("list orders", err)
	}
	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, wrap("decode orders", err)
	}
	return orders, nil
}

func (m *MongoRepository) CreatePendingPayment(ctx context.Context, pending *domain.PendingPayment) error {
	if _, err := m.pending.InsertOne(ctx, pending); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.InvalidInput("pending payment %s already exists", pending.GatewayOrderID)
		}
		return wrap("create pending payment", err)
	}
	return nil
}

func (m *MongoRepository) GetPendingPayment(ctx context.Context, gatewayOrderID string) (*domain.PendingPayment, error) {
	var pending domain.PendingPayment
	err := m.pending.FindOne(ctx, bson.M{"_id": gatewayOrderID}).Decode(&pending)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPendingRecordMissing
		}
		return nil, wrap("get pending payment", err)
	}
	return &pending, nil
}

func (m *MongoRepository) DeletePendingPayment(ctx context.Context, gatewayOrderID string) error {
	res, err := m.pending.DeleteOne(ctx, bson.M{"_id": gatewayOrderID})
	if err != nil {
		return wrap("delete pending payment", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPendingRecordMissing
	}
	return nil
}
