package repository

import (
	"context"
	"errors"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoRepository) AppendOutbox(ctx context.Context, event *domain.OutboxEvent) error {
	if _, err := m.outbox.InsertOne(ctx, event); err != nil {
		return wrap("append outbox event", err)
	}
	return nil
}

func (m *MongoRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := m.outbox.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, wrap("get unprocessed events", err)
	}
	events := make([]*domain.OutboxEvent, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, wrap("decode events", err)
	}
	return events, nil
}

func (m *MongoRepository) MarkEventAsProcessed(ctx context.Context, eventID string) error {
	update := bson.M{"$set": bson.M{"processed": true, "processed_at": time.Now()}}
	res, err := m.outbox.UpdateOne(ctx, bson.M{"_id": eventID}, update)
	if err != nil {
		return wrap("mark event as processed", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrEventNotFound
	}
	return nil
}

func (m *MongoRepository) DeleteProcessedEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := m.outbox.DeleteMany(ctx, bson.M{"processed": true, "processed_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, wrap("delete processed events", err)
	}
	return res.DeletedCount, nil
}

func (m *MongoRepository) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var wishlist domain.Wishlist
	err := m.wishlists.FindOne(ctx, bson.M{"_id": userID}).Decode(&wishlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.Wishlist{UserID: userID, Products: []string{}}, nil
		}
		return nil, wrap("get wishlist", err)
	}
	if wishlist.Products == nil {
		wishlist.Products = []string{}
	}
	return &wishlist, nil
}

// AddToWishlist relies on the _id uniqueness: when the product is already
// listed the filter misses and the upsert collides with the existing document.
func (m *MongoRepository) AddToWishlist(ctx context.Context, userID, productID string) error {
	filter := bson.M{"_id": userID, "products": bson.M{"$ne": productID}}
	update := bson.M{"$push": bson.M{"products": productID}}

	_, err := m.wishlists.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyInWishlist
		}
		return wrap("add to wishlist", err)
	}
	return nil
}

func (m *MongoRepository) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	res, err := m.wishlists.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"products": productID}})
	if err != nil {
		return wrap("remove from wishlist", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrWishlistNotFound
	}
	return nil
}

func (m *MongoRepository) AddReview(ctx context.Context, review *domain.Review) error {
	return m.RunInTx(ctx, func(ctx context.Context, _ store.Tx) error {
		inc := bson.M{"$inc": bson.M{"rating_total": review.Rating, "num_reviews": 1}}
		res, err := m.products.UpdateOne(ctx, bson.M{"_id": review.ProductID}, inc)
		if err != nil {
			return wrap("update product rating", err)
		}
		if res.MatchedCount == 0 {
			return domain.ErrProductNotFound
		}

		if _, err := m.reviews.InsertOne(ctx, review); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrAlreadyReviewed
			}
			return wrap("insert review", err)
		}
		return nil
	})
}

func (m *MongoRepository) ListReviews(ctx context.Context, productID string) ([]*domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.reviews.Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, wrap("list reviews", err)
	}
	reviews := make([]*domain.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, wrap("decode reviews", err)
	}
	return reviews, nil
}

func (m *MongoRepository) CreateChatSession(ctx context.Context, session *domain.ChatSession) error {
	if _, err := m.chats.InsertOne(ctx, session); err != nil {
		return wrap("create chat session", err)
	}
	return nil
}

func (m *MongoRepository) GetChatSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	err := m.chats.FindOne(ctx, bson.M{"_id": sessionID, "user_id": userID, "is_active": true}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrChatSessionNotFound
		}
		return nil, wrap("get chat session", err)
	}
	return &session, nil
}

func (m *MongoRepository) AppendChatMessages(ctx context.Context, userID, sessionID string, at time.Time, messages ...domain.ChatMessage) error {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	filter := bson.M{"_id": sessionID, "user_id": userID, "is_active": true}
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$set":  bson.M{"last_activity": at},
	}
	res, err := m.chats.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrap("append chat messages", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrChatSessionNotFound
	}
	return nil
}

func (m *MongoRepository) EndChatSession(ctx context.Context, userID, sessionID string) error {
	_, err := m.chats.UpdateOne(ctx, bson.M{"_id": sessionID, "user_id": userID}, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return wrap("end chat session", err)
	}
	return nil
}
