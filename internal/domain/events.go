package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced = "order.placed"
	EventOrderPaid   = "order.paid"
)

// OutboxEvent is written in the same transaction as the state change it describes.
type OutboxEvent struct {
	ID          string     `bson:"_id"`
	AggregateID string     `bson:"aggregate_id"`
	EventType   string     `bson:"event_type"`
	Payload     []byte     `bson:"payload"`
	Processed   bool       `bson:"processed"`
	CreatedAt   time.Time  `bson:"created_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

// OrderEvent is the payload published for order.placed and order.paid.
type OrderEvent struct {
	OrderID     string      `json:"order_id"`
	UserID      string      `json:"user_id"`
	Items       []LineItem  `json:"items"`
	Amount      int64       `json:"amount"`
	PaymentType PaymentType `json:"payment_type"`
	IsPaid      bool        `json:"is_paid"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

func NewOrderEvent(eventType string, order *Order, now time.Time) (*OutboxEvent, error) {
	payload, err := json.Marshal(OrderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Items:       order.Items,
		Amount:      order.Amount,
		PaymentType: order.PaymentType,
		IsPaid:      order.IsPaid,
		OccurredAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}

	return &OutboxEvent{
		ID:          uuid.New().String(),
		AggregateID: order.ID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   now,
	}, nil
}
