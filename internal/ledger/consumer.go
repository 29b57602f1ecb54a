package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	consumerGroup = "storefront-order-ledger"

	retryInitialDelay = 100 * time.Millisecond
	retryMaxDelay     = 10 * time.Second
)

// MessageReader is the part of *kafka.Reader the consumer needs. Offsets are
// committed explicitly, only once a message has been handled.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	repo   Repository
	reader MessageReader
	logger *zap.Logger
	// newBackOff paces retries after broker and ledger failures.
	newBackOff func() backoff.BackOff
}

func NewKafkaReader(brokers []string, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  consumerGroup,
		MaxBytes: 10e6, // 10MB
	})
}

func NewConsumer(repo Repository, reader MessageReader, logger *zap.Logger) *Consumer {
	return &Consumer{repo: repo, reader: reader, logger: logger, newBackOff: defaultBackOff}
}

// defaultBackOff never gives up; only the context ends a retry loop.
func defaultBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialDelay
	policy.MaxInterval = retryMaxDelay
	policy.MaxElapsedTime = 0
	return policy
}

func (c *Consumer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		// Fetch errors are retried with backoff.
		_ = backoff.RetryNotify(func() error {
			return c.processMessage(ctx)
		}, backoff.WithContext(c.newBackOff(), ctx), func(err error, wait time.Duration) {
			c.logger.Warn("error fetching message, backing off", zap.Duration("backoff", wait), zap.Error(err))
		})
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

// processMessage handles one message and commits its offset. The offset is
// left uncommitted while the ledger cannot take the entry, so the message is
// redelivered rather than lost. It returns an error only when the fetch failed.
func (c *Consumer) processMessage(ctx context.Context) error {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	entry := c.entryFor(m)
	if entry != nil {
		if err := c.record(ctx, entry); err != nil {
			return nil
		}
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.Warn("error committing offset", zap.Int64("offset", m.Offset), zap.Error(err))
	}
	return nil
}

// entryFor returns nil for messages the ledger has no use for.
func (c *Consumer) entryFor(m kafka.Message) *Entry {
	eventType := headerValue(m, "event_type")
	var event domain.OrderEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Warn("error parsing message", zap.ByteString("key", m.Key), zap.Error(err))
		return nil
	}
	if event.OrderID == "" || event.UserID == "" {
		c.logger.Warn("order event without order_id or user_id", zap.ByteString("key", m.Key))
		return nil
	}
	if !settles(eventType, &event) {
		c.logger.Debug("event does not settle an order",
			zap.String("order_id", event.OrderID), zap.String("event_type", eventType))
		return nil
	}

	return &Entry{
		ID:          uuid.New(),
		OrderID:     event.OrderID,
		UserID:      event.UserID,
		Amount:      event.Amount,
		PaymentType: event.PaymentType,
		IsPaid:      event.IsPaid,
		EventType:   eventType,
		Items:       event.Items,
		OccurredAt:  event.OccurredAt,
	}
}

// record retries until the entry is stored, already present, or ctx is done.
func (c *Consumer) record(ctx context.Context, entry *Entry) error {
	err := backoff.RetryNotify(func() error {
		err := c.repo.Record(ctx, entry)
		switch {
		case err == nil:
			c.logger.Info("order recorded in ledger",
				zap.String("order_id", entry.OrderID),
				zap.String("event_type", entry.EventType),
				zap.Int64("amount", entry.Amount))
		case errors.Is(err, ErrDuplicateEntry):
			c.logger.Info("order already in ledger, skipping", zap.String("order_id", entry.OrderID))
			return nil
		}
		return err
	}, backoff.WithContext(c.newBackOff(), ctx), func(err error, wait time.Duration) {
		c.logger.Error("failed to record order, retrying",
			zap.String("order_id", entry.OrderID), zap.Duration("backoff", wait), zap.Error(err))
	})
	if err != nil {
		c.logger.Warn("order left unrecorded, offset not committed",
			zap.String("order_id", entry.OrderID), zap.Error(err))
		return err
	}
	return nil
}

// settles reports whether the event marks the order as a sale: COD orders on
// placement, online orders once paid.
func settles(eventType string, event *domain.OrderEvent) bool {
	switch eventType {
	case domain.EventOrderPlaced:
		return event.PaymentType == domain.PaymentCOD
	case domain.EventOrderPaid:
		return event.IsPaid
	default:
		return false
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
