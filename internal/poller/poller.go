package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/cache"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	consumerGroup = "storefront-cart-evictor"

	readRetryInitialDelay = 100 * time.Millisecond
	readRetryMaxDelay     = 10 * time.Second
)

// MessageReader is the part of *kafka.Reader the poller needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller drops a user's cached cart whenever one of their orders is placed or paid,
// so a cache entry written before the checkout committed cannot outlive it.
type Poller struct {
	reader MessageReader
	cache  cache.CartCache
	logger *zap.Logger
	// newBackOff paces reads after the broker fails.
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

func NewPoller(reader MessageReader, c cache.CartCache, logger *zap.Logger) *Poller {
	return &Poller{reader: reader, cache: c, logger: logger, newBackOff: readBackOff}
}

func readBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = readRetryInitialDelay
	policy.MaxInterval = readRetryMaxDelay
	policy.MaxElapsedTime = 0
	return policy
}

func (p *Poller) Run(ctx context.Context) {
	for ctx.Err() == nil {
		_ = backoff.RetryNotify(func() error {
			return p.evictFromNextMessage(ctx)
		}, backoff.WithContext(p.newBackOff(), ctx), func(err error, wait time.Duration) {
			p.logger.Warn("error reading message, backing off", zap.Duration("backoff", wait), zap.Error(err))
		})
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing reader", zap.Error(err))
	}
}

type orderPayload struct {
	UserID string `json:"user_id"`
}

// evictFromNextMessage returns an error only when the read itself failed.
func (p *Poller) evictFromNextMessage(ctx context.Context) error {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	var payload orderPayload
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		p.logger.Warn("error parsing message", zap.ByteString("key", m.Key), zap.Error(err))
		return nil
	}
	if payload.UserID == "" {
		p.logger.Warn("message without user_id", zap.ByteString("key", m.Key))
		return nil
	}

	if err := p.cache.Delete(ctx, payload.UserID); err != nil {
		p.logger.Warn("failed to delete cached cart", zap.String("user_id", payload.UserID), zap.Error(err))
	}
	return nil
}
