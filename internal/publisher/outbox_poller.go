package publisher

import (
	"context"
	"time"

	"github.com/28Syed/Greencart-ecommerce/internal/domain"
	"github.com/28Syed/Greencart-ecommerce/internal/store"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic     = "order-events"
	eventTypeHeader  = "event_type"
	defaultBatchSize = 100
)

// MessageWriter is the part of *kafka.Writer the poller needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	purgeTick time.Duration
	retention time.Duration
	batchSize int
	outbox    store.OutboxStore
	writer    MessageWriter
	logger    *zap.Logger
}

type Config struct {
	Brokers   []string
	Topic     string
	Interval  time.Duration
	Retention time.Duration
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(outbox store.OutboxStore, writer MessageWriter, cfg Config, logger *zap.Logger) *OutboxPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	purgeTick := cfg.Retention / 4
	if purgeTick < time.Minute {
		purgeTick = time.Minute
	}
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: cfg.Interval,
		purgeTick: purgeTick,
		retention: cfg.Retention,
		batchSize: defaultBatchSize,
		outbox:    outbox,
		writer:    writer,
		logger:    logger,
	}
}

// Run publishes outbox events until ctx is done. Events are marked processed
// only after Kafka acknowledged them, so delivery is at least once.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	purgeTicker := time.NewTicker(p.purgeTick)
	defer eventTicker.Stop()
	defer purgeTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-purgeTicker.C:
			p.purgeProcessedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.outbox.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.logger.Warn("failed to publish event",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			// Keep per-order ordering: later events wait for the next tick
			break
		}

		if err := p.outbox.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark event as processed", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		published++
	}
	return published
}

func (p *OutboxPoller) purgeProcessedEvents(ctx context.Context) {
	deleted, err := p.outbox.DeleteProcessedEvents(ctx, time.Now().Add(-p.retention))
	if err != nil {
		p.logger.Error("failed to purge processed events", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("purged processed outbox events", zap.Int64("deleted", deleted))
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *domain.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id, keeps an order's events on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(event.EventType)},
		},
		Time: event.CreatedAt,
	}
	return p.writer.WriteMessages(ctx, msg)
}
