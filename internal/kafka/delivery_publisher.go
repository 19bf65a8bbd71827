package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/storage"
	"github.com/samims/notifyd/pkg/tracing"
)

var ErrPublisherClosed = errors.New("delivery publisher closed")

// DeliveryPublisher writes delivery records to a Kafka topic instead of Postgres.
type DeliveryPublisher struct {
	asyncProducer sarama.AsyncProducer
	topic         string
	log           *slog.Logger
	tracer        tracing.TracerInterface
	wg            sync.WaitGroup
	mu            sync.RWMutex
	closed        bool
	closeOnce     sync.Once
}

var _ storage.DeliveryLog = (*DeliveryPublisher)(nil)

func NewDeliveryPublisher(asyncProducer sarama.AsyncProducer, topic string, tracer tracing.TracerInterface, log *slog.Logger) (*DeliveryPublisher, error) {
	if asyncProducer == nil || tracer == nil || log == nil {
		return nil, errors.New("NewDeliveryPublisher: nil dependencies provided")
	}
	if topic == "" {
		return nil, errors.New("NewDeliveryPublisher: topic must not be empty")
	}
	return &DeliveryPublisher{
		asyncProducer: asyncProducer,
		topic:         topic,
		tracer:        tracer,
		log:           log.With("layer", "kafka", "component", "deliveryPublisher"),
	}, nil
}

// Start drains the producer's success and error channels until they close.
func (p *DeliveryPublisher) Start() {
	p.log.Info("Starting delivery publisher handlers", slog.String("topic", p.topic))
	p.wg.Add(2)
	go p.handleSuccess()
	go p.handleErrors()
}

func (p *DeliveryPublisher) handleSuccess() {
	defer p.wg.Done()
	for msg := range p.asyncProducer.Successes() {
		p.log.Debug("Delivery record published",
			slog.String("topic", msg.Topic),
			slog.Int("partition", int(msg.Partition)),
			slog.Int64("offset", msg.Offset),
		)
	}
}

func (p *DeliveryPublisher) handleErrors() {
	defer p.wg.Done()
	for err := range p.asyncProducer.Errors() {
		p.log.Error("Delivery record publish failed",
			slog.String("topic", err.Msg.Topic),
			slog.Any("error", err.Err),
		)
	}
}

// Record queues rec. Delivery to the broker is asynchronous; failures after queueing are
// only logged.
func (p *DeliveryPublisher) Record(ctx context.Context, rec *model.DeliveryRecord) error {
	ctx, span := p.tracer.StartClientSpan(ctx, "kafka.publish",
		attribute.String(tracing.AttrMessagingSystem, "kafka"),
		attribute.String(tracing.AttrMessagingDestination, p.topic),
	)
	defer span.End()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		p.tracer.RecordError(span, err)
		return fmt.Errorf("failed to marshal delivery record: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(rec.CustomerID),
		Value:     sarama.ByteEncoder(data),
		Timestamp: rec.SentAt,
		Headers:   tracing.InjectTraceContext(ctx, nil),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		span.SetStatus(codes.Error, ErrPublisherClosed.Error())
		return ErrPublisherClosed
	}

	select {
	case p.asyncProducer.Input() <- msg:
		return nil
	case <-ctx.Done():
		p.log.WarnContext(ctx, "Publish cancelled by context", slog.String("record_id", rec.ID))
		p.tracer.RecordError(span, ctx.Err())
		return ctx.Err()
	}
}

// Close flushes the producer and waits for the channel handlers.
func (p *DeliveryPublisher) Close() {
	p.closeOnce.Do(func() {
		p.log.Info("Closing delivery publisher...")
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		p.asyncProducer.AsyncClose()
		p.wg.Wait()
		p.log.Info("Delivery publisher closed")
	})
}
