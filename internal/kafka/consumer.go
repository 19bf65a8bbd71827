package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/samims/notifyd/internal/service"
	"github.com/samims/notifyd/pkg/tracing"
)

const maxBackoff = 30 * time.Second

// Consumer reads the notification topics through a sarama consumer group.
type Consumer struct {
	topics        []string
	consumerGroup sarama.ConsumerGroup
	handler       *MessageHandler
	tracer        tracing.TracerInterface
	log           *slog.Logger
}

// NewKafkaConsumer receives its consumer group via dependency injection.
func NewKafkaConsumer(
	consumerGroup sarama.ConsumerGroup,
	handler *MessageHandler,
	tracer tracing.TracerInterface,
	log *slog.Logger,
) *Consumer {
	return &Consumer{
		topics:        handler.Topics(),
		consumerGroup: consumerGroup,
		handler:       handler,
		tracer:        tracer,
		log:           log.With("layer", "kafka", "component", "consumer"),
	}
}

// Start blocks until the context is canceled or the consumer group is closed.
func (c *Consumer) Start(ctx context.Context) error {
	defer func() {
		if err := c.consumerGroup.Close(); err != nil {
			c.log.Warn("Failed to close consumer group", slog.Any("error", err))
		}
	}()

	c.log.Info("Kafka consumer started", slog.Any("topics", c.topics))

	backoff := time.Second
	for {
		err := c.consumerGroup.Consume(ctx, c.topics, c)
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return err
			}
			c.log.Error("Error consuming messages", slog.Any("error", err), slog.Duration("backoff", backoff))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if ctx.Err() != nil {
			c.log.Info("Context cancelled, stopping consumer")
			return ctx.Err()
		}
	}
}

// Setup is called once when a new consumer session starts.
func (c *Consumer) Setup(session sarama.ConsumerGroupSession) error {
	for topic, partitions := range session.Claims() {
		c.log.Info("Partition assignment",
			slog.String("topic", topic),
			slog.Any("partitions", partitions),
		)
	}
	return nil
}

// Cleanup is called once when the consumer session ends (rebalance, shutdown, etc).
func (c *Consumer) Cleanup(_ sarama.ConsumerGroupSession) error {
	c.log.Info("Kafka session cleanup complete")
	return nil
}

// ConsumeClaim dispatches each message and marks it. Dispatch reports its result as an
// outcome rather than an error, so every message is marked once handled.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		c.consume(session.Context(), message)
		session.MarkMessage(message, "")
	}
	return nil
}

func (c *Consumer) consume(ctx context.Context, message *sarama.ConsumerMessage) {
	ctx = tracing.ExtractTraceContext(ctx, message.Headers)
	ctx, span := c.tracer.StartConsumerSpan(ctx, "kafka.consume")
	defer span.End()
	c.tracer.AddKafkaAttributes(span, message.Topic, "process", message.Partition, message.Offset)

	c.log.DebugContext(ctx, "Message received",
		slog.String("topic", message.Topic),
		slog.Int("partition", int(message.Partition)),
		slog.Int64("offset", message.Offset),
	)

	if out := c.handler.Handle(ctx, message.Topic, message.Value); out.Status == service.StatusFailed {
		c.tracer.RecordError(span, out.Err)
	}
}
