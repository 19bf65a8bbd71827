package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/samims/notifyd/internal/config"
	"github.com/samims/notifyd/internal/service"
	"github.com/samims/notifyd/pkg/tracing"
)

// MessageReader is the subset of *kafkago.Reader used by ReaderGroup.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ReaderGroup is the segmentio/kafka-go alternative to Consumer: one reader per topic,
// all sharing the consumer group id.
type ReaderGroup struct {
	readers []MessageReader
	handler *MessageHandler
	tracer  tracing.TracerInterface
	log     *slog.Logger
}

func NewReaderGroup(cfg config.ConsumerConfig, handler *MessageHandler, tracer tracing.TracerInterface, log *slog.Logger) (*ReaderGroup, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker address is required")
	}
	topics := handler.Topics()
	readers := make([]MessageReader, 0, len(topics))
	for _, topic := range topics {
		readers = append(readers, kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    topic,
			GroupID:  cfg.KafkaConsumerGroup,
			MinBytes: 1,
			MaxBytes: 10e6,
			MaxWait:  500 * time.Millisecond,
		}))
	}
	return newReaderGroup(readers, handler, tracer, log), nil
}

func newReaderGroup(readers []MessageReader, handler *MessageHandler, tracer tracing.TracerInterface, log *slog.Logger) *ReaderGroup {
	return &ReaderGroup{
		readers: readers,
		handler: handler,
		tracer:  tracer,
		log:     log.With("layer", "kafka", "component", "readerGroup"),
	}
}

// Start runs every reader until ctx is cancelled, then closes them.
func (g *ReaderGroup) Start(ctx context.Context) error {
	eg, gctx := errgroup.WithContext(ctx)
	for _, r := range g.readers {
		eg.Go(func() error { return g.consumeLoop(gctx, r) })
	}
	err := eg.Wait()

	for _, r := range g.readers {
		if cerr := r.Close(); cerr != nil {
			g.log.Warn("Failed to close reader", slog.Any("error", cerr))
		}
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (g *ReaderGroup) consumeLoop(ctx context.Context, r MessageReader) error {
	backoff := time.Second
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			g.log.Error("Error fetching message", slog.Any("error", err), slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		g.consume(ctx, msg)

		if err := r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			g.log.Error("Failed to commit offset",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.Any("error", err),
			)
		}
	}
}

func (g *ReaderGroup) consume(ctx context.Context, msg kafkago.Message) {
	ctx = tracing.ExtractKafkaGoTraceContext(ctx, msg.Headers)
	ctx, span := g.tracer.StartConsumerSpan(ctx, "kafka.consume")
	defer span.End()
	g.tracer.AddKafkaAttributes(span, msg.Topic, "process", int32(msg.Partition), msg.Offset)

	if out := g.handler.Handle(ctx, msg.Topic, msg.Value); out.Status == service.StatusFailed {
		g.tracer.RecordError(span, out.Err)
	}
}
