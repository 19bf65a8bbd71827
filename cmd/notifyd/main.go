package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/samims/notifyd/internal/config"
	"github.com/samims/notifyd/internal/handler"
	"github.com/samims/notifyd/internal/kafka"
	"github.com/samims/notifyd/internal/logger"
	"github.com/samims/notifyd/internal/metrics"
	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/notifier"
	"github.com/samims/notifyd/internal/push"
	"github.com/samims/notifyd/internal/router"
	"github.com/samims/notifyd/internal/service"
	"github.com/samims/notifyd/internal/storage"
	"github.com/samims/notifyd/pkg/tracing"
)

// consumer is satisfied by both kafka.Consumer and kafka.ReaderGroup.
type consumer interface {
	Start(ctx context.Context) error
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.NewLogger(cfg.AppCfg.LogLevel)
	slog.SetDefault(l)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- OpenTelemetry Tracing Setup ----
	tracingCfg := tracing.NewConfig()
	if err := tracingCfg.Validate(); err != nil {
		l.Error("Invalid tracing configuration", slog.Any("error", err))
		os.Exit(1)
	}
	tracerShutdown, err := tracing.SetupTracing(ctx, tracingCfg, l)
	if err != nil {
		l.Error("Failed to initialize OpenTelemetry TracerProvider", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracingCfg.ShutdownTimeout)
		defer cancel()
		if err := tracerShutdown(shutdownCtx); err != nil {
			l.Error("Tracer shutdown failed", slog.Any("error", err))
		}
	}()
	tracer := tracing.NewTracer(tracing.GetTracer(tracingCfg.ServiceName))

	dbPool, err := storage.NewPostgresPool(ctx, cfg.DBConfig)
	if err != nil {
		l.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbPool.Close()
	ps := storage.NewPostgresStorage(dbPool)

	var wg sync.WaitGroup

	sink, closeSink, err := newDeliveryLog(cfg, ps, tracer, l)
	if err != nil {
		l.Error("Failed to create delivery log", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeSink()

	// Dispatch core
	resolver := service.NewEndpointResolver(ps, cfg.DispatchCfg.ResolverTimeout, l)
	builder := service.NewPayloadBuilder(cfg.AppCfg.Name)
	gateway := push.WithDeliveryLog(push.NewHTTPGateway(cfg.PushCfg, nil, tracer, l), sink, cfg.DeliveryLogCfg.RecordTimeout, l)
	channels := service.NewChannelRouter(map[model.Channel]service.ChannelHandler{
		model.ChannelInApp: service.NewPushHandler(resolver, builder, gateway, l),
		model.ChannelEmail: service.NewEmailHandler(notifier.NewLogEmail(l)),
		model.ChannelSMS:   service.NewSMSHandler(notifier.NewLogSMS(l)),
	}, l)
	dispatcher := service.NewDispatcher(channels, tracer, l)

	msgHandler := kafka.NewMessageHandler(map[string]model.DispatchKind{
		cfg.ConsumerConfig.MessageTopic: model.KindMessage,
		cfg.ConsumerConfig.StatusTopic:  model.KindStatus,
	}, dispatcher, l)
	kc, err := newConsumer(cfg.ConsumerConfig, msgHandler, tracer, l)
	if err != nil {
		l.Error("Failed to create Kafka consumer", slog.Any("error", err))
		os.Exit(1)
	}

	healthHandler := handler.NewHealthHandler(service.NewHealthService(ps, l), l)
	server := &http.Server{
		Addr:              ":" + cfg.AppCfg.Port,
		Handler:           router.NewRouter(healthHandler, tracingCfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Error("Kafka consumer stopped with error", slog.Any("error", err))
			stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Info("Server started", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("Server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("Server shutdown failed", slog.Any("error", err))
	}

	wg.Wait()
	l.Info("Service shut down gracefully")
}

func newConsumer(cfg config.ConsumerConfig, h *kafka.MessageHandler, tracer tracing.TracerInterface, l *slog.Logger) (consumer, error) {
	if cfg.Client == config.KafkaClientSegment {
		return kafka.NewReaderGroup(cfg, h, tracer, l)
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Version = sarama.V2_1_0_0
	saramaCfg.Consumer.Return.Errors = true
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	group, err := sarama.NewConsumerGroup(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, saramaCfg)
	if err != nil {
		return nil, err
	}
	return kafka.NewKafkaConsumer(group, h, tracer, l), nil
}

// newDeliveryLog returns the configured sink and its close function. A nil sink disables
// delivery logging.
func newDeliveryLog(cfg *config.Config, ps *storage.PostgresStorage, tracer tracing.TracerInterface, l *slog.Logger) (storage.DeliveryLog, func(), error) {
	switch cfg.DeliveryLogCfg.Sink {
	case config.DeliveryLogNone:
		return nil, func() {}, nil
	case config.DeliveryLogKafka:
		saramaCfg := sarama.NewConfig()
		saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
		saramaCfg.Producer.Retry.Max = 5
		saramaCfg.Producer.Return.Successes = true
		saramaCfg.ClientID = "notifyd-delivery-log"

		producer, err := sarama.NewAsyncProducer(cfg.ConsumerConfig.KafkaBrokers, saramaCfg)
		if err != nil {
			return nil, nil, err
		}
		pub, err := kafka.NewDeliveryPublisher(producer, cfg.DeliveryLogCfg.Topic, tracer, l)
		if err != nil {
			_ = producer.Close()
			return nil, nil, err
		}
		pub.Start()
		return pub, pub.Close, nil
	default:
		return ps, func() {}, nil
	}
}
