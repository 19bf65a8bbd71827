package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// SetupTracing installs the global tracer provider and propagator.
// The returned function flushes spans and closes the collector connection.
func SetupTracing(ctx context.Context, config *Config, logger *slog.Logger) (func(context.Context) error, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	setPropagator()
	if !config.Enabled {
		logger.Info("Tracing disabled, spans will not be exported")
		return func(context.Context) error { return nil }, nil
	}

	logger.Info("Initializing OpenTelemetry Tracer",
		slog.String("service", config.ServiceName),
		slog.String("collector", config.OTLPExporterEndpoint),
	)

	creds := credentials.NewClientTLSFromCert(nil, "")
	if config.OTLPExporterInsecure {
		creds = insecure.NewCredentials()
	}
	conn, err := grpc.NewClient(config.OTLPExporterEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(resourceAttributes(config)...),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(config)),
	)
	otel.SetTracerProvider(tp)

	shutdown := func(ctx context.Context) error {
		logger.Info("Shutting down TracerProvider")
		return errors.Join(tp.Shutdown(ctx), conn.Close())
	}
	return shutdown, nil
}

func setPropagator() {
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
}

func resourceAttributes(config *Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		semconv.DeploymentEnvironment(config.Environment),
		attribute.String("service.namespace", "notifyd"),
	}
	if config.InstanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(config.InstanceID))
	}
	return attrs
}

func newSampler(config *Config) sdktrace.Sampler {
	switch config.SamplingType {
	case "always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "always_off":
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SamplingRatio))
	}
}
