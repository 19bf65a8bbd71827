package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewTracer(tp.Tracer("test")), rec
}

func TestTraceContext_RoundTrip(t *testing.T) {
	tr, _ := newRecordingTracer(t)
	ctx, span := tr.StartClientSpan(context.Background(), "publish")
	defer span.End()

	headers := InjectTraceContext(ctx, []sarama.RecordHeader{{Key: []byte("k"), Value: []byte("v")}})
	require.GreaterOrEqual(t, len(headers), 2)
	assert.Equal(t, "k", string(headers[0].Key))

	consumed := make([]*sarama.RecordHeader, 0, len(headers))
	kgHeaders := make([]kafkago.Header, 0, len(headers))
	for i := range headers {
		consumed = append(consumed, &headers[i])
		kgHeaders = append(kgHeaders, kafkago.Header{Key: string(headers[i].Key), Value: headers[i].Value})
	}
	consumed = append(consumed, nil)

	want := span.SpanContext().TraceID()
	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), consumed))
	assert.Equal(t, want, got.TraceID())

	got = trace.SpanContextFromContext(ExtractKafkaGoTraceContext(context.Background(), kgHeaders))
	assert.Equal(t, want, got.TraceID())
	assert.True(t, got.IsRemote())
}

func TestTracer_SpansAndErrors(t *testing.T) {
	tr, rec := newRecordingTracer(t)

	_, span := tr.StartConsumerSpan(context.Background(), "consume")
	tr.AddKafkaAttributes(span, "topic-a", "process", 3, 99)
	tr.AddDispatchAttributes(span, "message", "42", "1", "INAPP")
	tr.RecordError(span, errors.New("boom"))
	tr.RecordError(span, nil)
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindConsumer, spans[0].SpanKind())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "topic-a", attrs[AttrMessagingDestination])
	assert.Equal(t, "99", attrs[AttrMessagingKafkaOffset])
	assert.Equal(t, "42", attrs[AttrDispatchCustomerID])
	assert.Equal(t, "INAPP", attrs[AttrDispatchChannel])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty service", mutate: func(c *Config) { c.ServiceName = "" }, wantField: "ServiceName"},
		{name: "empty endpoint", mutate: func(c *Config) { c.OTLPExporterEndpoint = "" }, wantField: "OTLPExporterEndpoint"},
		{name: "ratio above one", mutate: func(c *Config) { c.SamplingRatio = 1.5 }, wantField: "SamplingRatio"},
		{name: "unknown sampler", mutate: func(c *Config) { c.SamplingType = "rate_limiting" }, wantField: "SamplingType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestSetupTracing_Disabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	cfg := NewConfig()

	shutdown, err := SetupTracing(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewSampler(t *testing.T) {
	c := NewConfig()
	c.SamplingType = "always_off"
	assert.Equal(t, sdktrace.NeverSample().Description(), newSampler(c).Description())

	c.SamplingType = "probabilistic"
	c.SamplingRatio = 0.25
	assert.Contains(t, newSampler(c).Description(), "TraceIDRatioBased{0.25}")
}
