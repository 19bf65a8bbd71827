package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracerInterface is the tracing surface the dispatch, push and kafka layers depend on.
type TracerInterface interface {
	StartSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	StartClientSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	StartConsumerSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	RecordError(span trace.Span, err error)
	AddAttributes(span trace.Span, attrs ...attribute.KeyValue)
	AddKafkaAttributes(span trace.Span, topic, operation string, partition int32, offset int64)
	AddDispatchAttributes(span trace.Span, kind, customerID, notificationID, channel string)
}

var _ TracerInterface = (*Tracer)(nil)
