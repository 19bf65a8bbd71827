package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/metrics"
	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/pkg/tracing"
)

// Status is the final state of one dispatch.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusDropped   Status = "dropped"
	StatusFailed    Status = "failed"
)

// Outcome is the structured result of one dispatch.
type Outcome struct {
	DispatchID string
	Kind       model.DispatchKind
	CustomerID string
	Status     Status
	Reason     appErr.DropReason
	DeliveryID string
	Err        error
}

// Dispatcher is the per-event entry point. Dispatch never panics and never returns an error;
// everything that goes wrong ends up in the Outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind model.DispatchKind, ev *model.Event) Outcome
}

type dispatcher struct {
	router ChannelRouter
	tracer tracing.TracerInterface
	logger *slog.Logger
}

func NewDispatcher(router ChannelRouter, tracer tracing.TracerInterface, logger *slog.Logger) Dispatcher {
	l := logger.With("layer", "service", "component", "dispatcher")
	return &dispatcher{router: router, tracer: tracer, logger: l}
}

func (d *dispatcher) Dispatch(ctx context.Context, kind model.DispatchKind, ev *model.Event) (out Outcome) {
	out = Outcome{
		DispatchID: uuid.NewString(),
		Kind:       kind,
		CustomerID: ev.CustomerIDString(),
	}

	ctx, span := d.tracer.StartSpan(ctx, "notification.dispatch")
	d.tracer.AddDispatchAttributes(span, kind.String(), out.CustomerID, ev.NotificationIDString(), ev.ChannelString())
	log := d.logger.With(
		slog.String("dispatch_id", out.DispatchID),
		slog.String("kind", kind.String()),
		slog.String("customer_id", out.CustomerID),
	)
	log.InfoContext(ctx, "Dispatch started",
		slog.String("notification_id", ev.NotificationIDString()),
		slog.String("channel", ev.ChannelString()),
	)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			out.Status = StatusFailed
			out.Reason = appErr.ReasonPanic
			out.DeliveryID = ""
			out.Err = fmt.Errorf("panic during dispatch: %v", rec)
		}
		d.finish(ctx, log, span, out, time.Since(start))
	}()

	id, err := d.router.Route(ctx, kind, ev)
	out.DeliveryID = id
	out.Err = err
	switch reason, isDrop := appErr.IsDrop(err); {
	case err == nil:
		out.Status = StatusDelivered
	case isDrop && reason == appErr.ReasonGatewayFailure:
		out.Status = StatusFailed
		out.Reason = reason
	case isDrop:
		out.Status = StatusDropped
		out.Reason = reason
	default:
		out.Status = StatusFailed
		out.Reason = appErr.ReasonInternal
	}
	return out
}

// finish writes the end marker and closes the span.
func (d *dispatcher) finish(ctx context.Context, log *slog.Logger, span trace.Span, out Outcome, elapsed time.Duration) {
	defer span.End()

	span.SetAttributes(
		attribute.String(tracing.AttrDispatchStatus, string(out.Status)),
		attribute.String(tracing.AttrDispatchReason, string(out.Reason)),
	)
	metrics.DispatchOutcomes.WithLabelValues(out.Kind.String(), string(out.Status), string(out.Reason)).Inc()
	metrics.DispatchDuration.WithLabelValues(out.Kind.String()).Observe(elapsed.Seconds())

	attrs := []any{
		slog.String("status", string(out.Status)),
		slog.Duration("duration", elapsed),
	}
	switch out.Status {
	case StatusDelivered:
		log.InfoContext(ctx, "Dispatch completed", append(attrs, slog.String("delivery_id", out.DeliveryID))...)
	case StatusDropped:
		log.InfoContext(ctx, "Dispatch completed without delivery",
			append(attrs, slog.String("reason", string(out.Reason)), slog.Any("error", out.Err))...)
	default:
		d.tracer.RecordError(span, out.Err)
		log.ErrorContext(ctx, "Dispatch failed",
			append(attrs, slog.String("reason", string(out.Reason)), slog.Any("error", out.Err))...)
	}
}
