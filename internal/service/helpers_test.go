package service

import (
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/pkg/tracing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopTracer() *tracing.Tracer {
	return tracing.NewTracer(noop.NewTracerProvider().Tracer("test"))
}

func int64Ptr(v int64) *int64 { return &v }

func channelPtr(c model.Channel) *model.Channel { return &c }

// directEvent builds a direct in-app event for customer 42.
func directEvent(pairs ...any) *model.Event {
	return &model.Event{
		CustomerID:     int64Ptr(42),
		NotificationID: int64Ptr(model.DirectNotificationID),
		Channel:        channelPtr(model.ChannelInApp),
		Attributes:     model.NewAttributes(pairs...),
	}
}

func foundEndpoint(token string) model.ResolvedEndpoint {
	return model.ResolvedEndpoint{CustomerID: 42, Token: token, Found: true, Outcome: model.OutcomeFound}
}
