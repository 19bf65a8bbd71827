package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/service"
	"github.com/samims/notifyd/pkg/tracing"
)

const (
	messageTopic = "undelivered.notification.message"
	statusTopic  = "status.update.notification.message"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopTracer() *tracing.Tracer {
	return tracing.NewTracer(noop.NewTracerProvider().Tracer("test"))
}

type mockDispatcher struct {
	mock.Mock
}

func newMockDispatcher(t *testing.T) *mockDispatcher {
	m := &mockDispatcher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockDispatcher) Dispatch(ctx context.Context, kind model.DispatchKind, ev *model.Event) service.Outcome {
	args := m.Called(ctx, kind, ev)
	return args.Get(0).(service.Outcome)
}

func newTestHandler(d service.Dispatcher) *MessageHandler {
	return NewMessageHandler(map[string]model.DispatchKind{
		messageTopic: model.KindMessage,
		statusTopic:  model.KindStatus,
	}, d, discardLogger())
}

func customerIs(id int64) any {
	return mock.MatchedBy(func(ev *model.Event) bool {
		return ev != nil && ev.CustomerID != nil && *ev.CustomerID == id
	})
}
