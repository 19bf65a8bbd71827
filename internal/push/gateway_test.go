package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/samims/notifyd/internal/config"
	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/storage"
	"github.com/samims/notifyd/pkg/tracing"
)

var longToken = strings.Repeat("t", 152)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testTracer() *tracing.Tracer {
	return tracing.NewTracer(noop.NewTracerProvider().Tracer("test"))
}

type captured struct {
	auth string
	body sendRequest
}

func newGatewayServer(t *testing.T, status int, respBody string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		got.auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newTestGateway(url string) Gateway {
	cfg := config.PushConfig{GatewayURL: url, APIKey: "secret", Timeout: 2 * time.Second}
	return NewHTTPGateway(cfg, &http.Client{Timeout: cfg.Timeout}, testTracer(), testLogger())
}

func TestHTTPGateway_Send(t *testing.T) {
	tests := []struct {
		name         string
		dataOnly     bool
		silent       bool
		wantPushType string
		wantPriority string
		wantNotify   bool
	}{
		{name: "message is an alert", dataOnly: true, silent: false, wantPushType: "alert", wantPriority: "10"},
		{name: "status is background", dataOnly: true, silent: true, wantPushType: "background", wantPriority: "5"},
		{name: "visible notification", dataOnly: false, silent: false, wantPushType: "alert", wantPriority: "10", wantNotify: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newGatewayServer(t, http.StatusOK, `{"name":"projects/p/messages/1"}`)
			gw := newTestGateway(srv.URL)

			data := map[string]string{"title": "Ann", "body": "hi", "customerId": "42"}
			id, err := gw.Send(context.Background(), longToken, data, tt.dataOnly, tt.silent)
			require.NoError(t, err)
			assert.Equal(t, "projects/p/messages/1", id)

			msg := got.body.Message
			assert.Equal(t, "Bearer secret", got.auth)
			assert.Equal(t, longToken, msg.Token)
			assert.Equal(t, "42", msg.Data["customerId"])
			assert.Equal(t, "HIGH", msg.Android.Priority)
			assert.Equal(t, tt.wantPushType, msg.APNS.Headers["apns-push-type"])
			assert.Equal(t, tt.wantPriority, msg.APNS.Headers["apns-priority"])
			assert.Equal(t, 1, msg.APNS.Payload.Aps.ContentAvailable)
			if tt.wantNotify {
				require.NotNil(t, msg.Notification)
				assert.Equal(t, "Ann", msg.Notification.Title)
				assert.Equal(t, clickAction, msg.Data["click_action"])
				require.NotNil(t, msg.Android.Notification)
				assert.Equal(t, androidChannelID, msg.Android.Notification.ChannelID)
			} else {
				assert.Nil(t, msg.Notification)
				assert.Nil(t, msg.Android.Notification)
				assert.NotContains(t, msg.Data, "click_action")
			}
			assert.NotContains(t, data, "click_action", "caller data must not be modified")
		})
	}
}

func TestHTTPGateway_SendFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		token   string
		wantMsg string
	}{
		{name: "gateway rejects", status: http.StatusBadRequest, body: `{"error":"INVALID_ARGUMENT"}`, token: longToken, wantMsg: "status 400"},
		{name: "missing id", status: http.StatusOK, body: `{}`, token: longToken, wantMsg: "no message id"},
		{name: "garbage response", status: http.StatusOK, body: `<html>`, token: longToken, wantMsg: "decode response"},
		{name: "empty token", status: http.StatusOK, body: `{"name":"x"}`, token: " ", wantMsg: "empty device token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newGatewayServer(t, tt.status, tt.body)
			gw := newTestGateway(srv.URL)

			id, err := gw.Send(context.Background(), tt.token, map[string]string{"a": "b"}, true, false)
			require.Error(t, err)
			assert.Empty(t, id)
			assert.ErrorIs(t, err, appErr.ErrGatewayFailed)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestHTTPGateway_ShortTokenStillSent(t *testing.T) {
	srv, got := newGatewayServer(t, http.StatusOK, `{"name":"ok"}`)
	gw := newTestGateway(srv.URL)

	id, err := gw.Send(context.Background(), "short", map[string]string{}, true, true)
	require.NoError(t, err)
	assert.Equal(t, "ok", id)
	assert.Equal(t, "short", got.body.Message.Token)
}

// blockingSink waits until its context ends, like a stalled database write.
type blockingSink struct {
	hadDeadline bool
	err         error
}

func (s *blockingSink) Record(ctx context.Context, _ *model.DeliveryRecord) error {
	_, s.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	s.err = ctx.Err()
	return s.err
}

func TestWithDeliveryLog(t *testing.T) {
	data := map[string]string{"customerId": "42", "notificationId": "1", "channel": "INAPP", "type": "MESSAGE"}

	t.Run("records success", func(t *testing.T) {
		next := NewMockGateway(t)
		sink := storage.NewMockDeliveryLog(t)
		next.On("Send", mock.Anything, "T", data, true, false).Return("msg-1", nil)
		sink.On("Record", mock.Anything, mock.MatchedBy(func(r *model.DeliveryRecord) bool {
			return r.Status == model.DeliverySuccess && r.DeliveryID == "msg-1" &&
				r.CustomerID == "42" && r.Channel == "INAPP" && r.Type == "MESSAGE"
		})).Return(nil)

		id, err := WithDeliveryLog(next, sink, time.Second, testLogger()).Send(context.Background(), "T", data, true, false)
		require.NoError(t, err)
		assert.Equal(t, "msg-1", id)
	})

	t.Run("records failure and keeps the send error", func(t *testing.T) {
		next := NewMockGateway(t)
		sink := storage.NewMockDeliveryLog(t)
		sendErr := errors.New("unavailable")
		next.On("Send", mock.Anything, "T", data, true, true).Return("", sendErr)
		sink.On("Record", mock.Anything, mock.MatchedBy(func(r *model.DeliveryRecord) bool {
			return r.Status == model.DeliveryFailure && r.Error == "unavailable"
		})).Return(errors.New("db down"))

		_, err := WithDeliveryLog(next, sink, time.Second, testLogger()).Send(context.Background(), "T", data, true, true)
		assert.Same(t, sendErr, err)
	})

	t.Run("slow sink is bounded by the record timeout", func(t *testing.T) {
		next := NewMockGateway(t)
		next.On("Send", mock.Anything, "T", data, true, false).Return("msg-2", nil)
		sink := &blockingSink{}

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		done := make(chan struct{})
		var id string
		var err error
		go func() {
			defer close(done)
			id, err = WithDeliveryLog(next, sink, 50*time.Millisecond, testLogger()).Send(ctx, "T", data, true, false)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Send did not return after the record timeout")
		}
		require.NoError(t, err)
		assert.Equal(t, "msg-2", id)
		assert.True(t, sink.hadDeadline)
		assert.ErrorIs(t, sink.err, context.DeadlineExceeded)
	})

	t.Run("nil sink returns the gateway unchanged", func(t *testing.T) {
		next := NewMockGateway(t)
		assert.Same(t, next, WithDeliveryLog(next, nil, time.Second, testLogger()))
	})
}
