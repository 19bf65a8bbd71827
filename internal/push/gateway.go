package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samims/notifyd/internal/config"
	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/metrics"
	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/pkg/tracing"
)

// Gateway delivers one payload to one device token and returns the gateway's delivery id.
type Gateway interface {
	Send(ctx context.Context, token string, data map[string]string, dataOnly, silent bool) (string, error)
}

const (
	androidChannelID = "odin_messenger_channel"
	clickAction      = "FLUTTER_NOTIFICATION_CLICK"
	minTokenLength   = 100
	maxErrorBody     = 4 << 10
)

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string            `json:"token"`
	Data         map[string]string `json:"data,omitempty"`
	Notification *notification     `json:"notification,omitempty"`
	Android      androidConfig     `json:"android"`
	APNS         apnsConfig        `json:"apns"`
}

type notification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

type androidConfig struct {
	Priority     string               `json:"priority"`
	Notification *androidNotification `json:"notification,omitempty"`
}

type androidNotification struct {
	Title       string `json:"title,omitempty"`
	Body        string `json:"body,omitempty"`
	ChannelID   string `json:"channel_id"`
	ClickAction string `json:"click_action"`
}

type apnsConfig struct {
	Headers map[string]string `json:"headers"`
	Payload apnsPayload       `json:"payload"`
}

type apnsPayload struct {
	Aps aps `json:"aps"`
}

type aps struct {
	ContentAvailable int `json:"content-available"`
}

type sendResponse struct {
	Name string `json:"name"`
}

type httpGateway struct {
	client *http.Client
	url    string
	apiKey string
	tracer tracing.TracerInterface
	log    *slog.Logger
}

// NewHTTPGateway posts FCM v1 style messages to cfg.GatewayURL.
// A nil client gets one with cfg.Timeout and an OpenTelemetry transport.
func NewHTTPGateway(cfg config.PushConfig, client *http.Client, tracer tracing.TracerInterface, logger *slog.Logger) Gateway {
	if client == nil {
		client = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	l := logger.With("layer", "push", "component", "httpGateway")
	return &httpGateway{
		client: client,
		url:    cfg.GatewayURL,
		apiKey: cfg.APIKey,
		tracer: tracer,
		log:    l,
	}
}

func (g *httpGateway) Send(ctx context.Context, token string, data map[string]string, dataOnly, silent bool) (string, error) {
	ctx, span := g.tracer.StartClientSpan(ctx, "push.send",
		attribute.Bool(tracing.AttrPushDataOnly, dataOnly),
		attribute.Bool(tracing.AttrPushSilent, silent),
	)
	defer span.End()

	start := time.Now()
	id, err := g.send(ctx, token, data, dataOnly, silent)
	result := "success"
	if err != nil {
		result = "failure"
		g.tracer.RecordError(span, err)
	} else {
		span.SetAttributes(attribute.String(tracing.AttrPushResultID, id))
	}
	metrics.PushSends.WithLabelValues(result).Inc()
	metrics.PushSendDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return id, err
}

func (g *httpGateway) send(ctx context.Context, token string, data map[string]string, dataOnly, silent bool) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: empty device token", appErr.ErrGatewayFailed)
	}
	if len(token) < minTokenLength {
		g.log.WarnContext(ctx, "Device token appears to be too short, may be invalid", slog.Int("length", len(token)))
	}

	body, err := json.Marshal(sendRequest{Message: buildMessage(token, data, dataOnly, silent)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	g.log.InfoContext(ctx, "Sending push",
		slog.Bool("data_only", dataOnly),
		slog.Bool("silent", silent),
		slog.Any("data", model.SanitizeForLog(data)),
	)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrGatewayFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: status %d: %s", appErr.ErrGatewayFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", appErr.ErrGatewayFailed, err)
	}
	if out.Name == "" {
		return "", fmt.Errorf("%w: response carried no message id", appErr.ErrGatewayFailed)
	}

	g.log.InfoContext(ctx, "Push sent", slog.String("delivery_id", out.Name))
	return out.Name, nil
}

// buildMessage maps the two delivery flags onto platform options.
// Silent pushes are background/5 on APNs, alerts are alert/10; Android is always high priority
// so data-only messages wake the device.
func buildMessage(token string, data map[string]string, dataOnly, silent bool) message {
	m := message{
		Token:   token,
		Data:    data,
		Android: androidConfig{Priority: "HIGH"},
		APNS: apnsConfig{
			Headers: map[string]string{
				"apns-push-type": "alert",
				"apns-priority":  "10",
			},
			Payload: apnsPayload{Aps: aps{ContentAvailable: 1}},
		},
	}
	if silent {
		m.APNS.Headers["apns-push-type"] = "background"
		m.APNS.Headers["apns-priority"] = "5"
	}
	if !dataOnly {
		withClick := make(map[string]string, len(data)+1)
		for k, v := range data {
			withClick[k] = v
		}
		withClick["click_action"] = clickAction
		m.Data = withClick
		m.Notification = &notification{Title: data["title"], Body: data["body"]}
		m.Android.Notification = &androidNotification{
			Title:       data["title"],
			Body:        data["body"],
			ChannelID:   androidChannelID,
			ClickAction: clickAction,
		}
	}
	return m
}
