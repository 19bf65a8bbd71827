package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/push"
)

type pushHandler struct {
	resolver EndpointResolver
	builder  PayloadBuilder
	gateway  push.Gateway
	logger   *slog.Logger
}

// NewPushHandler handles in-app events: only direct notifications are delivered,
// template-backed ones are logged and deferred.
func NewPushHandler(resolver EndpointResolver, builder PayloadBuilder, gateway push.Gateway, logger *slog.Logger) ChannelHandler {
	l := logger.With("layer", "service", "component", "pushHandler")
	return &pushHandler{resolver: resolver, builder: builder, gateway: gateway, logger: l}
}

func (h *pushHandler) Handle(ctx context.Context, kind model.DispatchKind, ev *model.Event) (string, error) {
	customerID := ev.CustomerIDString()

	if !ev.IsDirect() {
		h.logger.InfoContext(ctx, "Template-backed notification, would fetch template",
			slog.String("notification_id", ev.NotificationIDString()),
			slog.String("customer_id", customerID),
		)
		return "", appErr.NewDrop(appErr.ReasonTemplateDeferred, "notification id %s", ev.NotificationIDString())
	}

	if err := h.precheck(kind, ev); err != nil {
		h.logger.WarnContext(ctx, "Event content incomplete, aborting dispatch",
			slog.String("customer_id", customerID),
			slog.Any("error", err),
		)
		return "", err
	}

	ep := h.resolver.Resolve(ctx, *ev.CustomerID)

	var (
		payload *model.DeliveryPayload
		err     error
	)
	switch kind {
	case model.KindStatus:
		payload, err = h.builder.BuildStatus(ev, ep)
	default:
		payload, err = h.builder.BuildMessage(ev, ep)
	}
	if err != nil {
		return "", err
	}

	data := payload.Data.Map()
	h.logger.InfoContext(ctx, "Sending push payload",
		slog.String("customer_id", customerID),
		slog.String("kind", kind.String()),
		slog.Bool("encrypted", ev.IsEncrypted()),
		slog.Any("data", model.SanitizeForLog(data)),
	)

	id, err := h.gateway.Send(ctx, ep.Token, data, payload.DataOnly, payload.Silent)
	if err != nil {
		return "", appErr.WrapDrop(appErr.ReasonGatewayFailure, fmt.Errorf("customer %s: %w", customerID, err))
	}
	return id, nil
}

// precheck enforces content rules that do not need an endpoint.
func (h *pushHandler) precheck(kind model.DispatchKind, ev *model.Event) error {
	switch kind {
	case model.KindStatus:
		if ev.Attributes.Len() == 0 {
			return appErr.NewDrop(appErr.ReasonMissingStatusData, "status update carries no attributes")
		}
	default:
		// encrypted events carry their content in the ciphertext
		if !ev.IsEncrypted() && strings.TrimSpace(ev.Message()) == "" {
			return appErr.NewDrop(appErr.ReasonMissingMessage, "message text is empty")
		}
	}
	return nil
}
