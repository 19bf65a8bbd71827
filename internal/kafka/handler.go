package kafka

import (
	"context"
	"log/slog"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/metrics"
	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/service"
)

// MessageHandler turns one transport message into one dispatch. The topic decides the
// dispatch kind; nothing in the payload can change it.
type MessageHandler struct {
	kinds      map[string]model.DispatchKind
	dispatcher service.Dispatcher
	log        *slog.Logger
}

func NewMessageHandler(kinds map[string]model.DispatchKind, dispatcher service.Dispatcher, log *slog.Logger) *MessageHandler {
	table := make(map[string]model.DispatchKind, len(kinds))
	for topic, kind := range kinds {
		table[topic] = kind
	}
	return &MessageHandler{
		kinds:      table,
		dispatcher: dispatcher,
		log:        log.With("layer", "kafka", "component", "messageHandler"),
	}
}

// Topics lists the topics the handler has a kind for.
func (h *MessageHandler) Topics() []string {
	topics := make([]string, 0, len(h.kinds))
	for topic := range h.kinds {
		topics = append(topics, topic)
	}
	return topics
}

// Handle never fails: undecodable payloads are logged and dropped so the offset can move on.
func (h *MessageHandler) Handle(ctx context.Context, topic string, value []byte) service.Outcome {
	kind, ok := h.kinds[topic]
	if !ok {
		h.log.WarnContext(ctx, "Message from unmapped topic, skipping", slog.String("topic", topic))
		metrics.ConsumedMessages.WithLabelValues(topic, "unmapped").Inc()
		return service.Outcome{
			Status: service.StatusDropped,
			Reason: appErr.ReasonDecodeFailure,
			Err:    appErr.NewDrop(appErr.ReasonDecodeFailure, "no dispatch kind for topic %q", topic),
		}
	}

	ev, err := model.DecodeEvent(value)
	if err != nil {
		// skip the gibberish messages
		h.log.ErrorContext(ctx, "Failed to decode message",
			slog.String("topic", topic),
			slog.Int("size", len(value)),
			slog.Any("error", err),
		)
		metrics.ConsumedMessages.WithLabelValues(topic, "decode_error").Inc()
		return service.Outcome{
			Kind:   kind,
			Status: service.StatusDropped,
			Reason: appErr.ReasonDecodeFailure,
			Err:    appErr.WrapDrop(appErr.ReasonDecodeFailure, err),
		}
	}
	metrics.ConsumedMessages.WithLabelValues(topic, "decoded").Inc()

	h.log.DebugContext(ctx, "Event decoded",
		slog.String("topic", topic),
		slog.String("customer_id", ev.CustomerIDString()),
		slog.Any("attributes", model.SanitizedAttributes(ev.Attributes)),
	)

	return h.dispatcher.Dispatch(ctx, kind, ev)
}
