package service

import (
	"context"
	"log/slog"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/model"
)

// ChannelHandler delivers a validated event on one channel. A nil error means the event was
// handed to the channel; drops come back as *errors.DropError.
type ChannelHandler interface {
	Handle(ctx context.Context, kind model.DispatchKind, ev *model.Event) (deliveryID string, err error)
}

// ChannelRouter validates an event and hands it to exactly one channel handler.
type ChannelRouter interface {
	Route(ctx context.Context, kind model.DispatchKind, ev *model.Event) (deliveryID string, err error)
}

type channelRouter struct {
	handlers map[model.Channel]ChannelHandler
	logger   *slog.Logger
}

// NewChannelRouter copies handlers; the table is fixed after construction.
func NewChannelRouter(handlers map[model.Channel]ChannelHandler, logger *slog.Logger) ChannelRouter {
	table := make(map[model.Channel]ChannelHandler, len(handlers))
	for ch, h := range handlers {
		table[ch] = h
	}
	l := logger.With("layer", "service", "component", "channelRouter")
	return &channelRouter{handlers: table, logger: l}
}

func (r *channelRouter) Route(ctx context.Context, kind model.DispatchKind, ev *model.Event) (string, error) {
	if err := ev.Validate(); err != nil {
		r.logger.WarnContext(ctx, "Dropping invalid event", slog.Any("error", err))
		return "", appErr.WrapDrop(appErr.ReasonInvalidEvent, err)
	}

	h, ok := r.handlers[*ev.Channel]
	if !ok {
		r.logger.WarnContext(ctx, "Unsupported channel, dropping event",
			slog.String("channel", ev.ChannelString()),
			slog.String("customer_id", ev.CustomerIDString()),
		)
		return "", appErr.NewDrop(appErr.ReasonUnsupportedChannel, "channel %s", ev.ChannelString())
	}

	r.logger.DebugContext(ctx, "Routing event",
		slog.String("channel", ev.ChannelString()),
		slog.String("kind", kind.String()),
		slog.String("customer_id", ev.CustomerIDString()),
	)
	return h.Handle(ctx, kind, ev)
}
