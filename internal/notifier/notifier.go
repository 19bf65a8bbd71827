package notifier

import (
	"context"
	"log/slog"

	"github.com/samims/notifyd/internal/model"
)

// Email delivers an event over email. The template and mail subsystem lives outside this service.
type Email interface {
	Notify(ctx context.Context, kind model.DispatchKind, ev *model.Event) error
}

// SMS delivers an event as a text message.
type SMS interface {
	Notify(ctx context.Context, kind model.DispatchKind, ev *model.Event) error
}

type logEmail struct {
	log *slog.Logger
}

// NewLogEmail returns an Email that records the request and sends nothing.
func NewLogEmail(logger *slog.Logger) Email {
	return &logEmail{log: logger.With("layer", "notifier", "component", "email")}
}

func (n *logEmail) Notify(ctx context.Context, kind model.DispatchKind, ev *model.Event) error {
	n.log.InfoContext(ctx, "Email handling not yet implemented",
		slog.String("kind", kind.String()),
		slog.String("customer_id", ev.CustomerIDString()),
		slog.Bool("has_address", ev.Email != ""),
	)
	return nil
}

type logSMS struct {
	log *slog.Logger
}

// NewLogSMS returns an SMS that records the request and sends nothing.
func NewLogSMS(logger *slog.Logger) SMS {
	return &logSMS{log: logger.With("layer", "notifier", "component", "sms")}
}

func (n *logSMS) Notify(ctx context.Context, kind model.DispatchKind, ev *model.Event) error {
	n.log.InfoContext(ctx, "SMS handling not yet implemented",
		slog.String("kind", kind.String()),
		slog.String("customer_id", ev.CustomerIDString()),
		slog.Bool("has_mobile", ev.Mobile != ""),
	)
	return nil
}
