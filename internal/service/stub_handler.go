package service

import (
	"context"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/model"
	"github.com/samims/notifyd/internal/notifier"
)

type notifyFunc func(ctx context.Context, kind model.DispatchKind, ev *model.Event) error

type stubHandler struct {
	channel model.Channel
	notify  notifyFunc
}

func NewEmailHandler(n notifier.Email) ChannelHandler {
	return &stubHandler{channel: model.ChannelEmail, notify: n.Notify}
}

func NewSMSHandler(n notifier.SMS) ChannelHandler {
	return &stubHandler{channel: model.ChannelSMS, notify: n.Notify}
}

// Handle passes the event on and reports it as a stub drop, since no delivery happens here.
func (h *stubHandler) Handle(ctx context.Context, kind model.DispatchKind, ev *model.Event) (string, error) {
	if err := h.notify(ctx, kind, ev); err != nil {
		return "", appErr.WrapDrop(appErr.ReasonChannelStub, err)
	}
	return "", appErr.NewDrop(appErr.ReasonChannelStub, "%s delivery is handled outside this service", h.channel)
}
