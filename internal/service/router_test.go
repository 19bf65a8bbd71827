package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/model"
)

type mockChannelHandler struct {
	mock.Mock
}

func newMockChannelHandler(t *testing.T) *mockChannelHandler {
	m := &mockChannelHandler{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockChannelHandler) Handle(ctx context.Context, kind model.DispatchKind, ev *model.Event) (string, error) {
	args := m.Called(ctx, kind, ev)
	return args.String(0), args.Error(1)
}

func Test_channelRouter_Route_invalidEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   *model.Event
	}{
		{name: "nil event"},
		{name: "missing customer", ev: &model.Event{NotificationID: int64Ptr(1), Channel: channelPtr(model.ChannelInApp)}},
		{name: "missing notification", ev: &model.Event{CustomerID: int64Ptr(1), Channel: channelPtr(model.ChannelInApp)}},
		{name: "missing channel", ev: &model.Event{CustomerID: int64Ptr(1), NotificationID: int64Ptr(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no expectations: any call to Handle fails the test
			h := newMockChannelHandler(t)
			r := NewChannelRouter(map[model.Channel]ChannelHandler{model.ChannelInApp: h}, discardLogger())

			id, err := r.Route(context.Background(), model.KindMessage, tt.ev)
			assert.Empty(t, id)
			reason, ok := appErr.IsDrop(err)
			require.True(t, ok)
			assert.Equal(t, appErr.ReasonInvalidEvent, reason)
		})
	}
}

func Test_channelRouter_Route(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches to the channel handler", func(t *testing.T) {
		ev := directEvent("conversationId", "c1")
		inApp := newMockChannelHandler(t)
		inApp.On("Handle", ctx, model.KindMessage, ev).Return("msg-1", nil).Once()
		email := newMockChannelHandler(t)

		r := NewChannelRouter(map[model.Channel]ChannelHandler{
			model.ChannelInApp: inApp,
			model.ChannelEmail: email,
		}, discardLogger())

		id, err := r.Route(ctx, model.KindMessage, ev)
		require.NoError(t, err)
		assert.Equal(t, "msg-1", id)
	})

	t.Run("unregistered channel", func(t *testing.T) {
		ev := directEvent()
		ev.Channel = channelPtr(model.ChannelSMS)
		inApp := newMockChannelHandler(t)

		r := NewChannelRouter(map[model.Channel]ChannelHandler{model.ChannelInApp: inApp}, discardLogger())

		_, err := r.Route(ctx, model.KindStatus, ev)
		reason, ok := appErr.IsDrop(err)
		require.True(t, ok)
		assert.Equal(t, appErr.ReasonUnsupportedChannel, reason)
	})

	t.Run("table is copied at construction", func(t *testing.T) {
		handlers := map[model.Channel]ChannelHandler{}
		r := NewChannelRouter(handlers, discardLogger())
		handlers[model.ChannelInApp] = newMockChannelHandler(t)

		_, err := r.Route(ctx, model.KindMessage, directEvent())
		reason, _ := appErr.IsDrop(err)
		assert.Equal(t, appErr.ReasonUnsupportedChannel, reason)
	})
}
