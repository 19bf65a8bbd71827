package service

import (
	"strconv"
	"strings"

	appErr "github.com/samims/notifyd/internal/errors"
	"github.com/samims/notifyd/internal/model"
)

// Fixed payload field names read by the mobile clients.
const (
	FieldConversationID   = "conversationId"
	FieldGroupID          = "groupId"
	FieldIsGroup          = "isGroup"
	FieldGroupName        = "groupName"
	FieldType             = "type"
	FieldTitle            = "title"
	FieldBody             = "body"
	FieldMessage          = "message"
	FieldSampleMessage    = "sampleMessage"
	FieldSenderCustomerID = "senderCustomerId"
	FieldSenderMobile     = "senderMobile"
	FieldSenderPhone      = "senderPhone"
	FieldCustomerID       = "customerId"
	FieldNotificationID   = "notificationId"
	FieldChannel          = "channel"
	FieldSound            = "sound"
	FieldBadge            = "badge"
)

const (
	TypeMessage      = "MESSAGE"
	TypeStatusUpdate = "STATUS_UPDATE"

	GroupConversationPrefix = "group:"
	PlaceholderBody         = "New message"
	SoundNone               = "none"
	BadgeIncrement          = "1"
)

// PayloadBuilder turns a validated event and its endpoint into the data handed to the gateway.
// Failures are *errors.DropError values; nothing is sent for them.
type PayloadBuilder interface {
	BuildMessage(ev *model.Event, ep model.ResolvedEndpoint) (*model.DeliveryPayload, error)
	BuildStatus(ev *model.Event, ep model.ResolvedEndpoint) (*model.DeliveryPayload, error)
}

type payloadBuilder struct {
	appName string
}

// NewPayloadBuilder uses appName as the title when the sender has no display name.
func NewPayloadBuilder(appName string) PayloadBuilder {
	return &payloadBuilder{appName: appName}
}

// BuildMessage builds an alerting, data-only chat payload.
func (b *payloadBuilder) BuildMessage(ev *model.Event, ep model.ResolvedEndpoint) (*model.DeliveryPayload, error) {
	return b.build(model.KindMessage, ev, ep)
}

// BuildStatus builds a silent, data-only status payload.
func (b *payloadBuilder) BuildStatus(ev *model.Event, ep model.ResolvedEndpoint) (*model.DeliveryPayload, error) {
	return b.build(model.KindStatus, ev, ep)
}

func (b *payloadBuilder) build(kind model.DispatchKind, ev *model.Event, ep model.ResolvedEndpoint) (*model.DeliveryPayload, error) {
	if ev == nil {
		return nil, appErr.NewDrop(appErr.ReasonInvalidEvent, "event is nil")
	}

	conversationID := ev.ConversationID()
	if kind == model.KindMessage && conversationID == "" {
		return nil, appErr.NewDrop(appErr.ReasonMissingConversation, "customer %s: conversation id is empty", ev.CustomerIDString())
	}
	if !ep.Found {
		return nil, appErr.NewDrop(appErr.ReasonNoEndpoint, "customer %s: %s", ev.CustomerIDString(), ep.Outcome)
	}

	data := model.NewPayloadData()

	// raw copy; lists are already comma joined by Value.String
	ev.Attributes.Each(func(k string, v model.Value) {
		data.Set(k, v.String())
	})

	// resolved fields take precedence over the raw copy
	if conversationID != "" {
		data.Set(FieldConversationID, conversationID)
	}
	if groupID := ev.Attributes.String(model.KeyGroupID); groupID != "" {
		data.Set(FieldGroupID, groupID)
	}
	if isGroup, ok := resolveIsGroup(ev, conversationID); ok {
		data.Set(FieldIsGroup, strconv.FormatBool(isGroup))
	}
	if groupName := ev.Attributes.String(model.KeyGroupName); groupName != "" {
		data.Set(FieldGroupName, groupName)
	}

	switch kind {
	case model.KindMessage:
		data.Set(FieldType, TypeMessage)
		data.Set(FieldTitle, b.title(ev))
	case model.KindStatus:
		data.Set(FieldType, TypeStatusUpdate)
		data.Set(FieldSound, SoundNone)
		data.Set(FieldBadge, BadgeIncrement)
	}

	if ev.IsEncrypted() {
		for _, k := range model.MessageKeys() {
			data.Delete(k)
		}
	} else if kind == model.KindMessage {
		body := ev.Message()
		if strings.TrimSpace(body) == "" {
			body = PlaceholderBody
		}
		data.Set(FieldBody, body)
	}

	if senderID := ev.SenderCustomerID(); senderID != "" {
		data.Set(FieldSenderCustomerID, senderID)
	}
	if mobile := ev.SenderMobile(); mobile != "" {
		data.Set(FieldSenderMobile, mobile)
		data.Set(FieldSenderPhone, mobile)
	}
	data.Set(FieldCustomerID, ev.CustomerIDString())
	data.Set(FieldNotificationID, ev.NotificationIDString())
	data.Set(FieldChannel, ev.ChannelString())

	return &model.DeliveryPayload{
		Kind:     kind,
		Data:     data,
		DataOnly: true,
		Silent:   kind == model.KindStatus,
	}, nil
}

func (b *payloadBuilder) title(ev *model.Event) string {
	if name := ev.SenderName(); name != model.DefaultSenderName {
		return name
	}
	return b.appName
}

// resolveIsGroup prefers an explicit boolean and otherwise infers from the conversation prefix.
// The second result is false when there is nothing to report.
func resolveIsGroup(ev *model.Event, conversationID string) (bool, bool) {
	if v, ok := ev.Attributes.Get(model.KeyIsGroup); ok {
		if b, ok := v.Bool(); ok {
			return b, true
		}
	}
	if conversationID == "" {
		return false, false
	}
	return strings.HasPrefix(conversationID, GroupConversationPrefix), true
}
