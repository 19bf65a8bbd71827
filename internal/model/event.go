package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Channel is the delivery channel requested by the producer.
type Channel string

const (
	ChannelInApp Channel = "INAPP"
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// ErrUnknownChannel is returned when an event names a channel outside the closed set.
var ErrUnknownChannel = errors.New("unknown notification channel")

// ParseChannel accepts the canonical names case-insensitively, plus IN_APP.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INAPP", "IN_APP":
		return ChannelInApp, nil
	case "EMAIL":
		return ChannelEmail, nil
	case "SMS":
		return ChannelSMS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
}

func (c Channel) String() string { return string(c) }

// DirectNotificationID marks an event whose content travels inline, with no template lookup.
const DirectNotificationID int64 = 1

// Attribute keys read by the derived accessors.
const (
	KeyConversationID   = "conversationId"
	KeyGroupID          = "groupId"
	KeyIsGroup          = "isGroup"
	KeyGroupName        = "groupName"
	KeyMessage          = "message"
	KeyBody             = "body"
	KeySampleMessage    = "sampleMessage"
	KeyText             = "text"
	KeySenderMobile     = "senderMobile"
	KeySenderPhone      = "senderPhone"
	KeySenderCustomerID = "senderCustomerId"
	KeySenderID         = "senderId"
	KeySenderName       = "senderName"
	KeyCiphertext       = "ciphertext"
	KeyIV               = "iv"
	KeyTag              = "tag"
	KeyFileIDs          = "fileIds"
)

// DefaultSenderName is returned by SenderName when no name key is present.
const DefaultSenderName = "Unknown"

var (
	senderNameKeys   = []string{KeySenderName, "senderDisplayName", "displayName", "name"}
	messageKeys      = []string{KeyMessage, KeyBody, KeySampleMessage, KeyText}
	senderMobileKeys = []string{KeySenderMobile, KeySenderPhone, "mobile"}
	senderIDKeys     = []string{KeySenderCustomerID, KeySenderID}
)

// Event is one inbound notification occurrence.
// CustomerID, NotificationID and Channel are pointers so a missing field is distinguishable
// from a zero value; Validate enforces their presence.
type Event struct {
	CustomerID     *int64     `json:"customerId"`
	NotificationID *int64     `json:"notificationId"`
	Channel        *Channel   `json:"channel"`
	Mobile         string     `json:"mobile,omitempty"`
	Email          string     `json:"email,omitempty"`
	Attributes     Attributes `json:"map"`
}

// DecodeEvent decodes a transport payload into an Event.
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// UnmarshalJSON reads the first-class fields, then the open map, then folds any unknown
// top-level key into Attributes without overwriting what is already there.
func (e *Event) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	var out Event
	var extras []rawField
	var openMaps []json.RawMessage
	for _, f := range fields {
		switch f.key {
		case "customerId":
			if out.CustomerID, err = parseOptionalInt(f.raw); err != nil {
				return fmt.Errorf("decode customerId: %w", err)
			}
		case "notificationId":
			if out.NotificationID, err = parseOptionalInt(f.raw); err != nil {
				return fmt.Errorf("decode notificationId: %w", err)
			}
		case "channel":
			if out.Channel, err = parseOptionalChannel(f.raw); err != nil {
				return fmt.Errorf("decode channel: %w", err)
			}
		case "mobile":
			out.Mobile = parseLenientString(f.raw)
		case "email":
			out.Email = parseLenientString(f.raw)
		case "map", "attributes":
			openMaps = append(openMaps, f.raw)
		default:
			extras = append(extras, f)
		}
	}

	for _, raw := range openMaps {
		var attrs Attributes
		if err := attrs.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("decode attributes: %w", err)
		}
		attrs.Each(func(k string, v Value) { out.Attributes.SetIfAbsent(k, v) })
	}
	for _, f := range extras {
		v, err := parseValue(f.raw)
		if err != nil {
			return fmt.Errorf("decode %q: %w", f.key, err)
		}
		out.Attributes.SetIfAbsent(f.key, v)
	}

	*e = out
	return nil
}

// MarshalJSON emits the canonical envelope with attributes under "map".
func (e Event) MarshalJSON() ([]byte, error) {
	type envelope struct {
		CustomerID     *int64     `json:"customerId"`
		NotificationID *int64     `json:"notificationId"`
		Channel        *Channel   `json:"channel"`
		Mobile         string     `json:"mobile,omitempty"`
		Email          string     `json:"email,omitempty"`
		Attributes     Attributes `json:"map"`
	}
	return json.Marshal(envelope(e))
}

func parseOptionalInt(raw json.RawMessage) (*int64, error) {
	v, err := parseValue(raw)
	if err != nil {
		return nil, err
	}
	switch v.Kind() {
	case KindNull:
		return nil, nil
	case KindNumber, KindString:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", s)
		}
		return &n, nil
	default:
		return nil, fmt.Errorf("unexpected %s", v.Kind())
	}
}

func parseOptionalChannel(raw json.RawMessage) (*Channel, error) {
	v, err := parseValue(raw)
	if err != nil {
		return nil, err
	}
	if v.IsNull() || strings.TrimSpace(v.String()) == "" {
		return nil, nil
	}
	c, err := ParseChannel(v.String())
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseLenientString(raw json.RawMessage) string {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}
	v, err := parseValue(raw)
	if err != nil {
		return ""
	}
	return v.String()
}

// ErrMissingField reports which required field failed validation.
type ErrMissingField struct {
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("required field %s is missing", e.Field)
}

// Validate checks the three required fields only.
func (e *Event) Validate() error {
	if e == nil {
		return &ErrMissingField{Field: "event"}
	}
	if e.CustomerID == nil {
		return &ErrMissingField{Field: "customerId"}
	}
	if e.NotificationID == nil {
		return &ErrMissingField{Field: "notificationId"}
	}
	if e.Channel == nil {
		return &ErrMissingField{Field: "channel"}
	}
	return nil
}

// IsDirect reports whether the event carries its content inline.
func (e *Event) IsDirect() bool {
	return e != nil && e.NotificationID != nil && *e.NotificationID == DirectNotificationID
}

// CustomerIDString is safe for logging; it returns "" when the id is missing.
func (e *Event) CustomerIDString() string {
	if e == nil || e.CustomerID == nil {
		return ""
	}
	return strconv.FormatInt(*e.CustomerID, 10)
}

func (e *Event) NotificationIDString() string {
	if e == nil || e.NotificationID == nil {
		return ""
	}
	return strconv.FormatInt(*e.NotificationID, 10)
}

func (e *Event) ChannelString() string {
	if e == nil || e.Channel == nil {
		return ""
	}
	return e.Channel.String()
}

func (e *Event) SenderMobile() string {
	return e.Attributes.FirstString(senderMobileKeys...)
}

func (e *Event) SenderCustomerID() string {
	return e.Attributes.FirstString(senderIDKeys...)
}

// SenderName falls back through synonymous keys and finally to DefaultSenderName.
func (e *Event) SenderName() string {
	if name := e.Attributes.FirstString(senderNameKeys...); name != "" {
		return name
	}
	return DefaultSenderName
}

func (e *Event) ConversationID() string {
	return strings.TrimSpace(e.Attributes.String(KeyConversationID))
}

func (e *Event) Message() string {
	return e.Attributes.FirstString(messageKeys...)
}

// MessageKeys lists every attribute key Message reads, in lookup order.
func MessageKeys() []string {
	return append([]string(nil), messageKeys...)
}

// IsEncrypted requires ciphertext, iv and tag to be present together.
func (e *Event) IsEncrypted() bool {
	return e.Attributes.Has(KeyCiphertext) && e.Attributes.Has(KeyIV) && e.Attributes.Has(KeyTag)
}

func (e *Event) Ciphertext() string {
	return e.Attributes.String(KeyCiphertext)
}

// FileIDs flattens the file reference list into a comma separated string.
func (e *Event) FileIDs() string {
	return e.Attributes.String(KeyFileIDs)
}
