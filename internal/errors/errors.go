package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidEvent  = errors.New("invalid event")
	ErrNoEndpoint    = errors.New("no push endpoint")
	ErrGatewayFailed = errors.New("push gateway send failed")
)

// DropReason classifies why a dispatch ended without a delivery.
type DropReason string

const (
	ReasonInvalidEvent        DropReason = "invalid_event"
	ReasonMissingConversation DropReason = "missing_conversation"
	ReasonMissingMessage      DropReason = "missing_message"
	ReasonMissingStatusData   DropReason = "missing_status_data"
	ReasonTemplateDeferred    DropReason = "template_deferred"
	ReasonNoEndpoint          DropReason = "no_endpoint"
	ReasonChannelStub         DropReason = "channel_stub"
	ReasonUnsupportedChannel  DropReason = "unsupported_channel"
	ReasonGatewayFailure      DropReason = "gateway_failure"
	ReasonPanic               DropReason = "panic"
	ReasonDecodeFailure       DropReason = "decode_failure"
	ReasonInternal            DropReason = "internal_error"
)

// DropError is the error form of a DropReason, returned by a dispatch stage.
type DropError struct {
	Reason DropReason
	Err    error
}

func (e *DropError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *DropError) Unwrap() error { return e.Err }

func NewDrop(reason DropReason, format string, a ...interface{}) error {
	return &DropError{Reason: reason, Err: fmt.Errorf(format, a...)}
}

func WrapDrop(reason DropReason, err error) error {
	return &DropError{Reason: reason, Err: err}
}

func NewNotFound(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, a...)...)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDrop reports whether err carries a DropReason and returns it.
func IsDrop(err error) (DropReason, bool) {
	var d *DropError
	if errors.As(err, &d) {
		return d.Reason, true
	}
	return "", false
}
