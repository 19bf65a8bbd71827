package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDrop(t *testing.T) {
	err := fmt.Errorf("stage: %w", NewDrop(ReasonMissingConversation, "customer %d", 42))

	reason, ok := IsDrop(err)
	assert.True(t, ok)
	assert.Equal(t, ReasonMissingConversation, reason)
	assert.Contains(t, err.Error(), "missing_conversation: customer 42")

	_, ok = IsDrop(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrapDrop_Unwraps(t *testing.T) {
	err := WrapDrop(ReasonGatewayFailure, ErrGatewayFailed)
	assert.ErrorIs(t, err, ErrGatewayFailed)
	assert.Equal(t, "invalid_event", (&DropError{Reason: ReasonInvalidEvent}).Error())
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("token for customer %d", 7)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "not found: token for customer 7", err.Error())
	assert.False(t, IsNotFound(errors.New("other")))
}
