package interfaces

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/chatcore/event"
)

func TestCaptureCapability_RecordsInOrder(t *testing.T) {
	capture := NewCaptureCapability()

	require.NoError(t, capture.Deliver(event.PrincipalOnline{PrincipalID: "a"}))
	require.NoError(t, capture.Deliver(event.TypingIndicator{ChatID: "c1", PrincipalID: "a", IsTyping: true}))
	require.NoError(t, capture.Deliver(event.PrincipalOffline{PrincipalID: "a"}))

	events := capture.Events()
	require.Len(t, events, 3)
	assert.Equal(t, event.TypePrincipalOnline, events[0].EventType())
	assert.Equal(t, event.TypeTypingIndicator, events[1].EventType())
	assert.Equal(t, event.TypePrincipalOffline, events[2].EventType())

	typed := capture.EventsOfType(event.TypeTypingIndicator)
	require.Len(t, typed, 1)
	assert.True(t, typed[0].(event.TypingIndicator).IsTyping)
}

func TestCaptureCapability_FailWith(t *testing.T) {
	capture := NewCaptureCapability()
	cause := errors.New("connection closed")

	capture.FailWith(cause)
	assert.ErrorIs(t, capture.Deliver(event.PrincipalOnline{PrincipalID: "a"}), cause)
	assert.Empty(t, capture.Events())

	capture.FailWith(nil)
	require.NoError(t, capture.Deliver(event.PrincipalOnline{PrincipalID: "a"}))
	assert.Len(t, capture.Events(), 1)
}

func TestDeliverFunc(t *testing.T) {
	var seen event.Event
	capability := DeliverFunc(func(ev event.Event) error {
		seen = ev
		return nil
	})

	require.NoError(t, capability.Deliver(event.PrincipalOnline{PrincipalID: "a"}))
	require.NotNil(t, seen)
	assert.Equal(t, event.TypePrincipalOnline, seen.EventType())
}
