package chatcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/chatcore/chat"
	"github.com/opd-ai/chatcore/event"
	"github.com/opd-ai/chatcore/interfaces"
)

// Scenario: both parties online, a direct message is delivered
// synchronously.
func TestScenario_DirectDelivery(t *testing.T) {
	core := newTestCore(t)

	alice := interfaces.NewCaptureCapability()
	_, err := core.Register("alice", alice)
	require.NoError(t, err)
	bob := interfaces.NewCaptureCapability()
	_, err = core.Register("bob", bob)
	require.NoError(t, err)

	msg, err := core.SendDirect("c1", "alice", "bob", "hi", "text", nil)
	require.NoError(t, err)
	assert.Equal(t, chat.DeliveryDelivered, msg.State)

	received := bob.EventsOfType(event.TypeMessageReceived)
	require.Len(t, received, 1)
	assert.Equal(t, "hi", received[0].(event.MessageReceived).Message.Body)
}

// Scenario: sends to an offline recipient queue, then replay as a single
// batch on reconnect.
func TestScenario_OfflineQueueReplay(t *testing.T) {
	core := newTestCore(t)

	first, err := core.SendDirect("c2", "alice", "carol", "are you there?", "text", nil)
	require.NoError(t, err)
	assert.Equal(t, chat.DeliveryQueued, first.State)

	second, err := core.SendDirect("c2", "alice", "carol", "ping", "text", nil)
	require.NoError(t, err)
	assert.Equal(t, chat.DeliveryQueued, second.State)

	assert.Equal(t, 2, core.Snapshot().QueuedMessageCount)

	carol := interfaces.NewCaptureCapability()
	_, err = core.Register("carol", carol)
	require.NoError(t, err)

	// One batched event carrying both messages, in original order.
	batches := carol.EventsOfType(event.TypeQueuedMessages)
	require.Len(t, batches, 1)
	batch := batches[0].(event.QueuedMessages)
	require.Len(t, batch.Messages, 2)
	assert.Equal(t, "are you there?", batch.Messages[0].Body)
	assert.Equal(t, "ping", batch.Messages[1].Body)

	// Drained exactly once; the queue is empty afterwards.
	assert.Zero(t, core.Snapshot().QueuedMessageCount)

	core.Unregister("carol")
	carol2 := interfaces.NewCaptureCapability()
	_, err = core.Register("carol", carol2)
	require.NoError(t, err)
	assert.Empty(t, carol2.EventsOfType(event.TypeQueuedMessages))
}

// Scenario: group delivery is best-effort and online-only; offline
// participants receive nothing and are not queued.
func TestScenario_GroupBestEffort(t *testing.T) {
	core := newTestCore(t)

	_, err := core.CreateGroup("g1", "Team", []string{"a", "b", "c"}, "a")
	require.NoError(t, err)

	a := interfaces.NewCaptureCapability()
	_, err = core.Register("a", a)
	require.NoError(t, err)
	b := interfaces.NewCaptureCapability()
	_, err = core.Register("b", b)
	require.NoError(t, err)
	// c stays offline.

	_, err = core.SendGroup("g1", "a", "hello", "text", nil)
	require.NoError(t, err)

	received := b.EventsOfType(event.TypeGroupMessageReceived)
	require.Len(t, received, 1)
	assert.Equal(t, "hello", received[0].(event.GroupMessageReceived).Message.Body)

	// c was not queued a copy.
	assert.Zero(t, core.Snapshot().QueuedMessageCount)
	c := interfaces.NewCaptureCapability()
	_, err = core.Register("c", c)
	require.NoError(t, err)
	assert.Empty(t, c.EventsOfType(event.TypeQueuedMessages))
	assert.Empty(t, c.EventsOfType(event.TypeGroupMessageReceived))

	page, err := core.History("g1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

// Scenario: typing indicators survive an immediate sweep and expire past
// the window, notifying the chat's participants.
func TestScenario_TypingExpiry(t *testing.T) {
	clock := newMockTime()
	options := NewOptions()
	options.TimeProvider = clock
	core, err := New(options)
	require.NoError(t, err)

	bob := interfaces.NewCaptureCapability()
	_, err = core.Register("bob", bob)
	require.NoError(t, err)

	_, err = core.SendDirect("c1", "a", "bob", "hi", "text", nil)
	require.NoError(t, err)
	bob.Reset()

	require.NoError(t, core.SetTyping("a", "c1"))
	start := clock.Now()

	// Immediate sweep: the indicator remains.
	assert.Zero(t, core.SweepExpiredTyping(start))
	assert.Equal(t, 1, core.Snapshot().TypingCount)

	// 31 seconds later the indicator is removed and participants are
	// notified with isTyping=false.
	assert.Equal(t, 1, core.SweepExpiredTyping(start.Add(31*time.Second)))
	assert.Zero(t, core.Snapshot().TypingCount)

	indicators := bob.EventsOfType(event.TypeTypingIndicator)
	require.Len(t, indicators, 2)
	assert.True(t, indicators[0].(event.TypingIndicator).IsTyping)
	stopped := indicators[1].(event.TypingIndicator)
	assert.False(t, stopped.IsTyping)
	assert.Equal(t, "a", stopped.PrincipalID)
	assert.Equal(t, "c1", stopped.ChatID)

	// Sweeping again with no time elapsed is a no-op.
	assert.Zero(t, core.SweepExpiredTyping(start.Add(31*time.Second)))
	assert.Len(t, bob.EventsOfType(event.TypeTypingIndicator), 2)
}
