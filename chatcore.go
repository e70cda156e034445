// Package chatcore implements the real-time presence and messaging core
// of a business-application backend.
//
// The core tracks which principals are currently reachable, routes
// direct and group messages to them through opaque delivery
// capabilities, queues direct messages for unreachable recipients and
// replays them on reconnect, and maintains the ephemeral typing and read
// receipt state around a conversation. It owns no transport and no
// scheduler: a route layer calls in, capabilities carry events out, and
// an external ticker drives typing expiry.
//
// Example:
//
//	core, err := chatcore.New(chatcore.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	core.Register("alice", aliceConn)
//	core.Register("bob", bobConn)
//
//	msg, err := core.SendDirect("c1", "alice", "bob", "hi", "text", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(msg.State) // delivered
package chatcore

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatcore/chat"
	"github.com/opd-ai/chatcore/event"
	"github.com/opd-ai/chatcore/interfaces"
	"github.com/opd-ai/chatcore/limits"
	"github.com/opd-ai/chatcore/offline"
	"github.com/opd-ai/chatcore/presence"
	"github.com/opd-ai/chatcore/receipt"
	"github.com/opd-ai/chatcore/typing"
)

// DefaultMessageKind is applied when a send omits the free-form kind tag.
const DefaultMessageKind = "text"

// Options contains configuration options for creating a Core instance.
type Options struct {
	// TypingExpiry is the inactivity window after which a typing
	// indicator is removed by SweepExpiredTyping.
	TypingExpiry time.Duration

	// TimeProvider feeds the typing tracker; nil selects the system
	// clock. Tests inject a deterministic provider here.
	TimeProvider typing.TimeProvider
}

// NewOptions creates a new default Options.
func NewOptions() *Options {
	return &Options{
		TypingExpiry: typing.DefaultExpiry,
	}
}

// DeliveryFailureCallback is invoked when pushing an event to a
// principal's capability returns an error.
type DeliveryFailureCallback func(principalID string, ev event.Event, err error)

// Core is the orchestrating message router. It is the only component
// that touches more than one of the underlying stores within a single
// operation; a core-level mutex makes every inbound call a
// run-to-completion critical section, so a registration can never race a
// send mid-flight.
type Core struct {
	options  *Options
	presence *presence.Registry
	chats    *chat.Directory
	queue    *offline.Queue
	typing   *typing.Tracker
	receipts *receipt.Tracker

	deliveryFailureCallback DeliveryFailureCallback

	mu sync.Mutex
}

// New creates a Core with the given options. A nil options pointer
// selects defaults.
func New(options *Options) (*Core, error) {
	if options == nil {
		options = NewOptions()
	}
	if options.TypingExpiry <= 0 {
		options.TypingExpiry = typing.DefaultExpiry
	}

	core := &Core{
		options:  options,
		presence: presence.NewRegistry(),
		chats:    chat.NewDirectory(),
		queue:    offline.NewQueue(),
		typing:   typing.NewTrackerWithTimeProvider(options.TimeProvider),
		receipts: receipt.NewTracker(),
	}
	core.presence.OnChange(core.handlePresenceChange)

	logrus.WithFields(logrus.Fields{
		"function":      "New",
		"typing_expiry": options.TypingExpiry,
	}).Info("Messaging core created")

	return core, nil
}

// OnDeliveryFailure sets the callback for capability delivery failures.
func (c *Core) OnDeliveryFailure(callback DeliveryFailureCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliveryFailureCallback = callback
}

// Register installs or replaces the delivery capability for a principal,
// making it reachable. Any messages queued while the principal was
// offline are drained and delivered to the new capability as a single
// batched queued-messages event before Register returns; other reachable
// principals are notified with principal-online.
func (c *Core) Register(principalID string, capability interfaces.DeliveryCapability) (*presence.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.presence.Register(principalID, capability)
}

// Unregister removes a principal's capability, making it unreachable.
// Unknown principals are a no-op. Other reachable principals are
// notified with principal-offline.
func (c *Core) Unregister(principalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.presence.Unregister(principalID)
}

// IsReachable reports whether a delivery capability is currently
// registered for the principal.
func (c *Core) IsReachable(principalID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.presence.IsReachable(principalID)
}

// ListReachable returns a snapshot of all reachable principals.
func (c *Core) ListReachable() []presence.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.presence.List()
}

// handlePresenceChange runs synchronously inside presence transitions,
// under the core operation lock held by the triggering call.
func (c *Core) handlePresenceChange(principalID string, online bool) {
	if !online {
		c.broadcastPresence(event.PrincipalOffline{
			PrincipalID: principalID,
			Timestamp:   time.Now(),
		}, principalID)
		return
	}

	c.replayQueued(principalID)
	c.broadcastPresence(event.PrincipalOnline{
		PrincipalID: principalID,
		Timestamp:   time.Now(),
	}, principalID)
}

// replayQueued drains the principal's offline queue and delivers the
// batch as one queued-messages event.
func (c *Core) replayQueued(principalID string) {
	queued := c.queue.Drain(principalID)
	if len(queued) == 0 {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function":     "replayQueued",
		"principal_id": principalID,
		"count":        len(queued),
	}).Info("Replaying queued messages on reconnect")

	c.deliverTo(principalID, event.QueuedMessages{Messages: queued})
}

// broadcastPresence pushes a presence event to every reachable principal
// except the subject.
func (c *Core) broadcastPresence(ev event.Event, excludeID string) {
	for _, entry := range c.presence.List() {
		if entry.PrincipalID == excludeID {
			continue
		}
		c.deliverTo(entry.PrincipalID, ev)
	}
}

// SendDirect routes a direct message. The chat is created implicitly on
// first use under the caller-supplied chat ID. When the recipient is
// reachable the message is handed to their capability synchronously and
// returned with state delivered; otherwise it is placed on the offline
// queue with state queued. The delivery state is assigned here and never
// changes. The sender's own capability, when reachable, receives a
// message-sent status event either way.
func (c *Core) SendDirect(chatID, senderID, recipientID, body, kind string, metadata map[string]string) (*chat.Message, error) {
	if err := validateSend(chatID, senderID, body, metadata); err != nil {
		return nil, err
	}
	if err := limits.ValidatePrincipalID(recipientID); err != nil {
		return nil, err
	}
	if kind == "" {
		kind = DefaultMessageKind
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.chats.EnsureDirect(chatID, senderID, recipientID)

	state := chat.DeliveryQueued
	reachable := c.presence.IsReachable(recipientID)
	if reachable {
		state = chat.DeliveryDelivered
	}

	msg := &chat.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		Kind:        kind,
		Metadata:    copyMetadata(metadata),
		State:       state,
	}
	if err := c.chats.Append(chatID, msg); err != nil {
		return nil, err
	}

	if reachable {
		if err := c.deliverTo(recipientID, event.MessageReceived{Message: msg}); err != nil {
			c.notifySenderOfFailure(senderID, recipientID, event.TypeMessageReceived, err)
		}
	} else {
		c.queue.Enqueue(recipientID, msg)
	}

	c.deliverTo(senderID, event.MessageSent{Message: msg, Delivered: reachable})

	logrus.WithFields(logrus.Fields{
		"function":   "SendDirect",
		"chat_id":    chatID,
		"message_id": msg.ID,
		"sender":     senderID,
		"recipient":  recipientID,
		"state":      state.String(),
	}).Info("Direct message routed")

	return msg, nil
}

// SendGroup routes a message to a group chat. The message is appended to
// the chat's log unconditionally, then delivered independently to every
// participant other than the sender who is reachable at send time.
// Unreachable participants do not receive a queued copy; group delivery
// is online-only.
func (c *Core) SendGroup(chatID, senderID, body, kind string, metadata map[string]string) (*chat.Message, error) {
	if err := validateSend(chatID, senderID, body, metadata); err != nil {
		return nil, err
	}
	if kind == "" {
		kind = DefaultMessageKind
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ch, err := c.chats.Get(chatID)
	if err != nil {
		return nil, err
	}
	if ch.Type != chat.TypeGroup {
		return nil, fmt.Errorf("%w: %q is not a group chat", chat.ErrChatNotFound, chatID)
	}

	msg := &chat.Message{
		SenderID: senderID,
		Body:     body,
		Kind:     kind,
		Metadata: copyMetadata(metadata),
		State:    chat.DeliveryDelivered,
	}
	if err := c.chats.Append(chatID, msg); err != nil {
		return nil, err
	}

	delivered := 0
	for _, participant := range ch.Participants {
		if participant == senderID || !c.presence.IsReachable(participant) {
			continue
		}
		if err := c.deliverTo(participant, event.GroupMessageReceived{Message: msg}); err != nil {
			c.notifySenderOfFailure(senderID, participant, event.TypeGroupMessageReceived, err)
			continue
		}
		delivered++
	}

	c.deliverTo(senderID, event.MessageSent{Message: msg, Delivered: true})

	logrus.WithFields(logrus.Fields{
		"function":   "SendGroup",
		"chat_id":    chatID,
		"message_id": msg.ID,
		"sender":     senderID,
		"delivered":  delivered,
	}).Info("Group message routed")

	return msg, nil
}

// CreateGroup creates a named group chat. The creator is not added to
// the participant list implicitly.
func (c *Core) CreateGroup(chatID, displayName string, participants []string, createdBy string) (*chat.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.chats.CreateGroup(chatID, displayName, participants, createdBy)
}

// AddParticipant adds a principal to a group chat, notifying them with
// added-to-group when reachable. Adding an existing member is a no-op.
func (c *Core) AddParticipant(chatID, principalID, actingPrincipal string) (*chat.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, added, err := c.chats.AddParticipant(chatID, principalID)
	if err != nil {
		return nil, err
	}
	if added {
		c.deliverTo(principalID, event.AddedToGroup{
			ChatID:      chatID,
			DisplayName: ch.DisplayName,
			PrincipalID: principalID,
			ActorID:     actingPrincipal,
		})
	}
	return ch, nil
}

// RemoveParticipant removes a principal from a group chat, notifying
// them with removed-from-group when reachable. Removing a non-member is
// a no-op.
func (c *Core) RemoveParticipant(chatID, principalID, actingPrincipal string) (*chat.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, removed, err := c.chats.RemoveParticipant(chatID, principalID)
	if err != nil {
		return nil, err
	}
	if removed {
		c.deliverTo(principalID, event.RemovedFromGroup{
			ChatID:      chatID,
			DisplayName: ch.DisplayName,
			PrincipalID: principalID,
			ActorID:     actingPrincipal,
		})
	}
	return ch, nil
}

// Chat returns a snapshot of the chat with the given ID.
func (c *Core) Chat(chatID string) (*chat.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.chats.Get(chatID)
}

// History returns one page of a chat's message log in insertion order.
func (c *Core) History(chatID string, limit, offset int) (*chat.HistoryPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.chats.History(chatID, limit, offset)
}

// SetTyping installs or refreshes the principal's typing indicator for a
// chat and notifies the chat's other reachable participants. If the
// principal was typing in a different chat, that chat's participants are
// told they stopped.
func (c *Core) SetTyping(principalID, chatID string) error {
	if err := limits.ValidatePrincipalID(principalID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.chats.Get(chatID); err != nil {
		return err
	}

	_, superseded := c.typing.Set(principalID, chatID)
	if superseded != nil {
		c.notifyTyping(superseded.ChatID, principalID, false)
	}
	c.notifyTyping(chatID, principalID, true)
	return nil
}

// ClearTyping removes the principal's typing indicator if present and
// notifies the affected chat's other reachable participants.
func (c *Core) ClearTyping(principalID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ind, cleared := c.typing.Clear(principalID)
	if cleared {
		c.notifyTyping(ind.ChatID, principalID, false)
	}
}

// SweepExpiredTyping removes every typing indicator older than the
// configured expiry window relative to now, notifying each swept chat's
// participants as ClearTyping would. It is idempotent and safe to invoke
// at any cadence from an external periodic trigger.
func (c *Core) SweepExpiredTyping(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	swept := c.typing.SweepExpired(now, c.options.TypingExpiry)
	for _, ind := range swept {
		c.notifyTyping(ind.ChatID, ind.PrincipalID, false)
	}
	return len(swept)
}

// notifyTyping fans a typing-indicator event out to the chat's reachable
// participants other than the typist. Typing notifications are
// best-effort and carry no ordering guarantee relative to messages.
func (c *Core) notifyTyping(chatID, principalID string, isTyping bool) {
	participants, err := c.chats.Participants(chatID)
	if err != nil {
		return
	}

	ev := event.TypingIndicator{
		ChatID:      chatID,
		PrincipalID: principalID,
		IsTyping:    isTyping,
	}
	for _, participant := range participants {
		if participant == principalID {
			continue
		}
		c.deliverTo(participant, ev)
	}
}

// MarkRead adds the principal to the message's reader set. The add is
// idempotent; the message's sender is notified with message-read only on
// the first acknowledgement, and only while reachable.
func (c *Core) MarkRead(principalID string, messageID uint64, chatID string) error {
	if err := limits.ValidatePrincipalID(principalID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg, err := c.chats.Message(messageID)
	if err != nil {
		return err
	}
	if msg.ChatID != chatID {
		return fmt.Errorf("%w: message %d does not belong to chat %q", chat.ErrMessageNotFound, messageID, chatID)
	}

	added := c.receipts.MarkRead(messageID, principalID)
	if added && msg.SenderID != principalID {
		c.deliverTo(msg.SenderID, event.MessageRead{
			MessageID: messageID,
			ReaderID:  principalID,
			ChatID:    chatID,
			Timestamp: time.Now(),
		})
	}
	return nil
}

// Readers returns the set of principals that acknowledged reading the
// message.
func (c *Core) Readers(messageID uint64) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.receipts.Readers(messageID)
}

// deliverTo pushes an event to the principal's capability when one is
// registered. An unreachable principal is silently skipped; a capability
// error is logged, reported through the failure callback, and returned
// to the caller, never propagated as a routing failure.
func (c *Core) deliverTo(principalID string, ev event.Event) error {
	capability, reachable := c.presence.Capability(principalID)
	if !reachable {
		return nil
	}

	if err := capability.Deliver(ev); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":     "deliverTo",
			"principal_id": principalID,
			"event_type":   ev.EventType(),
			"error":        err,
		}).Warn("Capability delivery failed")

		if c.deliveryFailureCallback != nil {
			c.deliveryFailureCallback(principalID, ev, err)
		}
		return err
	}
	return nil
}

// notifySenderOfFailure pushes a delivery-failure event to the sender's
// own capability. Failures of this notification itself are only logged.
func (c *Core) notifySenderOfFailure(senderID, recipientID string, failedType event.Type, cause error) {
	c.deliverTo(senderID, event.DeliveryFailure{
		RecipientID: recipientID,
		FailedType:  failedType,
		Reason:      cause.Error(),
	})
}

// copyMetadata snapshots a caller-supplied metadata map so later caller
// mutation cannot rewrite the logged message.
func copyMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	copied := make(map[string]string, len(metadata))
	for k, v := range metadata {
		copied[k] = v
	}
	return copied
}

// validateSend applies the shared argument checks for both send paths.
func validateSend(chatID, senderID, body string, metadata map[string]string) error {
	if err := limits.ValidateChatID(chatID); err != nil {
		return err
	}
	if err := limits.ValidatePrincipalID(senderID); err != nil {
		return err
	}
	if err := limits.ValidateBody(body); err != nil {
		return err
	}
	return limits.ValidateMetadata(metadata)
}
