// Package event defines the outbound event payloads the messaging core
// pushes through a delivery capability.
//
// The core has no wire format of its own; payload structs carry JSON tags
// so the transport layer that owns the capability can serialize them
// directly.
package event

import (
	"time"

	"github.com/opd-ai/chatcore/chat"
)

// Type identifies the kind of an outbound event.
type Type string

const (
	// TypeMessageReceived is a direct message arriving at its recipient.
	TypeMessageReceived Type = "message-received"
	// TypeGroupMessageReceived is a group message fanned out to a participant.
	TypeGroupMessageReceived Type = "group-message-received"
	// TypeMessageSent is the sender-side status for a routed message.
	TypeMessageSent Type = "message-sent"
	// TypeQueuedMessages is the batched replay delivered on reconnect.
	TypeQueuedMessages Type = "queued-messages"
	// TypeTypingIndicator signals a participant started or stopped typing.
	TypeTypingIndicator Type = "typing-indicator"
	// TypeMessageRead notifies a sender that a message was read.
	TypeMessageRead Type = "message-read"
	// TypeAddedToGroup notifies a principal they were added to a group.
	TypeAddedToGroup Type = "added-to-group"
	// TypeRemovedFromGroup notifies a principal they were removed from a group.
	TypeRemovedFromGroup Type = "removed-from-group"
	// TypePrincipalOnline announces a principal becoming reachable.
	TypePrincipalOnline Type = "principal-online"
	// TypePrincipalOffline announces a principal becoming unreachable.
	TypePrincipalOffline Type = "principal-offline"
	// TypeDeliveryFailure reports a failed capability delivery to the sender.
	TypeDeliveryFailure Type = "delivery-failure"
)

// Event is implemented by every outbound payload.
type Event interface {
	EventType() Type
}

// MessageReceived carries a direct message to its recipient.
type MessageReceived struct {
	Message *chat.Message `json:"message"`
}

func (MessageReceived) EventType() Type { return TypeMessageReceived }

// GroupMessageReceived carries a group message to one participant.
type GroupMessageReceived struct {
	Message *chat.Message `json:"message"`
}

func (GroupMessageReceived) EventType() Type { return TypeGroupMessageReceived }

// MessageSent reports the routing outcome of a send to the sender's own
// capability.
type MessageSent struct {
	Message   *chat.Message `json:"message"`
	Delivered bool          `json:"delivered"`
}

func (MessageSent) EventType() Type { return TypeMessageSent }

// QueuedMessages is the single batched event replaying a principal's
// offline queue on reconnect.
type QueuedMessages struct {
	Messages []*chat.Message `json:"messages"`
}

func (QueuedMessages) EventType() Type { return TypeQueuedMessages }

// TypingIndicator signals a typing state change in a chat.
type TypingIndicator struct {
	ChatID      string `json:"chat_id"`
	PrincipalID string `json:"principal_id"`
	IsTyping    bool   `json:"is_typing"`
}

func (TypingIndicator) EventType() Type { return TypeTypingIndicator }

// MessageRead notifies a message's sender of a new reader.
type MessageRead struct {
	MessageID uint64    `json:"message_id"`
	ReaderID  string    `json:"reader_id"`
	ChatID    string    `json:"chat_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (MessageRead) EventType() Type { return TypeMessageRead }

// AddedToGroup notifies a principal of their addition to a group chat.
type AddedToGroup struct {
	ChatID      string `json:"chat_id"`
	DisplayName string `json:"display_name"`
	PrincipalID string `json:"principal_id"`
	ActorID     string `json:"actor_id"`
}

func (AddedToGroup) EventType() Type { return TypeAddedToGroup }

// RemovedFromGroup notifies a principal of their removal from a group chat.
type RemovedFromGroup struct {
	ChatID      string `json:"chat_id"`
	DisplayName string `json:"display_name"`
	PrincipalID string `json:"principal_id"`
	ActorID     string `json:"actor_id"`
}

func (RemovedFromGroup) EventType() Type { return TypeRemovedFromGroup }

// PrincipalOnline announces a principal becoming reachable.
type PrincipalOnline struct {
	PrincipalID string    `json:"principal_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func (PrincipalOnline) EventType() Type { return TypePrincipalOnline }

// PrincipalOffline announces a principal becoming unreachable.
type PrincipalOffline struct {
	PrincipalID string    `json:"principal_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func (PrincipalOffline) EventType() Type { return TypePrincipalOffline }

// DeliveryFailure reports to a sender that pushing an event to a
// recipient's capability failed. The failed event is carried by type
// only; the transport layer owns any retry policy.
type DeliveryFailure struct {
	RecipientID string `json:"recipient_id"`
	FailedType  Type   `json:"failed_type"`
	Reason      string `json:"reason"`
}

func (DeliveryFailure) EventType() Type { return TypeDeliveryFailure }
