package chat

import "time"

// DeliveryState represents the delivery state assigned to a message at
// creation time. It never changes afterwards; read state is tracked
// separately by the receipt tracker.
type DeliveryState uint8

const (
	// DeliveryDelivered means the message was handed to the recipient's
	// delivery capability at send time.
	DeliveryDelivered DeliveryState = iota
	// DeliveryQueued means the recipient was unreachable and the message
	// was placed on the offline queue instead.
	DeliveryQueued
)

// String returns a human-readable name for the delivery state.
func (s DeliveryState) String() string {
	switch s {
	case DeliveryDelivered:
		return "delivered"
	case DeliveryQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// Message represents a single message in a chat log. Messages are
// immutable once appended to a chat.
type Message struct {
	ID          uint64            `json:"id"`
	ChatID      string            `json:"chat_id"`
	SenderID    string            `json:"sender_id"`
	RecipientID string            `json:"recipient_id,omitempty"` // direct chats only
	Body        string            `json:"body"`
	Kind        string            `json:"kind"` // free-form tag, e.g. "text"
	Metadata    map[string]string `json:"metadata,omitempty"`
	SentAt      time.Time         `json:"sent_at"`
	State       DeliveryState     `json:"state"`
}
