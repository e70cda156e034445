// Package chat implements the chat directory for the chatcore messaging
// system.
//
// The directory owns the set of active chats and their membership. Two
// kinds of chat exist: implicit two-party direct chats, created on first
// send under a caller-supplied chat ID, and explicit named group chats
// with managed membership. Each chat carries an append-only message log
// in send order.
//
// Example:
//
//	dir := chat.NewDirectory()
//	c, err := dir.CreateGroup("g1", "Team", []string{"alice", "bob"}, "alice")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(c.DisplayName)
package chat

import (
	"errors"
	"time"
)

// Type represents the kind of a chat.
type Type uint8

const (
	// TypeDirect is an implicit two-party conversation.
	TypeDirect Type = iota
	// TypeGroup is an explicit named multi-participant conversation.
	TypeGroup
)

// String returns a human-readable name for the chat type.
func (t Type) String() string {
	switch t {
	case TypeDirect:
		return "direct"
	case TypeGroup:
		return "group"
	default:
		return "unknown"
	}
}

var (
	// ErrChatNotFound indicates the referenced chat ID is unknown.
	ErrChatNotFound = errors.New("chat not found")

	// ErrChatExists indicates a group creation reused an existing chat ID.
	ErrChatExists = errors.New("chat already exists")

	// ErrMessageNotFound indicates the referenced message ID is unknown.
	ErrMessageNotFound = errors.New("message not found")
)

// Chat represents a conversation and its append-only message log.
//
// Values returned by the directory are snapshot copies; mutating them has
// no effect on directory state.
type Chat struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	DisplayName  string    `json:"display_name,omitempty"` // group chats only
	Participants []string  `json:"participants"`           // unique, insertion order
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

// HistoryPage is one page of a chat's message log.
type HistoryPage struct {
	Messages  []*Message `json:"messages"`
	Total     int        `json:"total"`
	PageCount int        `json:"page_count"`
}

// chatState is the directory-internal mutable record backing a Chat.
type chatState struct {
	id           string
	chatType     Type
	displayName  string
	participants []string
	createdBy    string
	createdAt    time.Time
	log          []*Message
}

// snapshot returns an external copy of the chat's metadata.
func (c *chatState) snapshot() *Chat {
	participants := make([]string, len(c.participants))
	copy(participants, c.participants)

	return &Chat{
		ID:           c.id,
		Type:         c.chatType,
		DisplayName:  c.displayName,
		Participants: participants,
		CreatedBy:    c.createdBy,
		CreatedAt:    c.createdAt,
		MessageCount: len(c.log),
	}
}

// hasParticipant reports whether the principal is a member of the chat.
func (c *chatState) hasParticipant(principalID string) bool {
	for _, p := range c.participants {
		if p == principalID {
			return true
		}
	}
	return false
}
