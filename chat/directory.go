package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatcore/limits"
)

// Directory is the single owner of all chat records and their message
// logs. All operations are safe for concurrent use.
type Directory struct {
	chats  map[string]*chatState
	byID   map[uint64]*Message
	nextID uint64

	mu sync.RWMutex
}

// NewDirectory creates an empty chat directory.
func NewDirectory() *Directory {
	return &Directory{
		chats:  make(map[string]*chatState),
		byID:   make(map[uint64]*Message),
		nextID: 1,
	}
}

// CreateGroup creates a named group chat with an explicit participant
// list. The participant list is deduplicated preserving insertion order.
// The creator is not added implicitly; callers that want the creator as a
// member must include them in the list.
func (d *Directory) CreateGroup(chatID, displayName string, participants []string, createdBy string) (*Chat, error) {
	if err := limits.ValidateChatID(chatID); err != nil {
		return nil, err
	}
	if err := limits.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if err := limits.ValidatePrincipalID(createdBy); err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, limits.ErrEmptyParticipants
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.chats[chatID]; exists {
		return nil, fmt.Errorf("%w: %q", ErrChatExists, chatID)
	}

	unique := make([]string, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p]; dup || p == "" {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	if len(unique) == 0 {
		return nil, limits.ErrEmptyParticipants
	}

	state := &chatState{
		id:           chatID,
		chatType:     TypeGroup,
		displayName:  displayName,
		participants: unique,
		createdBy:    createdBy,
		createdAt:    time.Now(),
	}
	d.chats[chatID] = state

	logrus.WithFields(logrus.Fields{
		"function":     "CreateGroup",
		"chat_id":      chatID,
		"display_name": displayName,
		"participants": len(unique),
		"created_by":   createdBy,
	}).Info("Group chat created")

	return state.snapshot(), nil
}

// EnsureDirect returns the direct chat with the given caller-supplied ID,
// creating it on first use. Direct-chat identity is the caller's
// responsibility (typically a canonical ordering of the two principal
// ids); the directory never derives it.
func (d *Directory) EnsureDirect(chatID, senderID, recipientID string) *Chat {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, exists := d.chats[chatID]
	if !exists {
		state = &chatState{
			id:           chatID,
			chatType:     TypeDirect,
			participants: []string{senderID, recipientID},
			createdBy:    senderID,
			createdAt:    time.Now(),
		}
		d.chats[chatID] = state

		logrus.WithFields(logrus.Fields{
			"function":  "EnsureDirect",
			"chat_id":   chatID,
			"sender":    senderID,
			"recipient": recipientID,
		}).Debug("Direct chat created implicitly")
	}

	return state.snapshot()
}

// AddParticipant adds a principal to a group chat. Adding an existing
// member is a no-op. The second return value reports whether membership
// actually changed.
func (d *Directory) AddParticipant(chatID, principalID string) (*Chat, bool, error) {
	if err := limits.ValidatePrincipalID(principalID); err != nil {
		return nil, false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state, exists := d.chats[chatID]
	if !exists {
		return nil, false, fmt.Errorf("%w: %q", ErrChatNotFound, chatID)
	}
	if state.hasParticipant(principalID) {
		return state.snapshot(), false, nil
	}

	state.participants = append(state.participants, principalID)

	logrus.WithFields(logrus.Fields{
		"function":     "AddParticipant",
		"chat_id":      chatID,
		"principal_id": principalID,
		"participants": len(state.participants),
	}).Info("Participant added to chat")

	return state.snapshot(), true, nil
}

// RemoveParticipant removes a principal from a group chat. Removing a
// non-member is a no-op. The second return value reports whether
// membership actually changed.
func (d *Directory) RemoveParticipant(chatID, principalID string) (*Chat, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, exists := d.chats[chatID]
	if !exists {
		return nil, false, fmt.Errorf("%w: %q", ErrChatNotFound, chatID)
	}

	removed := false
	for i, p := range state.participants {
		if p == principalID {
			state.participants = append(state.participants[:i], state.participants[i+1:]...)
			removed = true
			break
		}
	}

	if removed {
		logrus.WithFields(logrus.Fields{
			"function":     "RemoveParticipant",
			"chat_id":      chatID,
			"principal_id": principalID,
			"participants": len(state.participants),
		}).Info("Participant removed from chat")
	}

	return state.snapshot(), removed, nil
}

// Get returns a snapshot of the chat with the given ID.
func (d *Directory) Get(chatID string) (*Chat, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	state, exists := d.chats[chatID]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrChatNotFound, chatID)
	}
	return state.snapshot(), nil
}

// Append assigns the next monotonic message ID and appends the message to
// the chat's log. The message's SentAt is stamped here so log order and
// timestamps agree.
func (d *Directory) Append(chatID string, msg *Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, exists := d.chats[chatID]
	if !exists {
		return fmt.Errorf("%w: %q", ErrChatNotFound, chatID)
	}

	msg.ID = d.nextID
	d.nextID++
	msg.ChatID = chatID
	msg.SentAt = time.Now()
	state.log = append(state.log, msg)
	d.byID[msg.ID] = msg

	logrus.WithFields(logrus.Fields{
		"function":   "Append",
		"chat_id":    chatID,
		"message_id": msg.ID,
		"sender":     msg.SenderID,
		"state":      msg.State.String(),
	}).Debug("Message appended to chat log")

	return nil
}

// History returns one page of the chat's message log in insertion order.
// A non-positive limit selects limits.DefaultHistoryPageSize; offset is a
// zero-based index into the log.
func (d *Directory) History(chatID string, limit, offset int) (*HistoryPage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	state, exists := d.chats[chatID]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrChatNotFound, chatID)
	}

	if limit <= 0 {
		limit = limits.DefaultHistoryPageSize
	}
	total := len(state.log)
	if offset < 0 {
		offset = 0
	}

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := make([]*Message, end-start)
	copy(page, state.log[start:end])

	return &HistoryPage{
		Messages:  page,
		Total:     total,
		PageCount: (total + limit - 1) / limit,
	}, nil
}

// Message returns the logged message with the given ID.
func (d *Directory) Message(messageID uint64) (*Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	msg, exists := d.byID[messageID]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrMessageNotFound, messageID)
	}
	return msg, nil
}

// Participants returns the current member list of a chat.
func (d *Directory) Participants(chatID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	state, exists := d.chats[chatID]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrChatNotFound, chatID)
	}

	participants := make([]string, len(state.participants))
	copy(participants, state.participants)
	return participants, nil
}

// Count returns the number of active chats.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.chats)
}

// TotalMessages returns the combined length of all chat logs.
func (d *Directory) TotalMessages() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	total := 0
	for _, state := range d.chats {
		total += len(state.log)
	}
	return total
}
