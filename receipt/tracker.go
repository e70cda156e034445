// Package receipt implements the read receipt tracker for the chatcore
// messaging system.
//
// Read state is tracked separately from messages: the tracker
// accumulates, per message, the set of principals that acknowledged
// reading it. Marking the same reader twice is a no-op.
package receipt

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Tracker is the single owner of read receipt state. All operations are
// safe for concurrent use.
type Tracker struct {
	readers map[uint64]map[string]struct{}

	mu sync.Mutex
}

// NewTracker creates an empty receipt tracker.
func NewTracker() *Tracker {
	return &Tracker{
		readers: make(map[uint64]map[string]struct{}),
	}
}

// MarkRead adds the principal to the message's reader set. It returns
// false when the principal had already been recorded.
func (t *Tracker) MarkRead(messageID uint64, principalID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, exists := t.readers[messageID]
	if !exists {
		set = make(map[string]struct{})
		t.readers[messageID] = set
	}
	if _, seen := set[principalID]; seen {
		return false
	}
	set[principalID] = struct{}{}

	logrus.WithFields(logrus.Fields{
		"function":   "MarkRead",
		"message_id": messageID,
		"reader_id":  principalID,
		"readers":    len(set),
	}).Debug("Message marked read")

	return true
}

// Readers returns a copy of the message's reader set. An unknown message
// yields an empty slice.
func (t *Tracker) Readers(messageID uint64) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.readers[messageID]
	out := make([]string, 0, len(set))
	for reader := range set {
		out = append(out, reader)
	}
	return out
}

// HasRead reports whether the principal already acknowledged the message.
func (t *Tracker) HasRead(messageID uint64, principalID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, exists := t.readers[messageID]
	if !exists {
		return false
	}
	_, seen := set[principalID]
	return seen
}
