// Package typing implements the typing indicator tracker for the
// chatcore messaging system.
//
// The tracker keeps at most one live "is typing in chat C" indicator per
// principal. Indicators are removed when the principal signals they
// stopped typing or when a sweep finds them older than the expiry
// window. The tracker owns no scheduler; SweepExpired is a pure,
// idempotent function over injected time that an external periodic
// trigger invokes at any cadence.
//
// Example:
//
//	tr := typing.NewTracker()
//	tr.Set("alice", "c1")
//	swept := tr.SweepExpired(time.Now().Add(31*time.Second), typing.DefaultExpiry)
//	fmt.Println(len(swept)) // 1
package typing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultExpiry is the inactivity window after which an indicator is
// considered stale and removed by a sweep.
const DefaultExpiry = 30 * time.Second

// Indicator records one principal typing in one chat.
type Indicator struct {
	PrincipalID string    `json:"principal_id"`
	ChatID      string    `json:"chat_id"`
	Since       time.Time `json:"since"`
}

// Tracker is the single owner of typing state. All operations are safe
// for concurrent use.
type Tracker struct {
	indicators   map[string]*Indicator
	timeProvider TimeProvider

	mu sync.Mutex
}

// NewTracker creates a tracker using the system clock.
func NewTracker() *Tracker {
	return NewTrackerWithTimeProvider(DefaultTimeProvider{})
}

// NewTrackerWithTimeProvider creates a tracker with a custom time
// provider for deterministic tests.
func NewTrackerWithTimeProvider(tp TimeProvider) *Tracker {
	if tp == nil {
		tp = DefaultTimeProvider{}
	}
	return &Tracker{
		indicators:   make(map[string]*Indicator),
		timeProvider: tp,
	}
}

// Set installs or refreshes the principal's indicator with since = now.
// It returns the current indicator and, when the principal was
// previously typing in a different chat, the superseded indicator.
func (t *Tracker) Set(principalID, chatID string) (*Indicator, *Indicator) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var superseded *Indicator
	if prev, exists := t.indicators[principalID]; exists && prev.ChatID != chatID {
		superseded = prev
	}

	ind := &Indicator{
		PrincipalID: principalID,
		ChatID:      chatID,
		Since:       t.timeProvider.Now(),
	}
	t.indicators[principalID] = ind

	logrus.WithFields(logrus.Fields{
		"function":     "Set",
		"principal_id": principalID,
		"chat_id":      chatID,
	}).Debug("Typing indicator set")

	return ind, superseded
}

// Clear removes the principal's indicator if present, returning it.
func (t *Tracker) Clear(principalID string) (*Indicator, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ind, exists := t.indicators[principalID]
	if !exists {
		return nil, false
	}
	delete(t.indicators, principalID)

	logrus.WithFields(logrus.Fields{
		"function":     "Clear",
		"principal_id": principalID,
		"chat_id":      ind.ChatID,
	}).Debug("Typing indicator cleared")

	return ind, true
}

// SweepExpired removes every indicator whose age relative to now exceeds
// the expiry window and returns the removed indicators. Calling it again
// with the same now is a no-op.
func (t *Tracker) SweepExpired(now time.Time, expiry time.Duration) []*Indicator {
	t.mu.Lock()
	defer t.mu.Unlock()

	swept := make([]*Indicator, 0)
	for id, ind := range t.indicators {
		if now.Sub(ind.Since) > expiry {
			delete(t.indicators, id)
			swept = append(swept, ind)
		}
	}

	if len(swept) > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "SweepExpired",
			"swept":    len(swept),
			"expiry":   expiry,
		}).Info("Expired typing indicators swept")
	}
	return swept
}

// Get returns the principal's live indicator, if any.
func (t *Tracker) Get(principalID string) (*Indicator, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ind, exists := t.indicators[principalID]
	if !exists {
		return nil, false
	}
	copied := *ind
	return &copied, true
}

// Count returns the number of live indicators.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.indicators)
}
