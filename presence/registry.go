// Package presence implements the presence registry for the chatcore
// messaging system.
//
// The registry tracks which principals are currently reachable and the
// delivery capability each one is reachable through. At most one entry
// exists per principal; registering again replaces the prior entry and
// the superseded capability is silently forgotten.
//
// Example:
//
//	reg := presence.NewRegistry()
//	entry, err := reg.Register("alice", capability)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(reg.IsReachable("alice"), entry.ConnectedAt)
package presence

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatcore/interfaces"
	"github.com/opd-ai/chatcore/limits"
)

// Entry records one reachable principal. The registry does not interpret
// the capability; it only hands it back to callers that need to deliver.
type Entry struct {
	PrincipalID string
	Capability  interfaces.DeliveryCapability
	ConnectedAt time.Time
}

// ChangeCallback is invoked synchronously after a principal transitions
// between reachable and unreachable. Replacing an existing entry does not
// fire the callback twice; it reports online once per Register call.
type ChangeCallback func(principalID string, online bool)

// Registry is the single owner of presence state. All operations are
// safe for concurrent use, and their side effects complete before the
// call returns.
type Registry struct {
	entries        map[string]*Entry
	changeCallback ChangeCallback

	mu sync.RWMutex
}

// NewRegistry creates an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// OnChange sets the callback for presence transitions.
func (r *Registry) OnChange(callback ChangeCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changeCallback = callback
}

// Register installs or replaces the entry for a principal. A replaced
// capability becomes unreachable without notification, matching the
// overwrite-on-reconnect contract.
func (r *Registry) Register(principalID string, capability interfaces.DeliveryCapability) (*Entry, error) {
	if err := limits.ValidatePrincipalID(principalID); err != nil {
		return nil, err
	}
	if capability == nil {
		return nil, limits.ErrNilCapability
	}

	r.mu.Lock()
	_, replaced := r.entries[principalID]
	entry := &Entry{
		PrincipalID: principalID,
		Capability:  capability,
		ConnectedAt: time.Now(),
	}
	r.entries[principalID] = entry
	callback := r.changeCallback
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":     "Register",
		"principal_id": principalID,
		"replaced":     replaced,
	}).Info("Principal registered as reachable")

	if callback != nil {
		callback(principalID, true)
	}
	return entry, nil
}

// Unregister removes the entry for a principal if present. Unregistering
// an unknown principal is a no-op.
func (r *Registry) Unregister(principalID string) {
	r.mu.Lock()
	_, exists := r.entries[principalID]
	if exists {
		delete(r.entries, principalID)
	}
	callback := r.changeCallback
	r.mu.Unlock()

	if !exists {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function":     "Unregister",
		"principal_id": principalID,
	}).Info("Principal unregistered")

	if callback != nil {
		callback(principalID, false)
	}
}

// IsReachable reports whether a current delivery capability is
// registered for the principal.
func (r *Registry) IsReachable(principalID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.entries[principalID]
	return exists
}

// Capability returns the delivery capability for a reachable principal.
func (r *Registry) Capability(principalID string) (interfaces.DeliveryCapability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[principalID]
	if !exists {
		return nil, false
	}
	return entry.Capability, true
}

// List returns a snapshot of all reachable principals at call time, not
// a live view. Capabilities are omitted; callers that deliver should use
// Capability per principal.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, Entry{
			PrincipalID: entry.PrincipalID,
			ConnectedAt: entry.ConnectedAt,
		})
	}
	return out
}

// Count returns the number of reachable principals.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
