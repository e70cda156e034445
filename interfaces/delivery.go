// Package interfaces defines the delivery abstraction at the boundary of
// the messaging core. A transport layer (websocket hub, SSE stream, test
// harness) supplies one DeliveryCapability per connected principal; the
// core pushes events through it and never inspects or manages its
// lifecycle beyond registration.
package interfaces

import (
	"sync"

	"github.com/opd-ai/chatcore/event"
)

// DeliveryCapability is the opaque sink through which the core pushes an
// event to one connected principal.
//
// Deliver must not block on network I/O from the core's perspective; a
// real transport should hand the event to its own writer goroutine and
// surface slow-consumer failures as an error. A returned error is
// reported back to the sender as a delivery-failure notification, never
// propagated as a routing failure.
type DeliveryCapability interface {
	Deliver(ev event.Event) error
}

// DeliverFunc adapts a plain function to a DeliveryCapability.
type DeliverFunc func(ev event.Event) error

// Deliver implements DeliveryCapability.
func (f DeliverFunc) Deliver(ev event.Event) error { return f(ev) }

// CaptureCapability is an in-memory DeliveryCapability that records every
// delivered event. It backs simulations and tests that need to assert on
// the exact event stream a principal observed.
type CaptureCapability struct {
	events  []event.Event
	failErr error

	mu sync.Mutex
}

// NewCaptureCapability creates an empty capture capability.
func NewCaptureCapability() *CaptureCapability {
	return &CaptureCapability{
		events: make([]event.Event, 0),
	}
}

// Deliver records the event, or returns the configured failure.
func (c *CaptureCapability) Deliver(ev event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failErr != nil {
		return c.failErr
	}
	c.events = append(c.events, ev)
	return nil
}

// Events returns a snapshot of everything delivered so far.
func (c *CaptureCapability) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]event.Event, len(c.events))
	copy(out, c.events)
	return out
}

// EventsOfType returns the delivered events matching the given type, in
// delivery order.
func (c *CaptureCapability) EventsOfType(t event.Type) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]event.Event, 0)
	for _, ev := range c.events {
		if ev.EventType() == t {
			out = append(out, ev)
		}
	}
	return out
}

// Reset discards all recorded events.
func (c *CaptureCapability) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}

// FailWith makes every subsequent Deliver return err. Passing nil
// restores normal capture behavior.
func (c *CaptureCapability) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = err
}
