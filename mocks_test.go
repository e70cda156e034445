package chatcore

import (
	"time"
)

// mockTimeProvider is a deterministic clock for typing-expiry tests.
type mockTimeProvider struct {
	currentTime time.Time
}

func (m *mockTimeProvider) Now() time.Time { return m.currentTime }

func (m *mockTimeProvider) Advance(d time.Duration) {
	m.currentTime = m.currentTime.Add(d)
}

func newMockTime() *mockTimeProvider {
	return &mockTimeProvider{currentTime: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)}
}
