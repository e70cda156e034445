package chatcore

// Stats is a point-in-time, read-only aggregation over the core's state
// for operational visibility. QueuedMessageCount is the only surface on
// which unbounded offline-queue growth shows up; alerting on it is the
// operator's concern.
type Stats struct {
	ReachableCount     int `json:"reachable_count"`
	ActiveChatCount    int `json:"active_chat_count"`
	TypingCount        int `json:"typing_count"`
	QueuedMessageCount int `json:"queued_message_count"`
	TotalMessages      int `json:"total_messages"`
}

// Snapshot returns current aggregate counts. It has no side effects.
func (c *Core) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		ReachableCount:     c.presence.Count(),
		ActiveChatCount:    c.chats.Count(),
		TypingCount:        c.typing.Count(),
		QueuedMessageCount: c.queue.Len(),
		TotalMessages:      c.chats.TotalMessages(),
	}
}
