// Package offline implements the offline message queue for the chatcore
// messaging system.
//
// Messages addressed to an unreachable recipient are buffered here in
// FIFO order and drained exactly once when the recipient registers a
// delivery capability again. The queue has no TTL or size bound; growth
// for recipients that never reconnect is surfaced through the statistics
// snapshot, not enforced here.
package offline

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatcore/chat"
)

// highWaterMark is the per-recipient queue depth above which each
// enqueue logs a warning. Observability only; nothing is evicted.
const highWaterMark = 1000

// Queue buffers undeliverable messages per recipient. All operations are
// safe for concurrent use.
type Queue struct {
	pending map[string][]*chat.Message

	mu sync.Mutex
}

// NewQueue creates an empty offline queue.
func NewQueue() *Queue {
	return &Queue{
		pending: make(map[string][]*chat.Message),
	}
}

// Enqueue appends a message to the recipient's FIFO list.
func (q *Queue) Enqueue(recipientID string, msg *chat.Message) {
	q.mu.Lock()
	q.pending[recipientID] = append(q.pending[recipientID], msg)
	depth := len(q.pending[recipientID])
	q.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":     "Enqueue",
		"recipient_id": recipientID,
		"message_id":   msg.ID,
		"queue_depth":  depth,
	}).Debug("Message queued for offline recipient")

	if depth > highWaterMark {
		logrus.WithFields(logrus.Fields{
			"function":     "Enqueue",
			"recipient_id": recipientID,
			"queue_depth":  depth,
		}).Warn("Offline queue depth exceeds high-water mark")
	}
}

// Drain removes and returns all entries for the recipient in original
// enqueue order. A second drain with no intervening enqueue returns an
// empty slice.
func (q *Queue) Drain(recipientID string) []*chat.Message {
	q.mu.Lock()
	msgs := q.pending[recipientID]
	delete(q.pending, recipientID)
	q.mu.Unlock()

	if len(msgs) > 0 {
		logrus.WithFields(logrus.Fields{
			"function":     "Drain",
			"recipient_id": recipientID,
			"count":        len(msgs),
		}).Info("Offline queue drained")
	}
	return msgs
}

// PendingFor returns the number of queued messages for one recipient.
func (q *Queue) PendingFor(recipientID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[recipientID])
}

// Len returns the total number of queued messages across all recipients.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	total := 0
	for _, msgs := range q.pending {
		total += len(msgs)
	}
	return total
}
