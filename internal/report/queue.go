package report

import (
	"sync"
	"time"
)

const defaultQueueLimit = 32

// Queue is an in-memory Notifier. The TUI drains it once per frame; when
// the queue overflows the oldest notice is dropped.
type Queue struct {
	mu      sync.Mutex
	notices []Notice
	limit   int
}

// NewQueue returns a Queue with the default capacity.
func NewQueue() *Queue {
	return &Queue{limit: defaultQueueLimit}
}

// Show implements Notifier.
func (q *Queue) Show(message string, kind Kind, duration time.Duration) {
	if q == nil || message == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.notices) >= q.limit {
		q.notices = q.notices[1:]
	}
	q.notices = append(q.notices, Notice{
		Message:   message,
		Kind:      kind,
		Duration:  duration,
		CreatedAt: time.Now(),
	})
}

// Success implements Notifier.
func (q *Queue) Success(message string) { q.Show(message, KindSuccess, 4*time.Second) }

// Error implements Notifier.
func (q *Queue) Error(message string) { q.Show(message, KindError, 8*time.Second) }

// Warning implements Notifier.
func (q *Queue) Warning(message string) { q.Show(message, KindWarning, 6*time.Second) }

// Info implements Notifier.
func (q *Queue) Info(message string) { q.Show(message, KindInfo, 4*time.Second) }

// Drain returns and clears every pending notice.
func (q *Queue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}

// Pending returns the number of queued notices.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notices)
}
