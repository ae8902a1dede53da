// Package timers provides the keyed trailing-edge debouncer the step
// lifecycle uses for autosave and field validation. Scheduling a key that
// already has a pending timer replaces it, so a burst of edits collapses to
// one call after the quiet period.
package timers

import (
	"sync"
	"time"
)

type pending struct {
	timer *time.Timer
	fn    func()
}

// Debouncer tracks deferred actions by key.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*pending
	closed  bool
}

// NewDebouncer returns an empty debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{pending: map[string]*pending{}}
}

// Schedule queues fn to run after delay. A prior pending action for the
// same key is cancelled and replaced. A non-positive delay runs fn
// immediately on the calling goroutine.
func (d *Debouncer) Schedule(key string, delay time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if delay <= 0 {
		d.mu.Lock()
		closed := d.closed
		d.mu.Unlock()
		if closed {
			return
		}
		d.Cancel(key)
		fn()
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if prior, ok := d.pending[key]; ok {
		prior.timer.Stop()
	}
	entry := &pending{fn: fn}
	entry.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		current, ok := d.pending[key]
		if !ok || current != entry {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = entry
	d.mu.Unlock()
}

// Cancel drops the pending action for key. Returns whether one was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.pending[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(d.pending, key)
	return true
}

// Flush runs the pending action for key immediately, if any.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	entry, ok := d.pending[key]
	if ok {
		entry.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
	if ok {
		entry.fn()
	}
}

// CancelAll drops every pending action. This is the bulk path Destroy uses.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, key)
	}
}

// Close cancels everything and rejects further scheduling.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, key)
	}
	d.closed = true
}

// Pending returns the number of tracked timers.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
