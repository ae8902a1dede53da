package events

import (
	"strings"
	"sync"
)

const (
	defaultSubscriberCapacity = 100
	defaultBacklogLimit       = 50
	defaultDedupeWindow       = 1024
)

// Logger receives drop diagnostics. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

// BusOption customizes Bus construction.
type BusOption func(*Bus)

// Bus delivers lifecycle events to step-keyed subscribers with
// buffering, deduplication, and bounded channel semantics.
type Bus struct {
	mu           sync.RWMutex
	subscribers  map[string]map[*subscriber]struct{}
	backlog      map[string][]Event
	recentIDs    map[string]struct{}
	recentOrder  []string
	channelSize  int
	backlogLimit int
	dedupeWindow int
	logger       Logger
}

// Subscription represents an active step subscription.
type Subscription struct {
	Events <-chan Event
	cancel func()
}

// Close terminates the subscription.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewBus constructs a bus with sane defaults.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subscribers:  map[string]map[*subscriber]struct{}{},
		backlog:      map[string][]Event{},
		recentIDs:    map[string]struct{}{},
		recentOrder:  make([]string, 0, defaultDedupeWindow),
		channelSize:  defaultSubscriberCapacity,
		backlogLimit: defaultBacklogLimit,
		dedupeWindow: defaultDedupeWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// BusWithLogger injects a logger for drop diagnostics.
func BusWithLogger(logger Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// BusWithSubscriberCapacity overrides the buffered channel size per subscriber.
func BusWithSubscriberCapacity(cap int) BusOption {
	return func(b *Bus) {
		if cap > 0 {
			b.channelSize = cap
		}
	}
}

// BusWithBacklogLimit overrides the backlog size for pre-subscription buffering.
func BusWithBacklogLimit(limit int) BusOption {
	return func(b *Bus) {
		if limit > 0 {
			b.backlogLimit = limit
		}
	}
}

// BusWithDedupeWindow controls how many recent event IDs are retained.
func BusWithDedupeWindow(size int) BusOption {
	return func(b *Bus) {
		if size > 0 {
			b.dedupeWindow = size
		}
	}
}

// Subscribe registers for events published for the named step. Buffered
// events for that step are replayed into the new subscription first.
func (b *Bus) Subscribe(step string) Subscription {
	key := normalizeStep(step)
	sub := newSubscriber(b.channelSize, b.logger)
	var backlog []Event
	b.mu.Lock()
	if b.subscribers[key] == nil {
		b.subscribers[key] = map[*subscriber]struct{}{}
	}
	b.subscribers[key][sub] = struct{}{}
	if existing := b.backlog[key]; len(existing) > 0 {
		backlog = append(backlog, existing...)
		delete(b.backlog, key)
	}
	b.mu.Unlock()
	for _, event := range backlog {
		sub.deliver(event)
	}
	return Subscription{
		Events: sub.channel(),
		cancel: func() {
			b.removeSubscriber(key, sub)
		},
	}
}

// Publish delivers the event to subscribers of its step, or buffers it
// when none exist yet. Events with a previously seen ID are dropped.
func (b *Bus) Publish(event Event) {
	if event.ID != "" && b.isDuplicate(event.ID) {
		return
	}
	key := normalizeStep(event.Step)
	if key == "" {
		return
	}
	b.mu.RLock()
	subs := b.snapshotSubscribers(key)
	b.mu.RUnlock()
	if len(subs) == 0 {
		b.bufferEvent(key, event)
		return
	}
	for _, sub := range subs {
		sub.deliver(event)
	}
}

func (b *Bus) snapshotSubscribers(step string) []*subscriber {
	live := b.subscribers[step]
	if len(live) == 0 {
		return nil
	}
	items := make([]*subscriber, 0, len(live))
	for sub := range live {
		items = append(items, sub)
	}
	return items
}

func (b *Bus) removeSubscriber(step string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs := b.subscribers[step]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subscribers, step)
		}
	}
	sub.close()
}

func (b *Bus) bufferEvent(step string, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	queue := b.backlog[step]
	if len(queue) >= b.backlogLimit {
		queue = queue[1:]
		if b.logger != nil {
			b.logger.Printf("events: backlog drop for %s (limit %d)", step, b.backlogLimit)
		}
	}
	queue = append(queue, event)
	b.backlog[step] = queue
}

func (b *Bus) isDuplicate(eventID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.recentIDs[eventID]; ok {
		return true
	}
	b.recentIDs[eventID] = struct{}{}
	b.recentOrder = append(b.recentOrder, eventID)
	if len(b.recentOrder) > b.dedupeWindow {
		oldest := b.recentOrder[0]
		b.recentOrder = b.recentOrder[1:]
		delete(b.recentIDs, oldest)
	}
	return false
}

func normalizeStep(step string) string {
	return strings.TrimSpace(strings.ToLower(step))
}

type subscriber struct {
	ch      chan Event
	logger  Logger
	closed  bool
	closeMu sync.Mutex
}

func newSubscriber(capacity int, logger Logger) *subscriber {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &subscriber{
		ch:     make(chan Event, capacity),
		logger: logger,
	}
}

func (s *subscriber) channel() <-chan Event {
	return s.ch
}

func (s *subscriber) deliver(event Event) {
	if s.isClosed() {
		return
	}
	select {
	case s.ch <- event:
		return
	default:
		oldest := <-s.ch
		if shouldDropOldest(oldest, event) {
			s.logDrop(oldest, "queue overflow")
			s.ch <- event
		} else {
			s.ch <- oldest
			s.logDrop(event, "queue overflow:incoming")
		}
	}
}

func (s *subscriber) logDrop(event Event, reason string) {
	if s.logger == nil {
		return
	}
	s.logger.Printf("events: dropped %s (%s)", event.Type, reason)
}

func (s *subscriber) close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.closeMu.Unlock()
}

func (s *subscriber) isClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}

// Errors and completion events survive queue overflow ahead of ordinary
// lifecycle chatter.
func shouldDropOldest(oldest, incoming Event) bool {
	oldestCritical := isCriticalEvent(oldest.Type)
	incomingCritical := isCriticalEvent(incoming.Type)
	switch {
	case oldestCritical && !incomingCritical:
		return false
	case !oldestCritical && incomingCritical:
		return true
	}
	return true
}

func isCriticalEvent(kind string) bool {
	kind = strings.ToLower(strings.TrimSpace(kind))
	return kind == TypeError || kind == TypeWizardDone
}
