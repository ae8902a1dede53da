// Package state implements the observable key/value store wizard steps keep
// their working data in: subscriptions with optional property filters,
// per-key or batched change notification, JSON (de)serialization, and a
// bounded undo/redo history of full-state snapshots.
//
// Ordering is strict per mutating call: snapshot, then mutate, then notify.
// Subscriber callbacks run after the store's lock is released, so a
// subscriber may mutate the store re-entrantly.
//
// Subscriber errors are deliberately fail-loud: the first error returned by
// a callback aborts the remaining notifications for that call and is
// returned to the mutator. Library code elsewhere never fails loud; here a
// broken subscriber is a programming bug the caller must see.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// DefaultMaxHistory bounds the undo stack unless overridden.
const DefaultMaxHistory = 50

// ErrDestroyed is returned by mutations on a destroyed store.
var ErrDestroyed = errors.New("state: store destroyed")

// ValuePair carries a property's value before and after a batched mutation.
type ValuePair struct {
	Old any
	New any
}

// Change describes one notification. Sequential mutations fire one Change
// per key with Property/Old/New set; batched mutations fire a single Change
// with Batch populated. Reset marks full-state replacements, which notify
// every subscriber regardless of filter.
type Change struct {
	Property string
	Old      any
	New      any
	Batch    map[string]ValuePair
	Reset    bool
	State    map[string]any
}

// Subscriber receives change notifications. Returning an error propagates
// to the caller of the mutating method.
type Subscriber func(Change) error

type subscription struct {
	fn     Subscriber
	filter map[string]struct{} // nil means every change
}

// Option customizes Store construction.
type Option func(*Store)

// WithMaxHistory overrides the undo-stack bound.
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// Store is the observable state container.
type Store struct {
	mu         sync.Mutex
	values     map[string]any
	subs       []*subscription
	undo       [][]byte
	redo       [][]byte
	maxHistory int
	destroyed  bool
}

// New builds a store seeded with an optional initial mapping. The initial
// mapping does not produce a history entry.
func New(initial map[string]any, opts ...Option) *Store {
	s := &Store{
		values:     map[string]any{},
		maxHistory: DefaultMaxHistory,
	}
	for k, v := range initial {
		s.values[k] = v
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns the value for a field and whether it is present.
func (s *Store) Get(field string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[field]
	return v, ok
}

// GetState returns a deep copy of the full state.
func (s *Store) GetState() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.values)
}

// Set applies each update sequentially and fires one notification per key.
// The pre-mutation state is recorded once for the whole call.
func (s *Store) Set(updates map[string]any) error {
	return s.apply(updates, false)
}

// SetBatch applies every update and fires exactly one notification carrying
// the per-key old/new pairs.
func (s *Store) SetBatch(updates map[string]any) error {
	return s.apply(updates, true)
}

func (s *Store) apply(updates map[string]any, batch bool) error {
	if len(updates) == 0 {
		return nil
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	if err := s.recordHistoryLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	var changes []Change
	if batch {
		pairs := make(map[string]ValuePair, len(updates))
		for k, v := range updates {
			pairs[k] = ValuePair{Old: s.values[k], New: v}
			s.values[k] = v
		}
		changes = append(changes, Change{Batch: pairs, State: copyState(s.values)})
	} else {
		for k, v := range updates {
			old := s.values[k]
			s.values[k] = v
			changes = append(changes, Change{Property: k, Old: old, New: v, State: copyState(s.values)})
		}
	}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	return dispatch(subs, changes)
}

// Reset replaces the full state. A nil newState clears it. Resets notify
// every subscriber regardless of filter and record history like any other
// mutation.
func (s *Store) Reset(newState map[string]any) error {
	return s.reset(newState, true)
}

func (s *Store) reset(newState map[string]any, record bool) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	if record {
		if err := s.recordHistoryLocked(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.values = map[string]any{}
	for k, v := range newState {
		s.values[k] = v
	}
	change := Change{Reset: true, State: copyState(s.values)}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	return dispatch(subs, []Change{change})
}

// Subscribe registers a callback with an optional property filter. No
// filter means every change; otherwise the callback fires for listed
// properties and for every reset. The returned function unsubscribes
// exactly one registration and is safe to call repeatedly.
func (s *Store) Subscribe(fn Subscriber, filter ...string) func() {
	if fn == nil {
		return func() {}
	}
	sub := &subscription{fn: fn}
	if len(filter) > 0 {
		sub.filter = make(map[string]struct{}, len(filter))
		for _, p := range filter {
			sub.filter[p] = struct{}{}
		}
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, candidate := range s.subs {
				if candidate == sub {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Watch subscribes to a single property, receiving old and new values.
func (s *Store) Watch(property string, fn func(old, new any) error) func() {
	return s.Subscribe(func(c Change) error {
		switch {
		case c.Reset:
			v := c.State[property]
			return fn(v, v)
		case c.Batch != nil:
			if pair, ok := c.Batch[property]; ok {
				return fn(pair.Old, pair.New)
			}
			return nil
		default:
			return fn(c.Old, c.New)
		}
	}, property)
}

// Undo restores the previous snapshot. The replay itself writes no history
// entry; the replaced state moves to the redo stack instead. Returns false
// when there is nothing to undo.
func (s *Store) Undo() (bool, error) {
	s.mu.Lock()
	if s.destroyed || len(s.undo) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	snap := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	current, err := json.Marshal(s.values)
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("state: snapshot current: %w", err)
	}
	s.redo = append(s.redo, current)
	s.mu.Unlock()
	restored, err := decodeSnapshot(snap)
	if err != nil {
		return false, err
	}
	return true, s.reset(restored, false)
}

// Redo re-applies the most recently undone snapshot. See Undo for the
// history accounting rule. Returns false when there is nothing to redo.
func (s *Store) Redo() (bool, error) {
	s.mu.Lock()
	if s.destroyed || len(s.redo) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	snap := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	current, err := json.Marshal(s.values)
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("state: snapshot current: %w", err)
	}
	s.undo = append(s.undo, current)
	s.mu.Unlock()
	restored, err := decodeSnapshot(snap)
	if err != nil {
		return false, err
	}
	return true, s.reset(restored, false)
}

// HistoryLen returns the undo-stack depth.
func (s *Store) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

// OldestSnapshot decodes the oldest surviving undo snapshot, or nil when
// the history is empty.
func (s *Store) OldestSnapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undo) == 0 {
		return nil
	}
	decoded, err := decodeSnapshot(s.undo[0])
	if err != nil {
		return nil
	}
	return decoded
}

// ToJSON serializes the current state.
func (s *Store) ToJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s.values)
	if err != nil {
		return nil, fmt.Errorf("state: encode: %w", err)
	}
	return data, nil
}

// FromJSON replaces the state from a serialized snapshot. The load counts
// as a reset and records history.
func (s *Store) FromJSON(data []byte) error {
	restored, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	return s.reset(restored, true)
}

// Destroy clears subscribers and history. Further mutations return
// ErrDestroyed; reads keep working on the final state.
func (s *Store) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = nil
	s.undo = nil
	s.redo = nil
	s.destroyed = true
}

// recordHistoryLocked pushes the pre-mutation snapshot, truncates any redo
// future, and evicts the oldest entry past the cap.
func (s *Store) recordHistoryLocked() error {
	snap, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("state: snapshot: %w", err)
	}
	s.redo = nil
	s.undo = append(s.undo, snap)
	if len(s.undo) > s.maxHistory {
		s.undo = s.undo[1:]
	}
	return nil
}

func (s *Store) snapshotSubsLocked() []*subscription {
	return append([]*subscription(nil), s.subs...)
}

func dispatch(subs []*subscription, changes []Change) error {
	for _, change := range changes {
		for _, sub := range subs {
			if !sub.matches(change) {
				continue
			}
			if err := sub.fn(change); err != nil {
				return err
			}
		}
	}
	return nil
}

func (sub *subscription) matches(c Change) bool {
	if sub.filter == nil || c.Reset {
		return true
	}
	if c.Batch != nil {
		for k := range c.Batch {
			if _, ok := sub.filter[k]; ok {
				return true
			}
		}
		return false
	}
	_, ok := sub.filter[c.Property]
	return ok
}

func decodeSnapshot(data []byte) (map[string]any, error) {
	var restored map[string]any
	if err := json.Unmarshal(data, &restored); err != nil {
		return nil, fmt.Errorf("state: decode snapshot: %w", err)
	}
	return restored, nil
}

// copyState deep-copies JSON-shaped values. Scalars are returned as-is.
func copyState(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return copyState(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
