package binding

import (
	"fmt"
	"sort"
	"sync"
)

// ActionFunc handles one dispatched event. The args map comes from the
// element's JSON args attribute and may be nil.
type ActionFunc func(ev *Event, args map[string]any) error

// Registry maps action names to callbacks. Registration is where typos are
// caught: the DOM scan later resolves names against the registry and skips
// (with a report) anything unknown, so a bad attribute can never bind.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewRegistry returns an empty action registry.
func NewRegistry() *Registry {
	return &Registry{actions: map[string]ActionFunc{}}
}

// Register installs an action. Returns an error for an empty name, a nil
// func, or a duplicate registration.
func (r *Registry) Register(name string, fn ActionFunc) error {
	if name == "" {
		return fmt.Errorf("binding: action name is required")
	}
	if fn == nil {
		return fmt.Errorf("binding: action func is required for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("binding: action %s already registered", name)
	}
	r.actions[name] = fn
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(name string, fn ActionFunc) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup resolves an action by name.
func (r *Registry) Lookup(name string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[name]
	return fn, ok
}

// Names returns the sorted registered action names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
