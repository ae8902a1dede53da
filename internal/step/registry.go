package step

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a step's hooks against the shared context.
type Factory func(ctx *Context) (Hooks, error)

// Registry maintains known step factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a step factory. Returns an error if the name already
// exists.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("step: name is required")
	}
	if factory == nil {
		return fmt.Errorf("step: factory is required for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("step: %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a managed step by name.
func (r *Registry) Resolve(name string, ctx *Context) (*Base, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("step: unknown step %s", name)
	}
	hooks, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	return NewBase(hooks, ctx)
}

// Names returns a sorted list of registered step names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
