package binding

import "golang.org/x/net/html"

// Event is one user interaction dispatched into a Binder: a click on a
// button, a change on an input. Target is the element the interaction
// happened on; delegated matching walks from it up to the bound container.
type Event struct {
	Type   string
	Target *html.Node
	// Value carries the input value for change/input events.
	Value string

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault marks the event's default behavior as suppressed. The
// front end driving the dispatch decides what that means for it.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a handler or binding suppressed the default.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation halts delivery to any further matching bindings.
func (e *Event) StopPropagation() { e.propagationStopped = true }

// PropagationStopped reports whether delivery was halted.
func (e *Event) PropagationStopped() bool { return e.propagationStopped }
