// Package binding wires declaratively annotated HTML fragments to typed
// action callbacks and to observable state. Elements opt in through data
// attributes; the binder scans a container once, derives a delegated
// selector per element, and dispatches events against the recorded
// bindings. A malformed element never aborts the scan and a failing
// handler never aborts the dispatch loop; both are routed to the
// ErrorReporter and skipped.
package binding

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/report"
)

// Declarative attribute surface scanned by Bind.
const (
	AttrOn     = "data-on"     // space-separated event names
	AttrAction = "data-action" // registered action name
	AttrArgs   = "data-args"   // optional JSON payload

	// ClassMarker prefixes the one CSS class the selector derivation will
	// consider, so styling classes never become accidental bind targets.
	ClassMarker = "js-"
)

// Handle identifies one (element, event) binding so it can be reversed.
type Handle struct {
	ID        string
	Namespace string
	Action    string
	EventType string
	Selector  string
}

type bindingEntry struct {
	handle    Handle
	container *html.Node
	element   *html.Node // direct-binding fallback target
	fn        ActionFunc
	args      map[string]any
	prevent   bool
	stop      bool
}

// Option customizes one Bind call.
type Option func(*bindOptions)

type bindOptions struct {
	namespace string
	prevent   bool
	stop      bool
}

// WithNamespace groups the resulting bindings under a caller-chosen
// namespace for bulk unbinding. Defaults to a random one per Bind call.
func WithNamespace(ns string) Option {
	return func(o *bindOptions) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

// WithPreventDefault overrides the default-on preventDefault behavior.
func WithPreventDefault(on bool) Option {
	return func(o *bindOptions) { o.prevent = on }
}

// WithStopPropagation overrides the default-off stopPropagation behavior.
func WithStopPropagation(on bool) Option {
	return func(o *bindOptions) { o.stop = on }
}

// Binder owns the active bindings and dispatches events against them.
type Binder struct {
	mu       sync.Mutex
	reporter report.ErrorReporter
	entries  []*bindingEntry
}

// NewBinder returns a Binder reporting through the given collaborator.
func NewBinder(reporter report.ErrorReporter) *Binder {
	return &Binder{reporter: reporter}
}

// Bind scans container (inclusive) for elements carrying both the event
// and action attributes and records one binding per (element, event) pair.
// Elements naming unregistered actions are reported and skipped; malformed
// args JSON is reported as a warning and treated as absent.
func (b *Binder) Bind(container *html.Node, actions *Registry, opts ...Option) []Handle {
	options := bindOptions{namespace: "ns-" + uuid.NewString(), prevent: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if container == nil || actions == nil {
		b.report(fmt.Errorf("binding: container and registry are required"), "binding.bind", report.SeverityError, nil)
		return nil
	}

	var handles []Handle
	for _, el := range dom.FindByAttr(container, AttrOn) {
		actionName, ok := dom.Attr(el, AttrAction)
		if !ok || strings.TrimSpace(actionName) == "" {
			continue
		}
		actionName = strings.TrimSpace(actionName)
		fn, ok := actions.Lookup(actionName)
		if !ok {
			b.report(fmt.Errorf("binding: action %q is not registered", actionName),
				"binding.bind", report.SeverityError, map[string]any{"action": actionName})
			continue
		}
		args := b.parseArgs(el, actionName)
		selector := deriveSelector(el, actionName)
		events, _ := dom.Attr(el, AttrOn)
		for _, eventType := range strings.Fields(events) {
			entry := &bindingEntry{
				handle: Handle{
					ID:        uuid.NewString(),
					Namespace: options.namespace,
					Action:    actionName,
					EventType: eventType,
					Selector:  selector,
				},
				container: container,
				fn:        fn,
				args:      args,
				prevent:   options.prevent,
				stop:      options.stop,
			}
			if selector == "" {
				entry.element = el
			}
			b.mu.Lock()
			b.entries = append(b.entries, entry)
			b.mu.Unlock()
			handles = append(handles, entry.handle)
		}
	}
	return handles
}

func (b *Binder) parseArgs(el *html.Node, actionName string) map[string]any {
	raw, ok := dom.Attr(el, AttrArgs)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		b.report(fmt.Errorf("binding: parse args for %s: %w", actionName, err),
			"binding.bind", report.SeverityWarning, map[string]any{"action": actionName, "raw": raw})
		return nil
	}
	return args
}

// deriveSelector prefers stable identity over styling: id, then the name
// attribute, then a marker-prefixed class, then the action attribute.
func deriveSelector(el *html.Node, actionName string) string {
	if id, ok := dom.Attr(el, "id"); ok && id != "" {
		return "#" + id
	}
	if name, ok := dom.Attr(el, "name"); ok && name != "" {
		return fmt.Sprintf("[name=%s]", name)
	}
	if classes, ok := dom.Attr(el, "class"); ok {
		for _, class := range strings.Fields(classes) {
			if strings.HasPrefix(class, ClassMarker) {
				return "." + class
			}
		}
	}
	if actionName != "" {
		return fmt.Sprintf("[%s=%s]", AttrAction, actionName)
	}
	return ""
}

// Dispatch delivers an event to every matching binding in registration
// order and returns how many handlers ran. Handler errors and panics are
// reported with action/event metadata and never escape the loop.
func (b *Binder) Dispatch(ev *Event) int {
	if ev == nil || ev.Target == nil {
		return 0
	}
	b.mu.Lock()
	entries := append([]*bindingEntry(nil), b.entries...)
	b.mu.Unlock()

	invoked := 0
	for _, entry := range entries {
		if ev.PropagationStopped() {
			break
		}
		if entry.handle.EventType != ev.Type {
			continue
		}
		if !matches(entry, ev.Target) {
			continue
		}
		if entry.prevent {
			ev.PreventDefault()
		}
		if entry.stop {
			ev.StopPropagation()
		}
		b.invoke(entry, ev)
		invoked++
	}
	return invoked
}

// matches applies delegated semantics: the target (or an ancestor up to
// the container) must match the derived selector, and the target must sit
// inside the bound container. Direct bindings compare element identity.
func matches(entry *bindingEntry, target *html.Node) bool {
	if entry.element != nil {
		return target == entry.element
	}
	if !dom.Contains(entry.container, target) {
		return false
	}
	return dom.Closest(target, entry.container, entry.handle.Selector) != nil
}

func (b *Binder) invoke(entry *bindingEntry, ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.report(fmt.Errorf("binding: handler panic: %v", r), "binding.dispatch",
				report.SeverityCritical, map[string]any{
					"action": entry.handle.Action,
					"event":  entry.handle.EventType,
				})
		}
	}()
	if err := entry.fn(ev, entry.args); err != nil {
		b.report(err, "binding.dispatch", report.SeverityError, map[string]any{
			"action": entry.handle.Action,
			"event":  entry.handle.EventType,
		})
	}
}

// UnbindHandles removes the bindings identified by the handles. Unknown
// handles are ignored, so the call is idempotent.
func (b *Binder) UnbindHandles(handles []Handle) {
	if len(handles) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		drop[h.ID] = struct{}{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.entries[:0]
	for _, entry := range b.entries {
		if _, gone := drop[entry.handle.ID]; !gone {
			kept = append(kept, entry)
		}
	}
	b.entries = kept
}

// UnbindNamespace removes every binding in the namespace. Idempotent.
func (b *Binder) UnbindNamespace(namespace string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.entries[:0]
	for _, entry := range b.entries {
		if entry.handle.Namespace != namespace {
			kept = append(kept, entry)
		}
	}
	b.entries = kept
}

// Rebind drops the namespace and scans the container again. Used after a
// container's inner HTML is replaced, which orphans the recorded elements.
func (b *Binder) Rebind(namespace string, container *html.Node, actions *Registry, opts ...Option) []Handle {
	b.UnbindNamespace(namespace)
	return b.Bind(container, actions, append(opts, WithNamespace(namespace))...)
}

// Active returns the number of live bindings.
func (b *Binder) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Binder) report(err error, context string, severity report.Severity, fields map[string]any) {
	if b.reporter != nil {
		b.reporter.Handle(err, context, severity, fields)
	}
}
