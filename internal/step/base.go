package step

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/events"
	"github.com/webstepper/cyclewiz/internal/report"
	"github.com/webstepper/cyclewiz/internal/state"
	"github.com/webstepper/cyclewiz/internal/timers"
)

// Base drives a Hooks implementation through the step lifecycle. It owns
// the step's state store, bindings, and timers; the hooks own the domain.
type Base struct {
	hooks Hooks
	ctx   *Context

	mu          sync.Mutex
	status      Status
	store       *state.Store
	fragment    *html.Node
	binder      *binding.Binder
	handles     []binding.Handle
	ui          *binding.UIBinding
	debouncer   *timers.Debouncer
	unsubscribe func()
	runtime     *Context
}

// freshRuntime copies the context with a per-activation action registry,
// pre-seeded with any globally registered actions.
func freshRuntime(ctx *Context) *Context {
	runtime := *ctx
	runtime.Actions = binding.NewRegistry()
	if ctx.Actions != nil {
		for _, name := range ctx.Actions.Names() {
			if fn, ok := ctx.Actions.Lookup(name); ok {
				_ = runtime.Actions.Register(name, fn)
			}
		}
	}
	return &runtime
}

// NewBase wraps hooks for lifecycle management. The hooks' Info must
// validate; the context is required.
func NewBase(hooks Hooks, ctx *Context) (*Base, error) {
	if hooks == nil {
		return nil, fmt.Errorf("step: hooks are required")
	}
	if ctx == nil {
		return nil, fmt.Errorf("step: context is required")
	}
	if err := hooks.Info().Validate(); err != nil {
		return nil, err
	}
	return &Base{
		hooks:  hooks,
		ctx:    ctx,
		status: StatusUninitialized,
	}, nil
}

// Name returns the step's registered name.
func (b *Base) Name() string {
	return b.hooks.Info().Name
}

// Info returns the step's identity block.
func (b *Base) Info() Info {
	return b.hooks.Info()
}

// Status reports the current lifecycle phase.
func (b *Base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// State returns the step's store, nil before Init.
func (b *Base) State() *state.Store {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store
}

// Fragment returns the rendered step fragment, nil before Init or for
// headless steps.
func (b *Base) Fragment() *html.Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fragment
}

// Dispatch routes a UI event through the step's bindings and reports how
// many handlers ran. Zero before Init or after Destroy.
func (b *Base) Dispatch(ev *binding.Event) int {
	b.mu.Lock()
	binder := b.binder
	b.mu.Unlock()
	if binder == nil {
		return 0
	}
	return binder.Dispatch(ev)
}

// Init brings the step up: restore persisted data into a fresh store,
// render and bind the fragment, wire autosave and field validation, run
// OnInit, and announce readiness on the bus. Repeated calls are no-ops;
// a destroyed step cannot be re-initialized.
func (b *Base) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.status {
	case StatusInitialized:
		return nil
	case StatusDestroyed:
		return fmt.Errorf("step: %s is destroyed", b.Name())
	}
	name := b.Name()

	var initial map[string]any
	if b.ctx.Persistence != nil {
		saved, ok, err := b.ctx.Persistence.LoadStepData(name)
		if err != nil {
			b.report(err, "step.restore", report.SeverityWarning)
		} else if ok {
			initial = saved
		}
	}
	b.store = state.New(initial)

	// Every activation gets its own action registry seeded from the shared
	// one, so hook closures always capture the live store instead of one
	// from a previous activation.
	b.runtime = freshRuntime(b.ctx)

	fragment, err := b.hooks.ModulesInit(b.runtime, b.store)
	if err != nil {
		b.teardownLocked()
		return fmt.Errorf("step: init %s: %w", name, err)
	}
	b.fragment = fragment
	b.debouncer = timers.NewDebouncer()

	if fragment != nil {
		b.binder = binding.NewBinder(b.ctx.Reporter)
		b.handles = b.binder.Bind(fragment, b.runtime.Actions, binding.WithNamespace("step-"+name))
		b.ui = binding.BindUI(fragment, b.store)
	}
	// The subscription captures this activation's bindings and debouncer
	// instead of reading the fields, which teardown nils under b.mu while
	// changes may still be dispatching. Both are inert after teardown, so
	// a late change lands on a no-op.
	ui, debouncer := b.ui, b.debouncer
	b.unsubscribe = b.store.Subscribe(func(change state.Change) error {
		b.onStateChange(ui, debouncer, change)
		return nil
	})

	if err := b.hooks.OnInit(b.runtime, b.store); err != nil {
		b.teardownLocked()
		return fmt.Errorf("step: init %s: %w", name, err)
	}
	b.status = StatusInitialized
	b.logInit(name)
	b.publish(events.TypeStepReady, nil)
	return nil
}

// onStateChange runs inside store dispatch: push the change into the UI
// bindings, then arm the autosave and field-validation debounces. The
// bindings and debouncer arrive as arguments, not field reads, so a
// teardown racing the dispatch cannot hand this a nil.
func (b *Base) onStateChange(ui *binding.UIBinding, debouncer *timers.Debouncer, change state.Change) {
	if ui != nil {
		if change.Property == "" || change.Reset || change.Batch != nil {
			ui.Update("")
		} else {
			ui.Update(change.Property)
		}
	}
	name := b.Name()
	debouncer.Schedule("autosave:"+name, b.ctx.autosaveDelay(), b.autosave)
	if change.Property != "" && !change.Reset {
		property := change.Property
		debouncer.Schedule("validate:"+name+":"+property, b.ctx.validateDelay(), func() {
			b.validateField(property)
		})
	}
}

func (b *Base) autosave() {
	data := b.hooks.CollectData(b.store)
	if b.ctx.Persistence == nil {
		return
	}
	name := b.Name()
	if err := b.ctx.Persistence.SaveStepData(name, data); err != nil {
		b.report(err, "step.autosave", report.SeverityError)
		return
	}
	b.publish(events.TypeDataSaved, map[string]any{"fields": len(data)})
}

// Save persists the step's data immediately, collapsing any pending
// autosave.
func (b *Base) Save() error {
	b.mu.Lock()
	if b.status != StatusInitialized {
		b.mu.Unlock()
		return fmt.Errorf("step: %s is not initialized", b.Name())
	}
	debouncer := b.debouncer
	b.mu.Unlock()
	debouncer.Cancel("autosave:" + b.Name())

	data := b.hooks.CollectData(b.store)
	if b.ctx.Persistence == nil {
		return nil
	}
	if err := b.ctx.Persistence.SaveStepData(b.Name(), data); err != nil {
		return fmt.Errorf("step: save %s: %w", b.Name(), err)
	}
	b.publish(events.TypeDataSaved, map[string]any{"fields": len(data)})
	return nil
}

// validateField re-runs validation after a quiet period on one property
// and updates only that field's marker.
func (b *Base) validateField(property string) {
	issues := b.hooks.ValidateData(b.hooks.CollectData(b.store))
	field := b.findField(property)
	if field == nil || b.ctx.Validation == nil {
		return
	}
	for _, issue := range issues {
		if issue.Field == property {
			b.ctx.Validation.Show(field, issue.Message)
			return
		}
	}
	b.ctx.Validation.Clear(field)
}

// ValidateStep runs full validation, refreshes every field marker, and
// returns the findings. It never fails loud: problems come back as
// issues, not errors.
func (b *Base) ValidateStep() []Issue {
	b.mu.Lock()
	fragment := b.fragment
	b.mu.Unlock()

	issues := b.hooks.ValidateData(b.hooks.CollectData(b.store))
	if b.ctx.Validation != nil && fragment != nil {
		b.ctx.Validation.ClearAll(fragment)
		for _, issue := range issues {
			if field := b.findField(issue.Field); field != nil {
				b.ctx.Validation.Show(field, issue.Message)
			}
		}
	}
	b.publish(events.TypeValidation, map[string]any{"issues": len(issues)})
	return issues
}

// Destroy tears the step down: cancel timers, unbind, run OnDestroy,
// destroy the store, and announce on the bus. Idempotent; destroyed is
// terminal.
func (b *Base) Destroy() error {
	b.mu.Lock()
	if b.status == StatusDestroyed {
		b.mu.Unlock()
		return nil
	}
	initialized := b.status == StatusInitialized
	b.status = StatusDestroyed
	b.teardownLocked()
	store := b.store
	runtime := b.runtime
	b.mu.Unlock()

	if !initialized {
		return nil
	}
	if runtime == nil {
		runtime = b.ctx
	}
	err := b.hooks.OnDestroy(runtime)
	if err != nil {
		b.report(err, "step.destroy", report.SeverityError)
	}
	if store != nil {
		store.Destroy()
	}
	b.publish(events.TypeStepDestroyed, nil)
	if err != nil {
		return fmt.Errorf("step: destroy %s: %w", b.Name(), err)
	}
	return nil
}

func (b *Base) teardownLocked() {
	if b.debouncer != nil {
		b.debouncer.Close()
		b.debouncer = nil
	}
	if b.binder != nil {
		b.binder.UnbindHandles(b.handles)
		b.handles = nil
	}
	if b.ui != nil {
		b.ui.Unbind()
		b.ui = nil
	}
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *Base) findField(name string) *html.Node {
	b.mu.Lock()
	fragment := b.fragment
	b.mu.Unlock()
	if fragment == nil || name == "" {
		return nil
	}
	return dom.First(fragment, "[name="+name+"]")
}

func (b *Base) publish(kind string, payload map[string]any) {
	if b.ctx.Bus == nil {
		return
	}
	b.ctx.Bus.Publish(events.NewEvent(b.Name(), kind, payload))
}

func (b *Base) report(err error, context string, severity report.Severity) {
	if b.ctx.Reporter == nil {
		return
	}
	b.ctx.Reporter.Handle(err, context, severity, map[string]any{"step": b.Name()})
}

func (b *Base) logInit(name string) {
	if b.ctx.Logger == nil {
		return
	}
	b.ctx.Logger.Debug("step initialized",
		zap.String("step", name),
		zap.Int("bindings", len(b.handles)),
	)
}
