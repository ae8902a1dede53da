package step

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/events"
	"github.com/webstepper/cyclewiz/internal/persist"
	"github.com/webstepper/cyclewiz/internal/state"
)

const basicsMarkup = `<div class="step-basics">
  <input type="text" name="campaign_name" data-field="campaign_name">
  <p class="greeting" data-show-when="campaign_name" data-show-when-operator="not-empty">Looking good</p>
</div>`

type fakeStep struct {
	info      Info
	markup    string
	seed      map[string]any
	initErr   error
	renderErr error
	destroys  int
}

func (f *fakeStep) Info() Info { return f.info }

func (f *fakeStep) ModulesInit(ctx *Context, st *state.Store) (*html.Node, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	if f.markup == "" {
		return nil, nil
	}
	return dom.ParseFragment(f.markup)
}

func (f *fakeStep) OnInit(ctx *Context, st *state.Store) error {
	if f.initErr != nil {
		return f.initErr
	}
	if f.seed != nil {
		return st.SetBatch(f.seed)
	}
	return nil
}

func (f *fakeStep) CollectData(st *state.Store) map[string]any {
	return st.GetState()
}

func (f *fakeStep) ValidateData(data map[string]any) []Issue {
	name, _ := data["campaign_name"].(string)
	if strings.TrimSpace(name) == "" {
		return []Issue{{Field: "campaign_name", Message: "Campaign name is required"}}
	}
	return nil
}

func (f *fakeStep) OnDestroy(ctx *Context) error {
	f.destroys++
	return nil
}

func newTestContext(t *testing.T) (*Context, *persist.MemStore, *events.Bus) {
	t.Helper()
	store := persist.NewMemStore()
	bus := events.NewBus()
	ctx := NewContext(store, bus, nil).WithDelays(20*time.Millisecond, 10*time.Millisecond)
	return ctx, store, bus
}

func newTestStep(t *testing.T, ctx *Context) (*Base, *fakeStep) {
	t.Helper()
	hooks := &fakeStep{
		info:   Info{Name: "basics", Title: "Campaign basics", Order: 1},
		markup: basicsMarkup,
	}
	base, err := NewBase(hooks, ctx)
	if err != nil {
		t.Fatalf("new base: %v", err)
	}
	return base, hooks
}

func drainType(t *testing.T, sub events.Subscription, kind string) events.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sub.Events:
			if ev.Type == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestInitIsIdempotentAndAnnouncesReady(t *testing.T) {
	ctx, _, bus := newTestContext(t)
	base, _ := newTestStep(t, ctx)

	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := base.Init(); err != nil {
		t.Fatalf("second init: %v", err)
	}
	if base.Status() != StatusInitialized {
		t.Fatalf("status = %s", base.Status())
	}

	sub := bus.Subscribe("basics")
	defer sub.Close()
	ready := drainType(t, sub, events.TypeStepReady)
	if ready.Step != "basics" {
		t.Fatalf("ready event step = %q", ready.Step)
	}
	select {
	case ev := <-sub.Events:
		if ev.Type == events.TypeStepReady {
			t.Fatalf("duplicate ready event from repeated init")
		}
	default:
	}
}

func TestInitRestoresPersistedData(t *testing.T) {
	ctx, store, _ := newTestContext(t)
	if err := store.SaveStepData("basics", map[string]any{"campaign_name": "Spring sale"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	base, _ := newTestStep(t, ctx)
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	got, ok := base.State().Get("campaign_name")
	if !ok || got != "Spring sale" {
		t.Fatalf("restored campaign_name = %v (%v)", got, ok)
	}
}

func TestAutosaveDebounceCollapsesBursts(t *testing.T) {
	ctx, store, bus := newTestContext(t)
	base, _ := newTestStep(t, ctx)
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	sub := bus.Subscribe("basics")
	defer sub.Close()

	for i := 0; i < 5; i++ {
		if err := base.State().Set(map[string]any{"campaign_name": fmt.Sprintf("Draft %d", i)}); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	drainType(t, sub, events.TypeDataSaved)

	saved, ok, err := store.LoadStepData("basics")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if saved["campaign_name"] != "Draft 4" {
		t.Fatalf("autosaved value = %v, want last write", saved["campaign_name"])
	}
}

func TestStateChangePushesUIUpdates(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	base, _ := newTestStep(t, ctx)
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	greeting := dom.First(base.Fragment(), ".greeting")
	if greeting == nil {
		t.Fatalf("greeting element missing")
	}
	if !dom.HasClass(greeting, "greeting") {
		t.Fatalf("fixture broken")
	}
	if got := dom.AttrOr(greeting, "aria-hidden", ""); got != "true" {
		t.Fatalf("greeting should start hidden, aria-hidden = %q", got)
	}
	if err := base.State().Set(map[string]any{"campaign_name": "Spring sale"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := dom.AttrOr(greeting, "aria-hidden", ""); got == "true" {
		t.Fatalf("greeting should be visible after name set")
	}
}

func TestFieldValidationDebounceMarksField(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	base, _ := newTestStep(t, ctx)
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := base.State().Set(map[string]any{"campaign_name": "  "}); err != nil {
		t.Fatalf("set: %v", err)
	}
	field := dom.First(base.Fragment(), "[name=campaign_name]")
	waitFor(t, func() bool { return dom.HasClass(field, "field-error") })

	if err := base.State().Set(map[string]any{"campaign_name": "Spring sale"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	waitFor(t, func() bool { return !dom.HasClass(field, "field-error") })
}

func TestValidateStepReturnsIssuesAndMarksFields(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	base, _ := newTestStep(t, ctx)
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	issues := base.ValidateStep()
	if len(issues) != 1 || issues[0].Field != "campaign_name" {
		t.Fatalf("issues = %v", issues)
	}
	field := dom.First(base.Fragment(), "[name=campaign_name]")
	if !dom.HasClass(field, "field-error") {
		t.Fatalf("expected field marked after validate")
	}
	if err := base.State().Set(map[string]any{"campaign_name": "Spring sale"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if issues := base.ValidateStep(); len(issues) != 0 {
		t.Fatalf("expected clean validation, got %v", issues)
	}
	if dom.HasClass(field, "field-error") {
		t.Fatalf("expected marker cleared after clean validate")
	}
}

func TestSavePersistsImmediatelyAndCancelsAutosave(t *testing.T) {
	ctx, store, _ := newTestContext(t)
	base, _ := newTestStep(t, ctx)
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := base.State().Set(map[string]any{"campaign_name": "Spring sale"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := base.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	saved, ok, err := store.LoadStepData("basics")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if saved["campaign_name"] != "Spring sale" {
		t.Fatalf("saved value = %v", saved["campaign_name"])
	}
}

func TestDestroyIsIdempotentAndCancelsPendingWork(t *testing.T) {
	ctx, store, bus := newTestContext(t)
	base, hooks := newTestStep(t, ctx)
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := base.State().Set(map[string]any{"campaign_name": "Never saved"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := base.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := base.Destroy(); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
	if hooks.destroys != 1 {
		t.Fatalf("OnDestroy ran %d times", hooks.destroys)
	}
	if base.Status() != StatusDestroyed {
		t.Fatalf("status = %s", base.Status())
	}

	sub := bus.Subscribe("basics")
	defer sub.Close()
	drainType(t, sub, events.TypeStepDestroyed)

	time.Sleep(50 * time.Millisecond)
	if _, ok, _ := store.LoadStepData("basics"); ok {
		t.Fatalf("pending autosave fired after destroy")
	}

	if err := base.Init(); err == nil {
		t.Fatalf("expected error re-initializing destroyed step")
	}
}

func TestLateStateChangeAfterDestroyIsInert(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	base, _ := newTestStep(t, ctx)
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	base.mu.Lock()
	ui, debouncer := base.ui, base.debouncer
	base.mu.Unlock()

	if err := base.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	// A dispatch snapshotted before teardown can still deliver its change
	// afterwards; it must land on closed machinery, not nil fields.
	base.onStateChange(ui, debouncer, state.Change{Property: "campaign_name", New: "late"})
	if got := debouncer.Pending(); got != 0 {
		t.Fatalf("closed debouncer holds %d pending timers", got)
	}
}

func TestInitFailurePropagatesHookError(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	hooks := &fakeStep{
		info:    Info{Name: "basics", Title: "Campaign basics"},
		markup:  basicsMarkup,
		initErr: fmt.Errorf("boom"),
	}
	base, err := NewBase(hooks, ctx)
	if err != nil {
		t.Fatalf("new base: %v", err)
	}
	if err := base.Init(); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("init error = %v", err)
	}
	if base.Status() != StatusUninitialized {
		t.Fatalf("status after failed init = %s", base.Status())
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister("basics", func(ctx *Context) (Hooks, error) {
		return &fakeStep{info: Info{Name: "basics", Title: "Campaign basics"}}, nil
	})
	if err := registry.Register("basics", nil); err == nil {
		t.Fatalf("expected error for nil factory")
	}
	if err := registry.Register("", func(ctx *Context) (Hooks, error) { return nil, nil }); err == nil {
		t.Fatalf("expected error for empty name")
	}

	ctx, _, _ := newTestContext(t)
	base, err := registry.Resolve("basics", ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if base.Name() != "basics" {
		t.Fatalf("resolved step name = %q", base.Name())
	}
	if _, err := registry.Resolve("missing", ctx); err == nil {
		t.Fatalf("expected error for unknown step")
	}
	if got := registry.Names(); len(got) != 1 || got[0] != "basics" {
		t.Fatalf("names = %v", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
