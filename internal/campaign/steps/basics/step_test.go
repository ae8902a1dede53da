package basics

import (
	"strings"
	"testing"
	"time"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/events"
	"github.com/webstepper/cyclewiz/internal/persist"
	"github.com/webstepper/cyclewiz/internal/step"
)

func newTestBase(t *testing.T) *step.Base {
	t.Helper()
	ctx := step.NewContext(persist.NewMemStore(), events.NewBus(), nil).
		WithDelays(10*time.Millisecond, 5*time.Millisecond)
	registry := step.NewRegistry()
	Register(registry)
	base, err := registry.Resolve(stepName, ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := base.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = base.Destroy() })
	return base
}

func TestTypingUpdatesStateAndSummary(t *testing.T) {
	base := newTestBase(t)

	input := dom.First(base.Fragment(), "[name=campaign_name]")
	if input == nil {
		t.Fatalf("campaign_name input missing")
	}
	summary := dom.First(base.Fragment(), ".step-summary")
	if got := dom.AttrOr(summary, "aria-hidden", ""); got != "true" {
		t.Fatalf("summary should start hidden, aria-hidden = %q", got)
	}

	handled := base.Dispatch(&binding.Event{Type: "input", Target: input, Value: "Spring sale"})
	if handled != 1 {
		t.Fatalf("dispatch handled %d handlers, want 1", handled)
	}
	got, ok := base.State().Get("campaign_name")
	if !ok || got != "Spring sale" {
		t.Fatalf("campaign_name = %v (%v)", got, ok)
	}
	if got := dom.AttrOr(summary, "aria-hidden", ""); got == "true" {
		t.Fatalf("summary should be visible once named")
	}
}

func TestOnInitSeedsDefaultPriority(t *testing.T) {
	base := newTestBase(t)
	got, ok := base.State().Get("priority")
	if !ok || got != 10 {
		t.Fatalf("priority = %v (%v), want seeded 10", got, ok)
	}
}

func TestValidateDataFindings(t *testing.T) {
	s := New()
	issues := s.ValidateData(map[string]any{"campaign_name": "  "})
	if len(issues) != 1 || issues[0].Field != "campaign_name" {
		t.Fatalf("issues = %v", issues)
	}
	long := strings.Repeat("x", 101)
	issues = s.ValidateData(map[string]any{"campaign_name": long})
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "100") {
		t.Fatalf("issues = %v", issues)
	}
	issues = s.ValidateData(map[string]any{"campaign_name": "Spring sale", "priority": float64(-3)})
	if len(issues) != 1 || issues[0].Field != "priority" {
		t.Fatalf("issues = %v", issues)
	}
	if issues := s.ValidateData(map[string]any{"campaign_name": "Spring sale", "priority": float64(5)}); len(issues) != 0 {
		t.Fatalf("expected clean data, got %v", issues)
	}
}

func TestCollectDataPicksKnownFields(t *testing.T) {
	base := newTestBase(t)
	if err := base.State().Set(map[string]any{
		"campaign_name": "Spring sale",
		"scratch":       "ignore me",
	}); err != nil {
		t.Fatalf("set: %v", err)
	}
	data := New().CollectData(base.State())
	if data["campaign_name"] != "Spring sale" {
		t.Fatalf("campaign_name = %v", data["campaign_name"])
	}
	if _, ok := data["scratch"]; ok {
		t.Fatalf("unexpected scratch field in %v", data)
	}
}
