package schedule

import (
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

func TestEndDateEnablesWithCheckbox(t *testing.T) {
	base := newTestBase(t)
	endInput := dom.First(base.Fragment(), "[name=end_date]")
	if endInput == nil {
		t.Fatalf("end_date input missing")
	}
	if _, disabled := dom.Attr(endInput, "disabled"); !disabled {
		t.Fatalf("end_date should start disabled")
	}

	checkbox := dom.First(base.Fragment(), "[name=has_end]")
	base.Dispatch(&binding.Event{Type: "change", Target: checkbox, Value: "true"})
	if _, disabled := dom.Attr(endInput, "disabled"); disabled {
		t.Fatalf("end_date should enable once has_end is on")
	}
}

func TestToggleOffClearsEndDate(t *testing.T) {
	base := newTestBase(t)
	checkbox := dom.First(base.Fragment(), "[name=has_end]")
	endInput := dom.First(base.Fragment(), "[name=end_date]")

	base.Dispatch(&binding.Event{Type: "change", Target: checkbox, Value: "true"})
	base.Dispatch(&binding.Event{Type: "change", Target: endInput, Value: "2026-03-31"})
	if got, _ := base.State().Get("end_date"); got != "2026-03-31" {
		t.Fatalf("end_date = %v", got)
	}

	base.Dispatch(&binding.Event{Type: "change", Target: checkbox, Value: "false"})
	if got, _ := base.State().Get("end_date"); got != "" {
		t.Fatalf("end_date should clear when the end is switched off, got %v", got)
	}
}

func TestRecurrenceNoteVisibility(t *testing.T) {
	base := newTestBase(t)
	note := dom.First(base.Fragment(), ".recurrence-note")
	if got := dom.AttrOr(note, "aria-hidden", ""); got != "true" {
		t.Fatalf("note should start hidden for cycle none")
	}
	sel := dom.First(base.Fragment(), "[name=recurrence]")
	base.Dispatch(&binding.Event{Type: "change", Target: sel, Value: "weekly"})
	if got := dom.AttrOr(note, "aria-hidden", ""); got == "true" {
		t.Fatalf("note should show for a recurring cycle")
	}
}

func TestValidateDataFindings(t *testing.T) {
	s := New()
	cases := []struct {
		name  string
		data  map[string]any
		field string
	}{
		{"missing start", map[string]any{}, "start_date"},
		{"garbled start", map[string]any{"start_date": "soon"}, "start_date"},
		{"end before start", map[string]any{
			"start_date": "2026-03-31", "has_end": true, "end_date": "2026-03-01",
		}, "end_date"},
		{"recurring without end", map[string]any{
			"start_date": "2026-03-01", "recurrence": "weekly",
		}, "recurrence"},
		{"unknown cycle", map[string]any{
			"start_date": "2026-03-01", "recurrence": "fortnightly",
		}, "recurrence"},
	}
	for _, tc := range cases {
		issues := s.ValidateData(tc.data)
		found := false
		for _, issue := range issues {
			if issue.Field == tc.field {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: no issue for %s in %v", tc.name, tc.field, issues)
		}
	}
	clean := map[string]any{
		"start_date": "2026-03-01",
		"has_end":    true,
		"end_date":   "2026-03-31",
		"recurrence": "weekly",
	}
	if issues := s.ValidateData(clean); len(issues) != 0 {
		t.Fatalf("expected clean data, got %v", issues)
	}
}

func TestBuildSchedule(t *testing.T) {
	built := BuildSchedule(map[string]any{
		"start_date": "2026-03-01",
		"has_end":    true,
		"end_date":   "2026-03-31",
		"recurrence": "weekly",
	})
	if built.Start != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("start = %v", built.Start)
	}
	if built.End != time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("end = %v", built.End)
	}
	open := BuildSchedule(map[string]any{"start_date": "2026-03-01", "end_date": "2026-03-31"})
	if !open.End.IsZero() {
		t.Fatalf("end should be dropped without has_end, got %v", open.End)
	}
	if open.Cycle != "none" {
		t.Fatalf("cycle = %v", open.Cycle)
	}
}
