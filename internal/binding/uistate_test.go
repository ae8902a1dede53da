package binding

import (
	"testing"

	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/state"
)

const scheduleMarkup = `<div>
	<div id="simple-panel" data-show-when="mode" data-show-when-value="simple">simple</div>
	<div id="advanced-panel" data-hide-when="mode" data-hide-when-value="simple">advanced</div>
	<button id="save" data-disable-when="dirty" data-disable-when-value="false">Save</button>
	<input id="end-date" data-enable-when="has_end" data-enable-when-value="true"/>
	<div id="tier-box" data-class-when="tier_count" data-class-when-value="0" data-class-when-operator="greater-than" data-class-name="has-tiers">tiers</div>
</div>`

func TestShowHideTogglesAriaHidden(t *testing.T) {
	container, err := dom.ParseFragment(scheduleMarkup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st := state.New(map[string]any{"mode": "simple", "dirty": true, "has_end": true, "tier_count": 0})
	b := BindUI(container, st)

	simple := dom.First(container, "#simple-panel")
	advanced := dom.First(container, "#advanced-panel")
	if Hidden(simple) {
		t.Fatalf("simple panel should be visible in simple mode")
	}
	if _, ok := dom.Attr(simple, "aria-hidden"); ok {
		t.Fatalf("visible element must not carry aria-hidden")
	}
	if !Hidden(advanced) {
		t.Fatalf("advanced panel should be hidden in simple mode")
	}
	if v, _ := dom.Attr(advanced, "aria-hidden"); v != "true" {
		t.Fatalf("hidden element must carry aria-hidden=true, got %q", v)
	}

	if err := st.Set(map[string]any{"mode": "advanced"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	b.Update("mode")
	if !Hidden(simple) || Hidden(advanced) {
		t.Fatalf("expected panels flipped in advanced mode")
	}
	if v, _ := dom.Attr(simple, "aria-hidden"); v != "true" {
		t.Fatalf("expected aria-hidden on now-hidden panel")
	}
}

func TestEnableDisableLockstep(t *testing.T) {
	container, err := dom.ParseFragment(scheduleMarkup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st := state.New(map[string]any{"mode": "simple", "dirty": false, "has_end": false, "tier_count": 0})
	b := BindUI(container, st)

	save := dom.First(container, "#save")
	if v, _ := dom.Attr(save, "disabled"); v != "disabled" {
		t.Fatalf("expected save disabled while clean")
	}
	if v, _ := dom.Attr(save, "aria-disabled"); v != "true" {
		t.Fatalf("expected aria-disabled true")
	}
	if !dom.HasClass(save, "disabled") {
		t.Fatalf("expected disabled class")
	}

	endDate := dom.First(container, "#end-date")
	if _, ok := dom.Attr(endDate, "disabled"); !ok {
		t.Fatalf("expected end-date disabled while has_end is false")
	}

	_ = st.Set(map[string]any{"dirty": true, "has_end": true})
	b.Update("dirty")
	b.Update("has_end")
	if _, ok := dom.Attr(save, "disabled"); ok {
		t.Fatalf("expected save enabled once dirty")
	}
	if dom.HasClass(save, "disabled") {
		t.Fatalf("expected disabled class removed")
	}
	if _, ok := dom.Attr(endDate, "aria-disabled"); ok {
		t.Fatalf("expected aria-disabled removed")
	}
}

func TestClassToggleWithOperator(t *testing.T) {
	container, err := dom.ParseFragment(scheduleMarkup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st := state.New(map[string]any{"mode": "simple", "dirty": true, "has_end": true, "tier_count": 0})
	b := BindUI(container, st)

	box := dom.First(container, "#tier-box")
	if dom.HasClass(box, "has-tiers") {
		t.Fatalf("expected no class at zero tiers")
	}
	_ = st.Set(map[string]any{"tier_count": 3})
	b.Update("tier_count")
	if !dom.HasClass(box, "has-tiers") {
		t.Fatalf("expected class once tiers exist")
	}
}

func TestUpdateFiltersByProperty(t *testing.T) {
	container, err := dom.ParseFragment(scheduleMarkup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st := state.New(map[string]any{"mode": "simple", "dirty": true, "has_end": true, "tier_count": 1})
	b := BindUI(container, st)

	// Flip mode in state but update an unrelated property: panels keep
	// their stale applied state until their own property is updated.
	_ = st.Set(map[string]any{"mode": "advanced"})
	b.Update("tier_count")
	if Hidden(dom.First(container, "#simple-panel")) {
		t.Fatalf("filtered update touched unrelated element")
	}
	b.Update("")
	if !Hidden(dom.First(container, "#simple-panel")) {
		t.Fatalf("full update should re-evaluate everything")
	}
}

func TestUnbindLeavesDescriptorInert(t *testing.T) {
	container, err := dom.ParseFragment(scheduleMarkup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st := state.New(map[string]any{"mode": "simple", "dirty": true, "has_end": true, "tier_count": 0})
	b := BindUI(container, st)
	if b.Bound() != 5 {
		t.Fatalf("expected 5 bound entries, got %d", b.Bound())
	}
	b.Unbind()
	if b.Bound() != 0 {
		t.Fatalf("expected no entries after unbind")
	}
	_ = st.Set(map[string]any{"mode": "advanced"})
	b.Update("") // must not panic or mutate
	if Hidden(dom.First(container, "#simple-panel")) {
		t.Fatalf("unbound descriptor still applied state")
	}
}

func TestBindingDoesNotSubscribeItself(t *testing.T) {
	container, err := dom.ParseFragment(scheduleMarkup)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st := state.New(map[string]any{"mode": "simple", "dirty": true, "has_end": true, "tier_count": 0})
	BindUI(container, st)
	// Mutating state without calling Update must not re-apply: the binder
	// is push-model, driven by the owning step.
	_ = st.Set(map[string]any{"mode": "advanced"})
	if Hidden(dom.First(container, "#simple-panel")) {
		t.Fatalf("binder reacted to state change without an explicit Update")
	}
}
