package binding

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/dom"
)

// Condition attribute families scanned by BindUI. Each family pairs a
// "-when" property name with a "-value" and an optional "-operator"; the
// class family additionally names the class to toggle.
const (
	AttrShowWhen    = "data-show-when"
	AttrHideWhen    = "data-hide-when"
	AttrEnableWhen  = "data-enable-when"
	AttrDisableWhen = "data-disable-when"
	AttrClassWhen   = "data-class-when"
	AttrClassName   = "data-class-name"
)

const disabledClass = "disabled"

// StateReader is the read surface a UIBinding evaluates conditions against.
// *state.Store satisfies it.
type StateReader interface {
	Get(field string) (any, bool)
}

type condKind int

const (
	condShow condKind = iota
	condHide
	condEnable
	condDisable
	condClass
)

var condAttrs = []struct {
	attr string
	kind condKind
}{
	{AttrShowWhen, condShow},
	{AttrHideWhen, condHide},
	{AttrEnableWhen, condEnable},
	{AttrDisableWhen, condDisable},
	{AttrClassWhen, condClass},
}

type uiEntry struct {
	el       *html.Node
	kind     condKind
	property string
	value    string
	operator string
	class    string
}

// UIBinding associates a container, a state reader, and the condition
//-annotated elements found at bind time. The element set is not
// recomputed on update; rebind after structural DOM changes.
type UIBinding struct {
	container *html.Node
	states    StateReader
	entries   []uiEntry
}

// BindUI scans the container (inclusive) for condition attributes and
// applies the initial state. One element may carry several families.
func BindUI(container *html.Node, states StateReader) *UIBinding {
	b := &UIBinding{container: container, states: states}
	if container == nil || states == nil {
		return b
	}
	dom.Walk(container, func(el *html.Node) {
		for _, family := range condAttrs {
			property, ok := dom.Attr(el, family.attr)
			if !ok || strings.TrimSpace(property) == "" {
				continue
			}
			entry := uiEntry{
				el:       el,
				kind:     family.kind,
				property: strings.TrimSpace(property),
				value:    dom.AttrOr(el, family.attr+"-value", ""),
				operator: dom.AttrOr(el, family.attr+"-operator", OpEquals),
			}
			if family.kind == condClass {
				entry.class = dom.AttrOr(el, AttrClassName, "")
				if entry.class == "" {
					continue
				}
			}
			b.entries = append(b.entries, entry)
		}
	})
	b.Update("")
	return b
}

// Update re-applies condition state. An empty property re-evaluates every
// bound element; otherwise only elements watching that property are
// touched. This is a linear filter over the bound set, which stays small
// (a few dozen elements per step).
func (b *UIBinding) Update(property string) {
	if b == nil || b.states == nil {
		return
	}
	for _, entry := range b.entries {
		if property != "" && entry.property != property {
			continue
		}
		actual, _ := b.states.Get(entry.property)
		met := Evaluate(actual, entry.value, entry.operator)
		switch entry.kind {
		case condShow:
			setVisible(entry.el, met)
		case condHide:
			setVisible(entry.el, !met)
		case condEnable:
			setEnabled(entry.el, met)
		case condDisable:
			setEnabled(entry.el, !met)
		case condClass:
			dom.ToggleClass(entry.el, entry.class, met)
		}
	}
}

// Unbind drops the recorded element set, leaving the descriptor inert.
// Element state is left as last applied.
func (b *UIBinding) Unbind() {
	if b != nil {
		b.entries = nil
	}
}

// Bound returns the number of recorded (element, family) entries.
func (b *UIBinding) Bound() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// setVisible toggles an inline display:none and keeps aria-hidden in
// lockstep with visibility.
func setVisible(el *html.Node, visible bool) {
	if visible {
		removeStyleDecl(el, "display")
		dom.RemoveAttr(el, "aria-hidden")
		return
	}
	setStyleDecl(el, "display", "none")
	dom.SetAttr(el, "aria-hidden", "true")
}

// setEnabled toggles the disabled attribute, aria-disabled, and the
// disabled class in lockstep.
func setEnabled(el *html.Node, enabled bool) {
	if enabled {
		dom.RemoveAttr(el, "disabled")
		dom.RemoveAttr(el, "aria-disabled")
		dom.RemoveClass(el, disabledClass)
		return
	}
	dom.SetAttr(el, "disabled", "disabled")
	dom.SetAttr(el, "aria-disabled", "true")
	dom.AddClass(el, disabledClass)
}

func setStyleDecl(el *html.Node, name, value string) {
	decls := parseStyle(dom.AttrOr(el, "style", ""))
	var out []string
	replaced := false
	for _, d := range decls {
		if d.name == name {
			out = append(out, name+": "+value)
			replaced = true
			continue
		}
		out = append(out, d.name+": "+d.value)
	}
	if !replaced {
		out = append(out, name+": "+value)
	}
	dom.SetAttr(el, "style", strings.Join(out, "; "))
}

func removeStyleDecl(el *html.Node, name string) {
	raw, ok := dom.Attr(el, "style")
	if !ok {
		return
	}
	var out []string
	for _, d := range parseStyle(raw) {
		if d.name != name {
			out = append(out, d.name+": "+d.value)
		}
	}
	if len(out) == 0 {
		dom.RemoveAttr(el, "style")
		return
	}
	dom.SetAttr(el, "style", strings.Join(out, "; "))
}

type styleDecl struct {
	name  string
	value string
}

func parseStyle(raw string) []styleDecl {
	var decls []styleDecl
	for _, chunk := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(chunk, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name != "" && value != "" {
			decls = append(decls, styleDecl{name: name, value: value})
		}
	}
	return decls
}

// Hidden reports whether an element is currently hidden by a binding.
func Hidden(el *html.Node) bool {
	for _, d := range parseStyle(dom.AttrOr(el, "style", "")) {
		if d.name == "display" && d.value == "none" {
			return true
		}
	}
	return false
}
