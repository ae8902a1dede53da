package tui

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/binding"
	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/report"
)

// controlKind distinguishes editable fields from actionable buttons.
type controlKind int

const (
	controlField controlKind = iota
	controlButton
)

// control is one interactive element lifted out of a step fragment. The TUI
// never mutates the fragment directly; edits go back through the step's
// event binder the same way a browser event would.
type control struct {
	kind     controlKind
	name     string
	label    string
	value    string
	options  []string
	node     *html.Node
	event    string
	disabled bool
	checkbox bool
	errMsg   string
}

// extractControls walks a step fragment and returns its visible interactive
// elements in document order.
func extractControls(fragment *html.Node) []control {
	if fragment == nil {
		return nil
	}
	var controls []control
	dom.Walk(fragment, func(n *html.Node) {
		if n.Type != html.ElementNode || hiddenInTree(fragment, n) {
			return
		}
		switch n.Data {
		case "input", "select", "textarea":
			name, ok := dom.Attr(n, "name")
			if !ok || strings.TrimSpace(name) == "" {
				return
			}
			c := control{
				kind:   controlField,
				name:   name,
				label:  fieldLabel(fragment, n),
				value:  controlValue(n),
				node:   n,
				event:  fieldEvent(n),
				errMsg: report.Message(n),
			}
			if _, off := dom.Attr(n, "disabled"); off {
				c.disabled = true
			}
			if n.Data == "input" && dom.AttrOr(n, "type", "text") == "checkbox" {
				c.checkbox = true
			}
			if n.Data == "select" {
				for _, opt := range dom.Select(n, "option") {
					c.options = append(c.options, dom.AttrOr(opt, "value", strings.TrimSpace(dom.Text(opt))))
				}
			}
			controls = append(controls, c)
		case "button":
			c := control{
				kind:  controlButton,
				label: strings.TrimSpace(dom.Text(n)),
				node:  n,
				event: fieldEvent(n),
			}
			if c.label == "" {
				c.label = dom.AttrOr(n, binding.AttrAction, "button")
			}
			if _, off := dom.Attr(n, "disabled"); off {
				c.disabled = true
			}
			controls = append(controls, c)
		}
	})
	return controls
}

// hiddenInTree reports whether the node or any ancestor up to the fragment
// root carries the hidden attribute that condition bindings toggle.
func hiddenInTree(root, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			if _, hidden := dom.Attr(cur, "hidden"); hidden {
				return true
			}
		}
		if cur == root {
			break
		}
	}
	return false
}

// fieldLabel finds the text of the <label> pointing at the control, falling
// back to the field name.
func fieldLabel(root, field *html.Node) string {
	id, _ := dom.Attr(field, "id")
	for _, label := range dom.Select(root, "label") {
		if id != "" {
			if target, ok := dom.Attr(label, "for"); ok && target == id {
				return strings.TrimSpace(dom.Text(label))
			}
		}
		if label.Parent != nil && dom.Contains(label.Parent, field) && label.Parent != root {
			return strings.TrimSpace(dom.Text(label))
		}
	}
	if name, ok := dom.Attr(field, "name"); ok {
		return name
	}
	return field.Data
}

func controlValue(n *html.Node) string {
	switch n.Data {
	case "input":
		if dom.AttrOr(n, "type", "text") == "checkbox" {
			if _, checked := dom.Attr(n, "checked"); checked {
				return "true"
			}
			return "false"
		}
		return dom.AttrOr(n, "value", "")
	case "textarea":
		return dom.Text(n)
	case "select":
		for _, opt := range dom.Select(n, "option") {
			if _, sel := dom.Attr(opt, "selected"); sel {
				return dom.AttrOr(opt, "value", strings.TrimSpace(dom.Text(opt)))
			}
		}
		if first := dom.First(n, "option"); first != nil {
			return dom.AttrOr(first, "value", strings.TrimSpace(dom.Text(first)))
		}
		return ""
	}
	return ""
}

// setNodeValue writes a value into the control the way a browser's input
// element would hold it before any event fires.
func setNodeValue(n *html.Node, value string) {
	switch n.Data {
	case "input":
		if dom.AttrOr(n, "type", "text") == "checkbox" {
			if value == "true" {
				dom.SetAttr(n, "checked", "checked")
			} else {
				dom.RemoveAttr(n, "checked")
			}
			return
		}
		dom.SetAttr(n, "value", value)
	case "textarea":
		dom.SetText(n, value)
	case "select":
		for _, opt := range dom.Select(n, "option") {
			optValue := dom.AttrOr(opt, "value", strings.TrimSpace(dom.Text(opt)))
			if optValue == value {
				dom.SetAttr(opt, "selected", "selected")
			} else {
				dom.RemoveAttr(opt, "selected")
			}
		}
	}
}

// fieldEvent picks the event type a browser would fire for the control kind.
func fieldEvent(n *html.Node) string {
	if on, ok := dom.Attr(n, binding.AttrOn); ok {
		if parts := strings.Fields(on); len(parts) > 0 {
			return parts[0]
		}
	}
	switch n.Data {
	case "button":
		return "click"
	case "select":
		return "change"
	case "input":
		if dom.AttrOr(n, "type", "text") == "checkbox" {
			return "change"
		}
	}
	return "input"
}
