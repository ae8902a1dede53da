package report

import (
	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/dom"
)

const (
	errorClass        = "field-error"
	errorMessageClass = "field-error-message"
)

// ValidationDisplay routes field-level validation messages into a step's
// fragment. Show and Clear are idempotent per field.
type ValidationDisplay interface {
	Show(field *html.Node, message string)
	Clear(field *html.Node)
	ClearAll(container *html.Node)
}

// FieldMarker implements ValidationDisplay by marking the field element and
// appending a sibling message node the templates style as inline errors.
type FieldMarker struct{}

// NewFieldMarker returns the fragment-backed ValidationDisplay.
func NewFieldMarker() *FieldMarker {
	return &FieldMarker{}
}

// Show implements ValidationDisplay.
func (m *FieldMarker) Show(field *html.Node, message string) {
	if field == nil {
		return
	}
	m.Clear(field)
	dom.AddClass(field, errorClass)
	dom.SetAttr(field, "aria-invalid", "true")
	if field.Parent == nil || message == "" {
		return
	}
	msg := dom.NewElement("span")
	dom.AddClass(msg, errorMessageClass)
	dom.SetAttr(msg, "role", "alert")
	msg.AppendChild(dom.NewText(message))
	field.Parent.InsertBefore(msg, field.NextSibling)
}

// Clear implements ValidationDisplay.
func (m *FieldMarker) Clear(field *html.Node) {
	if field == nil {
		return
	}
	dom.RemoveClass(field, errorClass)
	dom.RemoveAttr(field, "aria-invalid")
	if field.Parent == nil {
		return
	}
	for sib := field.NextSibling; sib != nil; {
		next := sib.NextSibling
		if sib.Type == html.ElementNode && dom.HasClass(sib, errorMessageClass) {
			field.Parent.RemoveChild(sib)
		} else {
			break
		}
		sib = next
	}
}

// ClearAll implements ValidationDisplay.
func (m *FieldMarker) ClearAll(container *html.Node) {
	if container == nil {
		return
	}
	for _, field := range dom.Select(container, "."+errorClass) {
		dom.RemoveClass(field, errorClass)
		dom.RemoveAttr(field, "aria-invalid")
	}
	for _, msg := range dom.Select(container, "."+errorMessageClass) {
		dom.Detach(msg)
	}
}

// Message returns the current inline error for a field, if any. The TUI
// uses this to surface fragment-level errors beside its own inputs.
func Message(field *html.Node) string {
	if field == nil || field.Parent == nil {
		return ""
	}
	for sib := field.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && dom.HasClass(sib, errorMessageClass) {
			return dom.Text(sib)
		}
	}
	return ""
}
