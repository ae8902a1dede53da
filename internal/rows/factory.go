package rows

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/webstepper/cyclewiz/internal/dom"
	"github.com/webstepper/cyclewiz/internal/report"
)

// Attribute names the factory stamps onto generated markup.
const (
	AttrIndex   = "data-index"
	AttrField   = "data-field"
	AttrSubtype = "data-subtype"
)

// Factory renders rows from a RowConfig and reads them back. Invalid
// configs are reported, never returned as errors: callers always get a
// fragment, possibly empty.
type Factory struct {
	reporter report.ErrorReporter
}

// NewFactory returns a Factory sending config problems to reporter.
func NewFactory(reporter report.ErrorReporter) *Factory {
	return &Factory{reporter: reporter}
}

// Create renders one row for record at the given positional index. A
// config that fails validation yields a bare placeholder div after the
// error is reported.
func (f *Factory) Create(cfg RowConfig, record map[string]any, index int) *html.Node {
	if err := cfg.Validate(); err != nil {
		f.report(err, "rows.create")
		return dom.NewElement("div")
	}
	cfg = cfg.Normalized()

	row := dom.NewElement("div")
	dom.AddClass(row, cfg.RowClass)
	dom.SetAttr(row, AttrIndex, strconv.Itoa(index))

	for _, field := range cfg.Fields {
		row.AppendChild(f.renderField(field, record))
	}
	if cfg.Removable {
		row.AppendChild(renderRemove(cfg))
	}
	return row
}

// CreateMultiple renders one row per record, indexed by position.
func (f *Factory) CreateMultiple(cfg RowConfig, records []map[string]any) []*html.Node {
	out := make([]*html.Node, 0, len(records))
	for i, record := range records {
		out = append(out, f.Create(cfg, record, i))
	}
	return out
}

// CollectData reads every row under container matching rowSelector back
// into records, in document order. Controls are keyed by data-field,
// falling back to name for markup not stamped by this factory. Each
// record carries its positional index under "index". Number inputs
// parse to float64, empty ones to nil.
func (f *Factory) CollectData(container *html.Node, rowSelector string) []map[string]any {
	rowNodes := dom.Select(container, rowSelector)
	records := make([]map[string]any, 0, len(rowNodes))
	for i, row := range rowNodes {
		record := map[string]any{}
		dom.Walk(row, func(n *html.Node) {
			switch n.Data {
			case "input", "select", "textarea":
			default:
				return
			}
			name := dom.AttrOr(n, AttrField, "")
			if name == "" {
				name = dom.AttrOr(n, "name", "")
			}
			if name == "" {
				return
			}
			record[name] = controlValue(n)
		})
		record["index"] = i
		records = append(records, record)
	}
	return records
}

// Reindex rewrites data-index on every row under container matching
// rowSelector, and on any descendant carrying the attribute, to the
// row's current document position. Indices drift from DOM order after
// removals or reordering until this runs.
func (f *Factory) Reindex(container *html.Node, rowSelector string) {
	for i, row := range dom.Select(container, rowSelector) {
		position := strconv.Itoa(i)
		dom.SetAttr(row, AttrIndex, position)
		dom.Walk(row, func(n *html.Node) {
			if _, ok := dom.Attr(n, AttrIndex); ok {
				dom.SetAttr(n, AttrIndex, position)
			}
		})
	}
}

func (f *Factory) report(err error, context string) {
	if f.reporter == nil {
		return
	}
	f.reporter.Handle(err, context, report.SeverityError, nil)
}

func (f *Factory) renderField(field FieldSchema, record map[string]any) *html.Node {
	wrapper := dom.NewElement("div")
	dom.AddClass(wrapper, "wizard-field")
	dom.AddClass(wrapper, "wizard-field-"+field.Name)

	if field.Label != "" {
		label := dom.NewElement("label")
		dom.AddClass(label, "field-label")
		label.AppendChild(dom.NewText(field.Label))
		if field.Required {
			marker := dom.NewElement("span")
			dom.AddClass(marker, "required")
			dom.SetAttr(marker, "aria-hidden", "true")
			marker.AppendChild(dom.NewText("*"))
			label.AppendChild(marker)
		}
		wrapper.AppendChild(label)
	}

	control := dom.NewElement("div")
	dom.AddClass(control, "field-control")
	if field.Prefix != "" {
		control.AppendChild(affix("field-prefix", field.Prefix))
	}
	control.AppendChild(f.renderInput(field, fieldValue(field, record)))
	if field.Suffix != "" {
		control.AppendChild(affix("field-suffix", field.Suffix))
	}
	wrapper.AppendChild(control)

	if field.Description != "" {
		desc := dom.NewElement("p")
		dom.AddClass(desc, "field-description")
		desc.AppendChild(dom.NewText(field.Description))
		wrapper.AppendChild(desc)
	}
	return wrapper
}

func (f *Factory) renderInput(field FieldSchema, value any) *html.Node {
	switch field.Type {
	case FieldSelect:
		sel := dom.NewElement("select")
		stampName(sel, field)
		current := formatValue(value)
		for _, opt := range field.Options {
			node := dom.NewElement("option")
			dom.SetAttr(node, "value", opt.Value)
			if opt.Value == current {
				dom.SetAttr(node, "selected", "selected")
			}
			node.AppendChild(dom.NewText(opt.Label))
			sel.AppendChild(node)
		}
		return sel
	case FieldTextarea:
		area := dom.NewElement("textarea")
		stampName(area, field)
		if field.Placeholder != "" {
			dom.SetAttr(area, "placeholder", field.Placeholder)
		}
		if text := formatValue(value); text != "" {
			area.AppendChild(dom.NewText(text))
		}
		return area
	case FieldCheckbox:
		in := dom.NewElement("input")
		dom.SetAttr(in, "type", "checkbox")
		stampName(in, field)
		dom.SetAttr(in, "value", "1")
		if truthyValue(value) {
			dom.SetAttr(in, "checked", "checked")
		}
		return in
	case FieldNumber:
		in := dom.NewElement("input")
		dom.SetAttr(in, "type", "number")
		stampName(in, field)
		dom.SetAttr(in, "inputmode", field.InputMode())
		dom.SetAttr(in, AttrSubtype, field.EffectiveSubtype())
		if field.Min != nil {
			dom.SetAttr(in, "min", formatNumber(*field.Min))
		}
		if field.Max != nil {
			dom.SetAttr(in, "max", formatNumber(*field.Max))
		}
		if field.Step != nil {
			dom.SetAttr(in, "step", formatNumber(*field.Step))
		}
		if field.Placeholder != "" {
			dom.SetAttr(in, "placeholder", field.Placeholder)
		}
		if text := formatValue(value); text != "" {
			dom.SetAttr(in, "value", text)
		}
		return in
	default:
		in := dom.NewElement("input")
		dom.SetAttr(in, "type", "text")
		stampName(in, field)
		if field.Placeholder != "" {
			dom.SetAttr(in, "placeholder", field.Placeholder)
		}
		if field.Required {
			dom.SetAttr(in, "required", "required")
		}
		if text := formatValue(value); text != "" {
			dom.SetAttr(in, "value", text)
		}
		return in
	}
}

func stampName(n *html.Node, field FieldSchema) {
	dom.SetAttr(n, "name", field.Name)
	dom.SetAttr(n, AttrField, field.Name)
}

func renderRemove(cfg RowConfig) *html.Node {
	wrapper := dom.NewElement("div")
	dom.AddClass(wrapper, "wizard-field")
	dom.AddClass(wrapper, "wizard-field-remove")

	// Blank label keeps the button baseline-aligned with labeled fields.
	spacer := dom.NewElement("label")
	dom.AddClass(spacer, "field-label")
	dom.AddClass(spacer, "field-label-spacer")
	dom.SetAttr(spacer, "aria-hidden", "true")
	spacer.AppendChild(dom.NewText(" "))
	wrapper.AppendChild(spacer)

	btn := dom.NewElement("button")
	dom.SetAttr(btn, "type", "button")
	dom.AddClass(btn, "js-remove-row")
	dom.SetAttr(btn, "data-on", "click")
	dom.SetAttr(btn, "data-action", cfg.RemoveAction)
	dom.SetAttr(btn, "aria-label", cfg.RemoveLabel)
	btn.AppendChild(dom.NewText(cfg.RemoveLabel))
	wrapper.AppendChild(btn)
	return wrapper
}

func affix(class, text string) *html.Node {
	span := dom.NewElement("span")
	dom.AddClass(span, class)
	dom.SetAttr(span, "aria-hidden", "true")
	span.AppendChild(dom.NewText(text))
	return span
}

func fieldValue(field FieldSchema, record map[string]any) any {
	if record != nil {
		if v, ok := record[field.Name]; ok {
			return v
		}
	}
	return field.Default
}

// controlValue reads a rendered control back into a typed value.
func controlValue(n *html.Node) any {
	switch n.Data {
	case "select":
		fallback := ""
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode || child.Data != "option" {
				continue
			}
			value := dom.AttrOr(child, "value", "")
			if fallback == "" {
				fallback = value
			}
			if _, selected := dom.Attr(child, "selected"); selected {
				return value
			}
		}
		return fallback
	case "textarea":
		return dom.Text(n)
	default:
		if kind := dom.AttrOr(n, "type", "text"); kind == "checkbox" {
			_, checked := dom.Attr(n, "checked")
			return checked
		} else if kind == "number" {
			raw := strings.TrimSpace(dom.AttrOr(n, "value", ""))
			if raw == "" {
				return nil
			}
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil
			}
			return parsed
		}
		return dom.AttrOr(n, "value", "")
	}
}

func formatValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		if typed {
			return "1"
		}
		return ""
	case float64:
		return formatNumber(typed)
	case float32:
		return formatNumber(float64(typed))
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return fmt.Sprint(typed)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truthyValue(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != "" && typed != "0" && typed != "false"
	case float64:
		return typed != 0
	case int:
		return typed != 0
	default:
		return true
	}
}
