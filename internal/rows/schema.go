// Package rows builds repeated form-row fragments from a field schema and
// collects them back into structured records. The same schema drives both
// directions, so a row rendered from a record and collected again yields
// that record.
package rows

import (
	"fmt"
	"math"
	"strings"
)

// FieldType enumerates the supported input kinds.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
	FieldCheckbox FieldType = "checkbox"
)

// Subtypes a number field can carry, derived from its constraints unless
// set explicitly.
const (
	SubtypeInteger    = "integer"
	SubtypeDecimal    = "decimal"
	SubtypePercentage = "percentage"
)

// SelectOption is one choice in a select field.
type SelectOption struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// FieldSchema describes one input in a generated row.
type FieldSchema struct {
	Name        string         `yaml:"name"`
	Type        FieldType      `yaml:"type"`
	Label       string         `yaml:"label,omitempty"`
	Required    bool           `yaml:"required,omitempty"`
	Min         *float64       `yaml:"min,omitempty"`
	Max         *float64       `yaml:"max,omitempty"`
	Step        *float64       `yaml:"step,omitempty"`
	Placeholder string         `yaml:"placeholder,omitempty"`
	Prefix      string         `yaml:"prefix,omitempty"`
	Suffix      string         `yaml:"suffix,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Default     any            `yaml:"default,omitempty"`
	Subtype     string         `yaml:"subtype,omitempty"`
	Options     []SelectOption `yaml:"options,omitempty"`
}

// Validate checks the schema is well-formed.
func (f FieldSchema) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("rows: field name is required")
	}
	switch f.Type {
	case FieldText, FieldNumber, FieldSelect, FieldTextarea, FieldCheckbox:
	case "":
		return fmt.Errorf("rows: field type is required for %s", f.Name)
	default:
		return fmt.Errorf("rows: unknown field type %q for %s", f.Type, f.Name)
	}
	if f.Type == FieldSelect && len(f.Options) == 0 {
		return fmt.Errorf("rows: select field %s needs options", f.Name)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("rows: field %s has min %v above max %v", f.Name, *f.Min, *f.Max)
	}
	switch f.Subtype {
	case "", SubtypeInteger, SubtypeDecimal, SubtypePercentage:
	default:
		return fmt.Errorf("rows: unknown subtype %q for %s", f.Subtype, f.Name)
	}
	return nil
}

// EffectiveSubtype returns the explicit subtype or derives one: a 0..100
// bounded field reads as a percentage, a fractional step as decimal,
// anything else as integer.
func (f FieldSchema) EffectiveSubtype() string {
	if f.Subtype != "" {
		return f.Subtype
	}
	if f.Min != nil && f.Max != nil && *f.Min >= 0 && *f.Max == 100 {
		return SubtypePercentage
	}
	if f.Step != nil && hasFraction(*f.Step) {
		return SubtypeDecimal
	}
	return SubtypeInteger
}

// InputMode returns the mobile input mode hint for a number field.
func (f FieldSchema) InputMode() string {
	if f.Step != nil && hasFraction(*f.Step) {
		return "decimal"
	}
	if f.EffectiveSubtype() == SubtypeDecimal {
		return "decimal"
	}
	return "numeric"
}

func hasFraction(v float64) bool {
	return v != math.Trunc(v)
}

// RowConfig describes one repeatable row.
type RowConfig struct {
	Fields       []FieldSchema `yaml:"fields"`
	RowClass     string        `yaml:"row_class,omitempty"`
	Removable    bool          `yaml:"removable,omitempty"`
	RemoveAction string        `yaml:"remove_action,omitempty"`
	RemoveLabel  string        `yaml:"remove_label,omitempty"`
}

// DefaultRowClass marks generated rows when the config does not override it.
const DefaultRowClass = "wizard-row"

// Validate ensures the config is usable: a non-empty ordered field list
// with every field well-formed.
func (c RowConfig) Validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("rows: config needs at least one field")
	}
	seen := map[string]struct{}{}
	for i, field := range c.Fields {
		if err := field.Validate(); err != nil {
			return fmt.Errorf("rows: fields[%d]: %w", i, err)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("rows: fields[%d]: duplicate name %s", i, field.Name)
		}
		seen[field.Name] = struct{}{}
	}
	if c.Removable && strings.TrimSpace(c.RemoveAction) == "" {
		return fmt.Errorf("rows: removable rows need a remove_action")
	}
	return nil
}

// Normalized fills defaults.
func (c RowConfig) Normalized() RowConfig {
	out := c
	if strings.TrimSpace(out.RowClass) == "" {
		out.RowClass = DefaultRowClass
	}
	if out.Removable && strings.TrimSpace(out.RemoveLabel) == "" {
		out.RemoveLabel = "Remove"
	}
	return out
}
