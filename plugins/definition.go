package plugins

import (
	"fmt"
	"strings"

	"github.com/webstepper/cyclewiz/internal/rows"
)

// DefaultStep is the wizard step a schema plugin targets when none is named.
const DefaultStep = "tiers"

// SchemaDefinition describes a row-schema plugin loaded from YAML or from an
// interpreted Go file.
//
// The struct mirrors the on-disk schema under .cyclewiz/schemas/*.yaml and is
// intentionally narrow so the wizard can validate plugin metadata before
// handing the row configuration to a step.
type SchemaDefinition struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string         `json:"version" yaml:"version"`
	Step        string         `json:"step,omitempty" yaml:"step,omitempty"`
	Row         rows.RowConfig `json:"row" yaml:"row"`
}

// Normalized returns a trimmed, copy-on-write variant of the definition.
func (def SchemaDefinition) Normalized() SchemaDefinition {
	clone := SchemaDefinition{
		ID:          strings.TrimSpace(def.ID),
		Name:        strings.TrimSpace(def.Name),
		Description: strings.TrimSpace(def.Description),
		Version:     strings.TrimSpace(def.Version),
		Step:        strings.ToLower(strings.TrimSpace(def.Step)),
		Row:         def.Row.Normalized(),
	}
	if clone.Step == "" {
		clone.Step = DefaultStep
	}
	return clone
}

// Validate ensures the plugin definition is well-formed and carries a usable
// row configuration.
func (def SchemaDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("plugin: id is required")
	}
	if normalized.Version == "" {
		return fmt.Errorf("plugin %s: version is required", normalized.ID)
	}
	if err := normalized.Row.Validate(); err != nil {
		return fmt.Errorf("plugin %s: row: %w", normalized.ID, err)
	}
	return nil
}
