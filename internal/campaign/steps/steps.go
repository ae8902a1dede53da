// Package steps wires the built-in wizard steps into a registry.
package steps

import (
	"fmt"

	"github.com/webstepper/cyclewiz/internal/campaign/steps/basics"
	"github.com/webstepper/cyclewiz/internal/campaign/steps/review"
	"github.com/webstepper/cyclewiz/internal/campaign/steps/schedule"
	"github.com/webstepper/cyclewiz/internal/campaign/steps/tiers"
	"github.com/webstepper/cyclewiz/internal/rows"
	"github.com/webstepper/cyclewiz/internal/step"
)

// RegisterBuiltins installs all of the built-in step factories into the
// provided registry.
func RegisterBuiltins(reg *step.Registry) {
	if reg == nil {
		return
	}
	basics.Register(reg)
	schedule.Register(reg)
	tiers.Register(reg)
	review.Register(reg)
}

// DefaultRegistry returns a registry with every built-in step installed.
func DefaultRegistry() *step.Registry {
	reg := step.NewRegistry()
	RegisterBuiltins(reg)
	return reg
}

// RegistryWithOverrides installs the built-in steps, swapping in
// plugin-provided row schemas where one claims a step. Only the tiers step
// renders schema-driven rows today, so any other key is rejected.
func RegistryWithOverrides(overrides map[string]rows.RowConfig) (*step.Registry, error) {
	for name := range overrides {
		if name != "tiers" {
			return nil, fmt.Errorf("steps: step %s does not accept a row schema", name)
		}
	}
	reg := step.NewRegistry()
	basics.Register(reg)
	schedule.Register(reg)
	if cfg, ok := overrides["tiers"]; ok {
		tiers.RegisterWithConfig(reg, cfg)
	} else {
		tiers.Register(reg)
	}
	review.Register(reg)
	return reg, nil
}
