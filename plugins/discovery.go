package plugins

import (
	"fmt"

	"github.com/webstepper/cyclewiz/internal/rows"
)

// Discover loads YAML and Go schema definitions under dir and rejects
// duplicate plugin ids across both sources.
func Discover(dir string) ([]DefinitionFile, error) {
	yamlDefs, err := LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	goDefs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	defs := append(yamlDefs, goDefs...)
	seen := make(map[string]string)
	for _, file := range defs {
		id := file.Definition.ID
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("plugin: duplicate schema id %s (%s and %s)", id, existing, file.Path)
		}
		seen[id] = file.Path
	}
	return defs, nil
}

// RowOverrides maps discovered definitions to the row configuration each
// wizard step should use. Two plugins targeting the same step are an error
// because the steps render exactly one row shape.
func RowOverrides(defs []DefinitionFile) (map[string]rows.RowConfig, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]rows.RowConfig, len(defs))
	claimed := make(map[string]string, len(defs))
	for _, file := range defs {
		def := file.Definition
		if existing, ok := claimed[def.Step]; ok {
			return nil, fmt.Errorf("plugin: step %s claimed twice (%s and %s)", def.Step, existing, file.Path)
		}
		claimed[def.Step] = file.Path
		overrides[def.Step] = def.Row
	}
	return overrides, nil
}
