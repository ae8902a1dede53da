package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefinitionFile is a schema definition together with where it came from.
// For YAML plugins the path is the file itself; Go plugins suffix it with
// the definition's position in the returned slice.
type DefinitionFile struct {
	Definition SchemaDefinition
	Path       string
}

// ParseDefinitionYAML turns one YAML document into a validated, normalized
// schema definition.
func ParseDefinitionYAML(data []byte) (SchemaDefinition, error) {
	if strings.TrimSpace(string(data)) == "" {
		return SchemaDefinition{}, fmt.Errorf("plugin: empty schema document")
	}
	var def SchemaDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return SchemaDefinition{}, fmt.Errorf("plugin: parse schema yaml: %w", err)
	}
	if err := def.Validate(); err != nil {
		return SchemaDefinition{}, err
	}
	return def.Normalized(), nil
}

// LoadDefinitionFile loads a single schema file from disk.
func LoadDefinitionFile(path string) (DefinitionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("plugin: load %s: %w", path, err)
	}
	def, err := ParseDefinitionYAML(data)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("plugin: %s: %w", path, err)
	}
	return DefinitionFile{Definition: def, Path: filepath.Clean(path)}, nil
}

// LoadDefinitionDir loads every *.yaml and *.yml schema directly under dir,
// sorted by path. A missing or empty directory simply means no plugins are
// installed.
func LoadDefinitionDir(dir string) ([]DefinitionFile, error) {
	paths, err := schemaPaths(dir, "*.yaml", "*.yml")
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	defs := make([]DefinitionFile, 0, len(paths))
	for _, path := range paths {
		def, err := LoadDefinitionFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// schemaPaths globs dir for plugin files, dropping anything that is itself
// a directory.
func schemaPaths(dir string, patterns ...string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("plugin: scan %s: %w", dir, err)
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			paths = append(paths, match)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
