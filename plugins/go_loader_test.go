package plugins

import (
	"os"
	"path/filepath"
	"testing"
)

const goPluginSource = `package main

func SchemaDefinitions() ([]map[string]any, error) {
	return []map[string]any{
		{
			"id":      "go-plugin",
			"version": "1.0.0",
			"step":    "tiers",
			"row": map[string]any{
				"fields": []map[string]any{
					{"name": "min_quantity", "type": "number", "min": 1, "step": 1},
					{"name": "bonus_points", "type": "number", "min": 0, "step": 1},
				},
			},
		},
	}, nil
}`

func TestLoadGoDefinitionDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go-plugin.go"), []byte(goPluginSource), 0644); err != nil {
		t.Fatalf("write plugin: %v", err)
	}
	defs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		t.Fatalf("load go defs: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].Definition.ID != "go-plugin" {
		t.Fatalf("unexpected id: %+v", defs[0].Definition)
	}
	if len(defs[0].Definition.Row.Fields) != 2 {
		t.Fatalf("unexpected row fields: %+v", defs[0].Definition.Row.Fields)
	}
}

func TestLoadGoDefinitionDirMissingFunc(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write broken plugin: %v", err)
	}
	if _, err := LoadGoDefinitionDir(dir); err == nil {
		t.Fatalf("expected error for missing SchemaDefinitions function")
	}
}

func TestLoadGoDefinitionDirMissing(t *testing.T) {
	defs, err := LoadGoDefinitionDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected nil definitions, got %+v", defs)
	}
}
