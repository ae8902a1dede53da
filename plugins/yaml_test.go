package plugins

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDefinition = `id: gift-threshold
version: 1.0.0
name: Gift Threshold Fields
step: tiers
row:
  removable: true
  remove_action: tiers.remove
  fields:
    - name: min_quantity
      type: number
      label: Minimum quantity
      required: true
      min: 1
      step: 1
    - name: gift_sku
      type: text
      label: Gift SKU
      required: true
`

func TestParseDefinitionYAML(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.ID != "gift-threshold" || def.Step != "tiers" {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if len(def.Row.Fields) != 2 || def.Row.Fields[1].Name != "gift_sku" {
		t.Fatalf("unexpected row fields: %+v", def.Row.Fields)
	}
	if def.Row.RowClass == "" {
		t.Fatalf("expected normalized row class to be filled in")
	}
}

func TestParseDefinitionYAMLErrors(t *testing.T) {
	if _, err := ParseDefinitionYAML([]byte("")); err == nil {
		t.Fatalf("expected empty payload to fail validation")
	}
	if _, err := ParseDefinitionYAML([]byte("version: 1.0.0\nrow:\n  fields:\n    - name: a\n      type: text\n")); err == nil {
		t.Fatalf("expected missing id to fail validation")
	}
	if _, err := ParseDefinitionYAML([]byte("id: x\nversion: 1.0.0\nrow:\n  fields: []\n")); err == nil {
		t.Fatalf("expected empty row to fail validation")
	}
}

func TestDefinitionDefaultsStep(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte("id: x\nversion: 1.0.0\nrow:\n  fields:\n    - name: a\n      type: text\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Step != DefaultStep {
		t.Fatalf("expected default step %q, got %q", DefaultStep, def.Step)
	}
}

func TestLoadDefinitionDir(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plugin.yaml")
	if err := os.WriteFile(path, []byte(sampleDefinition), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	defs, err := LoadDefinitionDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].Path != path {
		t.Fatalf("expected path %s, got %s", path, defs[0].Path)
	}
	if defs[0].Definition.ID != "gift-threshold" {
		t.Fatalf("unexpected id: %+v", defs[0].Definition)
	}
}

func TestLoadDefinitionDirMissing(t *testing.T) {
	defs, err := LoadDefinitionDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected nil definitions, got %+v", defs)
	}
}

func TestLoadDefinitionFileRejectsDirectory(t *testing.T) {
	if _, err := LoadDefinitionFile(t.TempDir()); err == nil {
		t.Fatalf("expected directory path to be rejected")
	}
}
