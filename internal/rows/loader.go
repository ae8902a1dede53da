package rows

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseConfigYAML decodes a payload mapping config names to row configs,
// validating and normalizing each one.
func ParseConfigYAML(data []byte) (map[string]RowConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("rows: config payload is empty")
	}
	var raw map[string]RowConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rows: decode config: %w", err)
	}
	out := make(map[string]RowConfig, len(raw))
	for name, cfg := range raw {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("rows: config %s: %w", name, err)
		}
		out[name] = cfg.Normalized()
	}
	return out, nil
}
