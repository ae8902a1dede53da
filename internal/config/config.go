// internal/config/config.go
//
// This package handles configuration and the .cyclewiz directory structure.
// Every project that uses cyclewiz gets a .cyclewiz/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CyclewizDir is the name of the directory we create in each project
const CyclewizDir = ".cyclewiz"

const (
	defaultAutosaveMS = 2000
	defaultValidateMS = 300
)

const defaultProjectConfigYAML = `# cyclewiz project configuration
version: 1

# Debounce windows in milliseconds. Autosave batches rapid edits before they
# hit disk; validate delays per-field checks while the user is still typing.
timers:
  autosave_ms: 2000
  validate_ms: 300

log:
  # Set verbose: true to mirror the log to stderr while the wizard runs.
  verbose: false
`

// TimerConfig captures the debounce windows used while editing a step.
type TimerConfig struct {
	AutosaveMS int `yaml:"autosave_ms"`
	ValidateMS int `yaml:"validate_ms"`
}

// LogConfig captures logging preferences.
type LogConfig struct {
	Verbose bool `yaml:"verbose"`
}

// ProjectConfig models .cyclewiz/config.yaml.
type ProjectConfig struct {
	Version int         `yaml:"version"`
	Timers  TimerConfig `yaml:"timers"`
	Log     LogConfig   `yaml:"log"`
}

// Config holds the runtime configuration for cyclewiz.
type Config struct {
	// ProjectDir is the directory where the user ran `cyclewiz` from
	ProjectDir string

	// CyclewizProjectDir is ProjectDir/.cyclewiz
	CyclewizProjectDir string

	Project ProjectConfig
}

// InitCyclewizDir creates the .cyclewiz directory structure in the given
// project directory. This is called when the TUI starts up.
//
// Structure created:
// .cyclewiz/
// ├── state/    <- Per-step data and wizard progress
// ├── logs/     <- Wizard activity log
// └── schemas/  <- Row-schema plugins (*.yaml, *.go)
func InitCyclewizDir(projectDir string) error {
	root := filepath.Join(projectDir, CyclewizDir)

	dirs := []string{
		filepath.Join(root, "state"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "schemas"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		CyclewizProjectDir: filepath.Join(projectDir, CyclewizDir),
		Project:            defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StateDir returns the directory holding per-step data and wizard progress.
func (c *Config) StateDir() string {
	return filepath.Join(c.CyclewizProjectDir, "state")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.CyclewizProjectDir, "logs")
}

// SchemasDir returns the directory scanned for row-schema plugins.
func (c *Config) SchemasDir() string {
	return filepath.Join(c.CyclewizProjectDir, "schemas")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.CyclewizProjectDir, "config.yaml")
}

// AutosaveDelay returns the configured autosave debounce window.
func (c *Config) AutosaveDelay() time.Duration {
	return time.Duration(c.Project.Timers.AutosaveMS) * time.Millisecond
}

// ValidateDelay returns the configured per-field validation debounce window.
func (c *Config) ValidateDelay() time.Duration {
	return time.Duration(c.Project.Timers.ValidateMS) * time.Millisecond
}

// Verbose reports whether log output should also be mirrored to stderr.
func (c *Config) Verbose() bool {
	return c.Project.Log.Verbose
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Timers: TimerConfig{
			AutosaveMS: defaultAutosaveMS,
			ValidateMS: defaultValidateMS,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Timers.AutosaveMS == 0 {
		pc.Timers.AutosaveMS = defaultAutosaveMS
	}
	if pc.Timers.ValidateMS == 0 {
		pc.Timers.ValidateMS = defaultValidateMS
	}
}

func (pc *ProjectConfig) normalize() {
	if pc.Timers.AutosaveMS < 0 {
		pc.Timers.AutosaveMS = 0
	}
	if pc.Timers.ValidateMS < 0 {
		pc.Timers.ValidateMS = 0
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Timers.AutosaveMS > 0 && pc.Timers.AutosaveMS < pc.Timers.ValidateMS {
		return fmt.Errorf("timers.autosave_ms must not be shorter than timers.validate_ms")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

// SaveProjectConfig persists the in-memory project settings back to
// .cyclewiz/config.yaml.
func (c *Config) SaveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.CyclewizProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure cyclewiz dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
