package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all superterm configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Workspace root; session state lives under <workspace>/.superterm
	Workspace string `yaml:"workspace"`

	// Intent recognition
	Recognition RecognitionConfig `yaml:"recognition"`

	// File organization
	Organize OrganizeConfig `yaml:"organize"`

	// Script execution
	Scripts ScriptsConfig `yaml:"scripts"`

	// Session memory storage
	Memory MemoryConfig `yaml:"memory"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RecognitionConfig configures the intent engine.
type RecognitionConfig struct {
	// ForceFallback disables the NLP pipeline and uses only regex scoring.
	ForceFallback bool `yaml:"force_fallback"`
}

// OrganizeConfig configures the file organizer.
type OrganizeConfig struct {
	// Root directory to organize; defaults to the workspace.
	Root string `yaml:"root"`

	// Extra extension -> directory mappings merged over the built-ins.
	Mappings map[string]string `yaml:"mappings"`

	// Directory for files with no mapping.
	MiscDir string `yaml:"misc_dir"`

	// Watch mode debounce between a change and the re-scan.
	WatchDebounce string `yaml:"watch_debounce"`

	// Names never touched by the organizer.
	Protected []string `yaml:"protected"`
}

// ScriptsConfig configures script execution.
type ScriptsConfig struct {
	// Interpreters the runner may invoke, keyed by extension.
	Interpreters map[string]string `yaml:"interpreters"`

	// Default timeout for a script run.
	DefaultTimeout string `yaml:"default_timeout"`

	// Maximum captured output per stream in bytes.
	MaxOutputBytes int `yaml:"max_output_bytes"`
}

// MemoryConfig configures the session store.
type MemoryConfig struct {
	DatabasePath string `yaml:"database_path"`

	// How long task history is kept before pruning.
	RetentionDays int `yaml:"retention_days"`
}

// LoggingConfig configures category logging. The same section is read
// by the logging package at startup.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:      "superterm",
		Version:   "1.0.0",
		Workspace: ".",

		Recognition: RecognitionConfig{
			ForceFallback: false,
		},

		Organize: OrganizeConfig{
			MiscDir:       "misc",
			WatchDebounce: "2s",
			Protected:     []string{".superterm", ".git"},
		},

		Scripts: ScriptsConfig{
			Interpreters: map[string]string{
				".py": "python3",
				".sh": "bash",
			},
			DefaultTimeout: "60s",
			MaxOutputBytes: 64 * 1024,
		},

		Memory: MemoryConfig{
			DatabasePath:  ".superterm/superterm.db",
			RetentionDays: 90,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadWorkspace loads the configuration for a workspace directory,
// looking in <workspace>/.superterm/config.yaml.
func LoadWorkspace(workspace string) (*Config, error) {
	cfg, err := Load(filepath.Join(workspace, ".superterm", "config.yaml"))
	if err != nil {
		return nil, err
	}
	if cfg.Workspace == "." || cfg.Workspace == "" {
		cfg.Workspace = workspace
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SUPERTERM_FORCE_FALLBACK"); v != "" {
		c.Recognition.ForceFallback = true
	}
	if ws := os.Getenv("SUPERTERM_WORKSPACE"); ws != "" {
		c.Workspace = ws
	}
	if path := os.Getenv("SUPERTERM_DB"); path != "" {
		c.Memory.DatabasePath = path
	}
	if root := os.Getenv("SUPERTERM_ORGANIZE_ROOT"); root != "" {
		c.Organize.Root = root
	}
	if v := os.Getenv("SUPERTERM_DEBUG"); v != "" {
		c.Logging.DebugMode = true
	}
}

// DatabaseFile returns the session database path, anchored at the
// workspace when relative.
func (c *Config) DatabaseFile() string {
	if filepath.IsAbs(c.Memory.DatabasePath) {
		return c.Memory.DatabasePath
	}
	return filepath.Join(c.Workspace, c.Memory.DatabasePath)
}

// GetScriptTimeout returns the script timeout as a duration.
func (c *Config) GetScriptTimeout() time.Duration {
	d, err := time.ParseDuration(c.Scripts.DefaultTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetWatchDebounce returns the organizer watch debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Organize.WatchDebounce)
	if err != nil {
		return 2 * time.Second
	}
	return d
}
