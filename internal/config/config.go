// Package config provides configuration management for rulesync.
// It supports a YAML configuration file, environment variables, and
// sensible defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/rulesync/internal/manifest"
	"github.com/klauern/rulesync/internal/syncer"
	"github.com/klauern/rulesync/internal/util"
)

// Config represents the complete rulesync configuration.
type Config struct {
	// Registry configures the global project registry.
	Registry RegistryConfig `yaml:"registry"`

	// Manifest configures per-project manifest handling.
	Manifest ManifestConfig `yaml:"manifest"`

	// Sync configures pull behavior.
	Sync SyncConfig `yaml:"sync"`

	// Output configures display preferences.
	Output OutputConfig `yaml:"output"`
}

// RegistryConfig holds registry storage settings.
type RegistryConfig struct {
	// Path is the location of the registry document.
	Path string `yaml:"path"`
}

// ManifestConfig holds manifest settings.
type ManifestConfig struct {
	// Path is the project-relative manifest location.
	Path string `yaml:"path"`
}

// SyncConfig holds pull settings.
type SyncConfig struct {
	// Marker is the literal customization marker string.
	Marker string `yaml:"marker"`

	// BackupEnabled controls the pre-overwrite backup copy.
	BackupEnabled bool `yaml:"backup_enabled"`

	// BackupSuffix is appended to backed-up file names.
	BackupSuffix string `yaml:"backup_suffix"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never).
	Color string `yaml:"color"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			Path: util.RegistryPath(),
		},
		Manifest: ManifestConfig{
			Path: manifest.DefaultPath,
		},
		Sync: SyncConfig{
			Marker:        syncer.CustomizationMarker,
			BackupEnabled: true,
			BackupSuffix:  syncer.BackupSuffix,
		},
		Output: OutputConfig{
			Color:   "auto",
			Verbose: false,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.RulesyncConfigPath(), configFileName)
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	cfg := Default()

	configPath := FilePath()
	// #nosec G304 - configPath is constructed from the trusted config directory
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvironment()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	configPath := FilePath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(configPath, data, 0o644)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern RULESYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("RULESYNC_REGISTRY_PATH"); v != "" {
		c.Registry.Path = v
	}
	if v := os.Getenv("RULESYNC_MANIFEST_PATH"); v != "" {
		c.Manifest.Path = v
	}
	if v := os.Getenv("RULESYNC_SYNC_MARKER"); v != "" {
		c.Sync.Marker = v
	}
	if v := os.Getenv("RULESYNC_SYNC_BACKUP"); v != "" {
		c.Sync.BackupEnabled = parseBool(v)
	}
	if v := os.Getenv("RULESYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("RULESYNC_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
