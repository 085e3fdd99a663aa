// Package project reads per-project rulesync settings.
// A project may carry a .rulesync.toml file at its root declaring its
// registration defaults and permanent pull excludes.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/klauern/rulesync/internal/logging"
	"github.com/klauern/rulesync/internal/model"
)

// SettingsFileName is the per-project settings file at the project root.
const SettingsFileName = ".rulesync.toml"

// Settings represents the .rulesync.toml structure.
type Settings struct {
	// Name overrides the registry name derived from the path.
	Name string `toml:"name"`

	// Role declares the project's role (source or consumer).
	Role string `toml:"role"`

	// CustomRules lists rule paths this project owns locally.
	CustomRules []string `toml:"custom_rules"`

	// Exclude lists path substrings permanently excluded from pull.
	Exclude []string `toml:"exclude"`
}

// Load reads the settings file from a project directory. A missing file
// is not an error; it yields empty settings.
func Load(projectDir string) (*Settings, error) {
	path := filepath.Join(projectDir, SettingsFileName)

	// #nosec G304 - path is inside a caller-chosen project directory
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read project settings %q: %w", path, err)
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse project settings %q: %w", path, err)
	}

	if s.Role != "" {
		if _, err := model.ParseRole(s.Role); err != nil {
			return nil, fmt.Errorf("invalid project settings %q: %w", path, err)
		}
	}

	logging.Debug("loaded project settings",
		logging.Path(path),
	)

	return &s, nil
}

// ParsedRole returns the declared role, or the zero Role when unset.
func (s *Settings) ParsedRole() model.Role {
	if s.Role == "" {
		return ""
	}
	role, err := model.ParseRole(s.Role)
	if err != nil {
		return ""
	}
	return role
}
