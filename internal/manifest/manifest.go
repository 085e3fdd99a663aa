// Package manifest loads and stores per-project rule manifests.
//
// A manifest is a single JSON document enumerating every rule file a
// project declares, keyed by project-relative path, together with the
// catalogue-level rules version. The source project's manifest is the
// authority for what consumers should have; a consumer's manifest records
// what it last pulled.
package manifest

import (
	"fmt"
	"time"

	"github.com/klauern/rulesync/internal/model"
)

// ManifestVersion is the current manifest document format version.
const ManifestVersion = "1.0"

// DefaultPath is the project-relative location of the manifest document.
const DefaultPath = ".rulesync/manifest.json"

// Rule describes a single versioned rule file within a manifest.
type Rule struct {
	// Version is the author-declared semver of this rule file.
	Version string `json:"version"`

	// Checksum is the sha256 hex digest the author recorded for the file.
	// It can go stale; re-verify against the file bytes before trusting
	// an inequality.
	Checksum string `json:"checksum"`

	// Scope controls overwrite behavior on sync.
	Scope model.Scope `json:"scope"`

	// Priority is the informational importance of the rule.
	Priority model.Priority `json:"priority"`

	// AllowLocalOverride marks rules whose consumers may keep local edits.
	AllowLocalOverride bool `json:"allow_local_override"`

	// Description is a short human-readable summary.
	Description string `json:"description,omitempty"`
}

// Manifest is the declared rule catalogue of one project.
type Manifest struct {
	// ManifestVersion is the document format version.
	ManifestVersion string `json:"manifest_version"`

	// RulesVersion is the author-declared version of the whole catalogue.
	// It is only ever set by the owning project's own manifest write.
	RulesVersion string `json:"rules_version"`

	// LastUpdated records when the catalogue last changed.
	LastUpdated time.Time `json:"last_updated"`

	// SourceProject names the project this catalogue originates from.
	SourceProject string `json:"source_project,omitempty"`

	// Rules maps project-relative file paths to their declared entries.
	Rules map[string]Rule `json:"rules"`

	// Categories groups rule paths for display purposes.
	Categories map[string][]string `json:"categories,omitempty"`
}

// New returns an empty manifest at the current format version.
func New() *Manifest {
	return &Manifest{
		ManifestVersion: ManifestVersion,
		RulesVersion:    model.ZeroVersion,
		LastUpdated:     time.Now().UTC(),
		Rules:           make(map[string]Rule),
	}
}

// Validate checks enum fields and version strings, rejecting unknown
// values instead of passing them through.
func (m *Manifest) Validate() error {
	if m.RulesVersion != "" {
		if _, err := model.ParseVersion(m.RulesVersion); err != nil {
			return fmt.Errorf("invalid rules_version: %w", err)
		}
	}

	for path, rule := range m.Rules {
		if !rule.Scope.IsValid() {
			return fmt.Errorf("rule %q: unknown scope %q (valid: universal, customizable)", path, rule.Scope)
		}
		if !rule.Priority.IsValid() {
			return fmt.Errorf("rule %q: unknown priority %q (valid: critical, high, medium, low)", path, rule.Priority)
		}
		if rule.Version != "" {
			if _, err := model.ParseVersion(rule.Version); err != nil {
				return fmt.Errorf("rule %q: %w", path, err)
			}
		}
	}

	return nil
}

// RuleCount returns the number of declared rules.
func (m *Manifest) RuleCount() int {
	return len(m.Rules)
}
