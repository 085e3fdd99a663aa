// Package registry maintains the global record of registered projects.
//
// The registry is a single JSON document, the only persistent
// cross-project state in rulesync. It is accessed strictly through
// Load and Save; in-memory mutations never persist implicitly. Save
// carries an optimistic revision check so that two concurrent
// invocations surface a detectable conflict instead of a silent lost
// update.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauern/rulesync/internal/logging"
	"github.com/klauern/rulesync/internal/manifest"
	"github.com/klauern/rulesync/internal/model"
	"github.com/klauern/rulesync/internal/util"
)

// SchemaVersion is the current registry document format version.
const SchemaVersion = "1.0"

const (
	registryDirPerm  = 0o750
	registryFilePerm = 0o644
)

// Record describes one registered project.
type Record struct {
	// Name is the unique, immutable registry key.
	Name string `json:"name"`

	// Path is the absolute project directory.
	Path string `json:"path"`

	// RulesVersion is the rules catalogue version the project holds.
	RulesVersion string `json:"rules_version"`

	// Role is source or consumer.
	Role model.Role `json:"role"`

	// RegisteredAt records when the project was registered.
	RegisteredAt time.Time `json:"registered_at"`

	// LastSyncedAt records the last successful pull, nil if never synced.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	// CustomRules lists rule paths the project declares as locally owned.
	CustomRules []string `json:"custom_rules,omitempty"`
}

// Registry is the on-disk project registry document.
type Registry struct {
	// SchemaVersionField is the document format version.
	SchemaVersionField string `json:"schema_version"`

	// Revision increases by one on every save and backs the
	// optimistic-concurrency check.
	Revision int64 `json:"revision"`

	// LastUpdated records the last save time.
	LastUpdated time.Time `json:"last_updated"`

	// Projects maps project name to its record.
	Projects map[string]Record `json:"projects"`

	path           string
	loadedRevision int64
}

// Load reads the registry document at path, returning an empty registry
// when the file does not exist yet.
func Load(path string) (*Registry, error) {
	r := &Registry{
		SchemaVersionField: SchemaVersion,
		Projects:           make(map[string]Record),
		path:               path,
	}

	// #nosec G304 - path is the trusted per-user registry location
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read registry %q: %w", path, err)
	}

	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse registry %q: %w", path, err)
	}
	if r.Projects == nil {
		r.Projects = make(map[string]Record)
	}

	for name, rec := range r.Projects {
		if !rec.Role.IsValid() {
			return nil, fmt.Errorf("registry %q: project %q has unknown role %q", path, name, rec.Role)
		}
	}

	r.path = path
	r.loadedRevision = r.Revision

	logging.Debug("loaded registry",
		logging.Path(path),
		logging.Count(len(r.Projects)),
	)

	return r, nil
}

// Save persists the registry as a whole-document replacement. It first
// re-reads the on-disk document and fails with ErrRegistryConflict when
// the revision moved since this registry was loaded.
func (r *Registry) Save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), registryDirPerm); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	if err := r.checkRevision(); err != nil {
		return err
	}

	r.Revision = r.loadedRevision + 1
	r.LastUpdated = time.Now().UTC()
	r.SchemaVersionField = SchemaVersion

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	data = append(data, '\n')

	if err := util.WriteFileAtomic(r.path, data, registryFilePerm); err != nil {
		return fmt.Errorf("failed to write registry %q: %w", r.path, err)
	}

	r.loadedRevision = r.Revision

	logging.Debug("saved registry",
		logging.Path(r.path),
		logging.Count(len(r.Projects)),
	)

	return nil
}

// checkRevision compares the on-disk revision against the one loaded.
func (r *Registry) checkRevision() error {
	// #nosec G304 - r.path is the trusted per-user registry location
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			if r.loadedRevision != 0 {
				return fmt.Errorf("registry %q disappeared: %w", r.path, ErrRegistryConflict)
			}
			return nil
		}
		return fmt.Errorf("failed to re-read registry %q: %w", r.path, err)
	}

	var current struct {
		Revision int64 `json:"revision"`
	}
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("failed to parse registry %q during save: %w", r.path, err)
	}

	if current.Revision != r.loadedRevision {
		return fmt.Errorf("registry revision moved from %d to %d: %w",
			r.loadedRevision, current.Revision, ErrRegistryConflict)
	}
	return nil
}

// RegisterOptions customizes project registration.
type RegisterOptions struct {
	// Name overrides the default name (the last path segment).
	Name string

	// Role defaults to consumer when empty.
	Role model.Role

	// CustomRules seeds the record's locally owned rule paths.
	CustomRules []string
}

// Register adds a project record for the given directory. The project's
// own manifest, when present, seeds the recorded rules version; a project
// without a manifest starts at 0.0.0, meaning never synced.
func (r *Registry) Register(projectDir string, opts RegisterOptions, manifests *manifest.Store) (Record, error) {
	absPath := util.NormalizePath(projectDir)

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = filepath.Base(absPath)
	}

	if _, exists := r.Projects[name]; exists {
		return Record{}, fmt.Errorf("project %q: %w", name, ErrDuplicateRegistration)
	}

	role := opts.Role
	if role == "" {
		role = model.RoleConsumer
	}
	if !role.IsValid() {
		return Record{}, fmt.Errorf("unknown role %q (valid: source, consumer)", role)
	}

	rulesVersion := model.ZeroVersion
	m, err := manifests.Load(absPath)
	switch {
	case err == nil:
		rulesVersion = m.RulesVersion
	case errors.Is(err, manifest.ErrManifestMissing):
		// Never synced; 0.0.0 stands.
	default:
		return Record{}, fmt.Errorf("failed to read manifest for %q: %w", name, err)
	}

	rec := Record{
		Name:         name,
		Path:         absPath,
		RulesVersion: rulesVersion,
		Role:         role,
		RegisteredAt: time.Now().UTC(),
		CustomRules:  opts.CustomRules,
	}
	r.Projects[name] = rec

	logging.Debug("registered project",
		logging.Project(name),
		logging.Path(absPath),
		logging.Status(string(role)),
	)

	return rec, nil
}

// Unregister removes a project record by name.
func (r *Registry) Unregister(name string) error {
	if _, exists := r.Projects[name]; !exists {
		return fmt.Errorf("project %q: %w", name, ErrProjectNotRegistered)
	}
	delete(r.Projects, name)
	return nil
}

// Get returns the record for an exact project name.
func (r *Registry) Get(name string) (Record, error) {
	rec, exists := r.Projects[name]
	if !exists {
		return Record{}, fmt.Errorf("project %q: %w", name, ErrProjectNotRegistered)
	}
	return rec, nil
}

// GetByPath returns the record whose path matches the given directory.
// Both sides are normalized before comparing.
func (r *Registry) GetByPath(projectDir string) (Record, error) {
	want := util.NormalizePath(projectDir)
	for _, rec := range r.Projects {
		if util.NormalizePath(rec.Path) == want {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("path %q: %w", projectDir, ErrProjectNotRegistered)
}

// Filter narrows List results.
type Filter struct {
	// Role keeps only records with the given role when set.
	Role model.Role

	// OutdatedOnly keeps only consumers whose rules version differs from
	// the source's.
	OutdatedOnly bool
}

// List returns records matching the filter, sorted by name.
func (r *Registry) List(f Filter) ([]Record, error) {
	var sourceVersion string
	if f.OutdatedOnly {
		src, err := r.Source()
		if err != nil {
			return nil, err
		}
		sourceVersion = src.RulesVersion
	}

	records := make([]Record, 0, len(r.Projects))
	for _, rec := range r.Projects {
		if f.Role != "" && rec.Role != f.Role {
			continue
		}
		if f.OutdatedOnly {
			if rec.Role != model.RoleConsumer {
				continue
			}
			if model.CompareVersions(rec.RulesVersion, sourceVersion) == 0 {
				continue
			}
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// Sources returns every record holding the source role, sorted by name.
func (r *Registry) Sources() []Record {
	var sources []Record
	for _, rec := range r.Projects {
		if rec.Role == model.RoleSource {
			sources = append(sources, rec)
		}
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
	return sources
}

// Source returns the single source project. When more than one project
// holds the source role the lexicographically first name wins, so the
// selection is deterministic across storage backends; the ambiguity is
// logged for the caller to surface.
func (r *Registry) Source() (Record, error) {
	sources := r.Sources()
	if len(sources) == 0 {
		return Record{}, ErrNoSourceRegistered
	}
	if len(sources) > 1 {
		names := make([]string, len(sources))
		for i, s := range sources {
			names[i] = s.Name
		}
		logging.Warn("multiple source projects registered, using first by name",
			logging.Project(sources[0].Name),
			slog.String("candidates", strings.Join(names, ", ")),
		)
	}
	return sources[0], nil
}

// MarkSynced records a successful pull for a project.
func (r *Registry) MarkSynced(name, version string) error {
	rec, exists := r.Projects[name]
	if !exists {
		return fmt.Errorf("project %q: %w", name, ErrProjectNotRegistered)
	}

	now := time.Now().UTC()
	rec.RulesVersion = version
	rec.LastSyncedAt = &now
	r.Projects[name] = rec

	logging.Debug("marked project synced",
		logging.Project(name),
		logging.Status(version),
	)

	return nil
}
