package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauern/rulesync/internal/logging"
	"github.com/klauern/rulesync/internal/util"
)

// ErrManifestMissing reports that a project has no manifest yet.
// For a consumer this is a legitimate state (never synced), not a failure.
var ErrManifestMissing = errors.New("manifest not found")

const (
	storeDirPerm  = 0o750
	storeFilePerm = 0o644
)

// Store reads and writes manifest documents at a fixed project-relative
// path. Writes are whole-document replacements; there is no partial field
// patching, which avoids mixed-version corruption.
type Store struct {
	// relPath is the manifest location inside a project directory.
	relPath string
}

// NewStore creates a store using the given project-relative manifest path.
// An empty path selects DefaultPath.
func NewStore(relPath string) *Store {
	if relPath == "" {
		relPath = DefaultPath
	}
	return &Store{relPath: relPath}
}

// Path returns the absolute manifest path for a project directory.
func (s *Store) Path(projectDir string) string {
	return filepath.Join(projectDir, s.relPath)
}

// Load reads and validates the manifest of the given project directory.
// Returns ErrManifestMissing when no manifest exists.
func (s *Store) Load(projectDir string) (*Manifest, error) {
	path := s.Path(projectDir)

	// #nosec G304 - path is derived from a registered project directory
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project %q: %w", projectDir, ErrManifestMissing)
		}
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %q: %w", path, err)
	}
	if m.Rules == nil {
		m.Rules = make(map[string]Rule)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %q: %w", path, err)
	}

	logging.Debug("loaded manifest",
		logging.Path(path),
		logging.Count(m.RuleCount()),
	)

	return &m, nil
}

// Save writes the manifest for a project directory as a whole-document
// replacement. The document is written to a temp file in the same
// directory and renamed into place so a concurrent reader never sees a
// half-written manifest.
func (s *Store) Save(projectDir string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid manifest: %w", err)
	}

	path := s.Path(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), storeDirPerm); err != nil {
		return fmt.Errorf("failed to create manifest directory for %q: %w", path, err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	data = append(data, '\n')

	if err := util.WriteFileAtomic(path, data, storeFilePerm); err != nil {
		return fmt.Errorf("failed to write manifest %q: %w", path, err)
	}

	logging.Debug("saved manifest",
		logging.Path(path),
		logging.Count(m.RuleCount()),
	)

	return nil
}
