// Package syncer applies a computed diff to a consumer project's
// filesystem and merges the source manifest into the target afterwards.
package syncer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauern/rulesync/internal/compare"
	"github.com/klauern/rulesync/internal/logging"
	"github.com/klauern/rulesync/internal/manifest"
	"github.com/klauern/rulesync/internal/model"
	"github.com/klauern/rulesync/internal/util"
)

// CustomizationMarker is the literal string that marks a customizable
// rule file as locally edited. It is embedded as a comment near the top
// of the file and is the only signal the engine uses; edits without the
// marker are knowingly overwritten.
const CustomizationMarker = "rulesync:customized"

// BackupSuffix is appended to a target file's name before it is
// overwritten. One backup per file; each pull replaces the previous one.
const BackupSuffix = ".backup"

const (
	ruleDirPerm  = 0o750
	ruleFilePerm = 0o644
)

// Options configures a pull.
type Options struct {
	// Only keeps entries whose path contains any of these substrings.
	Only []string

	// Exclude drops entries whose path contains any of these substrings.
	Exclude []string

	// DryRun previews the pull without touching disk.
	DryRun bool

	// Force overwrites customizable files even when the customization
	// marker is present.
	Force bool
}

// Engine copies rule files from a source project into a target project.
type Engine struct {
	sourceDir string
	targetDir string
	store     *manifest.Store
	marker    string
	backupSfx string
	backups   bool
}

// New creates an Engine for the given project directories.
func New(sourceDir, targetDir string, store *manifest.Store) *Engine {
	return &Engine{
		sourceDir: sourceDir,
		targetDir: targetDir,
		store:     store,
		marker:    CustomizationMarker,
		backupSfx: BackupSuffix,
		backups:   true,
	}
}

// WithMarker overrides the customization marker string.
func (e *Engine) WithMarker(marker string) *Engine {
	if marker != "" {
		e.marker = marker
	}
	return e
}

// WithBackupSuffix overrides the backup file suffix.
func (e *Engine) WithBackupSuffix(suffix string) *Engine {
	if suffix != "" {
		e.backupSfx = suffix
	}
	return e
}

// WithBackups enables or disables the pre-overwrite backup copy.
func (e *Engine) WithBackups(enabled bool) *Engine {
	e.backups = enabled
	return e
}

// Pull applies the diff entries to the target directory. Per-entry I/O
// failures are collected, never fatal; the engine makes maximal partial
// progress. After all entries are attempted, and if at least one entry
// succeeded on a real run, the target manifest is rewritten from the
// source manifest exactly once.
func (e *Engine) Pull(source *manifest.Manifest, entries []compare.Entry, opts Options) *Result {
	defer logging.Timer("pull")()

	result := &Result{DryRun: opts.DryRun}

	for _, entry := range entries {
		if !matchesFilters(entry.Path, opts.Only, opts.Exclude) {
			continue
		}
		e.processEntry(entry, opts, result)
	}

	if len(result.Synced) > 0 && !opts.DryRun {
		if err := e.mergeManifest(source); err != nil {
			// Files are on disk but the manifest write failed; surface
			// it as a failure on the manifest path itself.
			result.Failed = append(result.Failed, FailedEntry{
				Path: e.store.Path(e.targetDir),
				Err:  err,
			})
		} else {
			result.ManifestUpdated = true
		}
	}

	logging.Debug("pull finished",
		logging.Operation("pull"),
		logging.Count(len(result.Synced)),
		logging.Err(firstError(result)),
	)

	return result
}

// processEntry handles one diff entry, recording the outcome.
func (e *Engine) processEntry(entry compare.Entry, opts Options, result *Result) {
	if entry.Kind == compare.KindRemoved {
		// Dropped from the source catalogue. The manifest merge will
		// forget the rule; the file itself is never deleted.
		result.Skipped = append(result.Skipped, SkippedEntry{
			Entry:  entry,
			Reason: "removed from source (file kept on disk)",
		})
		return
	}

	targetPath := filepath.Join(e.targetDir, entry.Path)

	if entry.Scope == model.ScopeCustomizable && !opts.Force && e.hasLocalCustomization(targetPath) {
		logging.Debug("skipping customized rule",
			logging.Rule(entry.Path),
		)
		result.Skipped = append(result.Skipped, SkippedEntry{
			Entry:  entry,
			Reason: "local customization present (use --force to overwrite)",
		})
		return
	}

	if opts.DryRun {
		result.Synced = append(result.Synced, entry)
		return
	}

	if err := e.syncFile(entry.Path, targetPath); err != nil {
		logging.Warn("rule sync failed",
			logging.Rule(entry.Path),
			logging.Err(err),
		)
		result.Failed = append(result.Failed, FailedEntry{Path: entry.Path, Err: err})
		return
	}

	result.Synced = append(result.Synced, entry)
}

// syncFile copies one rule file from source to target, backing up any
// existing target first.
func (e *Engine) syncFile(relPath, targetPath string) error {
	sourcePath := filepath.Join(e.sourceDir, relPath)

	// #nosec G304 - sourcePath is a manifest-declared rule location
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read source rule %q: %w", sourcePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), ruleDirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", targetPath, err)
	}

	if e.backups {
		if _, err := os.Stat(targetPath); err == nil {
			e.backupFile(targetPath)
		}
	}

	if err := util.WriteFileAtomic(targetPath, content, ruleFilePerm); err != nil {
		return fmt.Errorf("failed to write rule %q: %w", targetPath, err)
	}

	logging.Debug("synced rule",
		logging.Rule(relPath),
		logging.Path(targetPath),
	)

	return nil
}

// backupFile copies an existing target to its backup sibling. Best
// effort: a failed backup is logged and the sync continues.
func (e *Engine) backupFile(targetPath string) {
	// #nosec G304 - targetPath lives inside the registered target project
	content, err := os.ReadFile(targetPath)
	if err != nil {
		logging.Warn("backup read failed, continuing without backup",
			logging.Path(targetPath),
			logging.Err(err),
		)
		return
	}
	backupPath := targetPath + e.backupSfx
	if err := os.WriteFile(backupPath, content, ruleFilePerm); err != nil {
		logging.Warn("backup write failed, continuing without backup",
			logging.Path(backupPath),
			logging.Err(err),
		)
	}
}

// hasLocalCustomization reports whether the target file exists and
// contains the customization marker.
func (e *Engine) hasLocalCustomization(targetPath string) bool {
	// #nosec G304 - targetPath lives inside the registered target project
	content, err := os.ReadFile(targetPath)
	if err != nil {
		return false
	}
	return bytes.Contains(content, []byte(e.marker))
}

// mergeManifest rewrites the target manifest's catalogue fields from the
// source. The target's manifest format version is preserved when a
// manifest already exists and seeded from the source otherwise.
func (e *Engine) mergeManifest(source *manifest.Manifest) error {
	target, err := e.store.Load(e.targetDir)
	if err != nil {
		target = manifest.New()
		target.ManifestVersion = source.ManifestVersion
	}

	target.RulesVersion = source.RulesVersion
	target.LastUpdated = time.Now().UTC()
	target.SourceProject = source.SourceProject
	target.Rules = cloneRules(source.Rules)
	target.Categories = cloneCategories(source.Categories)

	if err := e.store.Save(e.targetDir, target); err != nil {
		return fmt.Errorf("failed to merge manifest into target: %w", err)
	}
	return nil
}

func cloneRules(rules map[string]manifest.Rule) map[string]manifest.Rule {
	clone := make(map[string]manifest.Rule, len(rules))
	for path, rule := range rules {
		clone[path] = rule
	}
	return clone
}

func cloneCategories(categories map[string][]string) map[string][]string {
	if categories == nil {
		return nil
	}
	clone := make(map[string][]string, len(categories))
	for name, paths := range categories {
		clone[name] = append([]string(nil), paths...)
	}
	return clone
}

// matchesFilters applies only/exclude substring filters to a rule path.
func matchesFilters(path string, only, exclude []string) bool {
	if len(only) > 0 {
		matched := false
		for _, substr := range only {
			if substr != "" && strings.Contains(path, substr) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, substr := range exclude {
		if substr != "" && strings.Contains(path, substr) {
			return false
		}
	}
	return true
}

func firstError(r *Result) error {
	if len(r.Failed) == 0 {
		return nil
	}
	return r.Failed[0].Err
}
