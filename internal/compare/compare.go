// Package compare computes the status and ordered diff between a source
// project's rule manifest and a target's.
package compare

import (
	"path/filepath"
	"sort"

	"github.com/klauern/rulesync/internal/logging"
	"github.com/klauern/rulesync/internal/manifest"
	"github.com/klauern/rulesync/internal/model"
)

// Comparison is the outcome of comparing two manifests.
type Comparison struct {
	// Status summarizes the relationship.
	Status Status

	// SourceVersion is the source's declared rules version.
	SourceVersion string

	// TargetVersion is the target's declared rules version, empty when
	// the target has no manifest.
	TargetVersion string

	// Diff lists pending work in deterministic order: source rule paths
	// sorted lexicographically, removed entries appended last.
	Diff []Entry
}

// Comparator compares manifests, re-verifying declared checksums against
// the actual rule files under the source and target directories.
type Comparator struct {
	sourceDir string
	targetDir string
}

// New creates a Comparator rooted at the two project directories.
func New(sourceDir, targetDir string) *Comparator {
	return &Comparator{sourceDir: sourceDir, targetDir: targetDir}
}

// Compare computes the status and diff of target against source.
// A nil target manifest means the target has never synced.
func (c *Comparator) Compare(source, target *manifest.Manifest) *Comparison {
	defer logging.Timer("compare")()

	cmp := &Comparison{SourceVersion: source.RulesVersion}

	if target == nil {
		cmp.Status = StatusMissing
		cmp.Diff = c.allNew(source)
		logging.Debug("target manifest missing, full sync pending",
			logging.Status(string(cmp.Status)),
			logging.Count(len(cmp.Diff)),
		)
		return cmp
	}

	cmp.TargetVersion = target.RulesVersion

	switch model.CompareVersions(source.RulesVersion, target.RulesVersion) {
	case 0:
		// Declared versions agree, but content can still have drifted.
		cmp.Diff = c.findDifferences(source, target)
		if len(cmp.Diff) == 0 {
			cmp.Status = StatusUpToDate
		} else {
			cmp.Status = StatusModified
		}
	case 1:
		cmp.Status = StatusOutdated
		cmp.Diff = c.findDifferences(source, target)
	case -1:
		// Never silently revert a target to an older source.
		cmp.Status = StatusAhead
	}

	logging.Debug("compared manifests",
		logging.Status(string(cmp.Status)),
		logging.Count(len(cmp.Diff)),
	)

	return cmp
}

// allNew emits every source rule as a new entry, sorted by path.
func (c *Comparator) allNew(source *manifest.Manifest) []Entry {
	entries := make([]Entry, 0, len(source.Rules))
	for path, rule := range source.Rules {
		entries = append(entries, Entry{
			Path:          path,
			Kind:          KindNew,
			SourceVersion: rule.Version,
			Description:   rule.Description,
			Priority:      rule.Priority,
			Scope:         rule.Scope,
		})
	}
	sortEntries(entries)
	return entries
}

// findDifferences walks the source catalogue against the target's.
func (c *Comparator) findDifferences(source, target *manifest.Manifest) []Entry {
	var entries []Entry

	for path, srcRule := range source.Rules {
		tgtRule, exists := target.Rules[path]
		if !exists {
			entries = append(entries, Entry{
				Path:          path,
				Kind:          KindNew,
				SourceVersion: srcRule.Version,
				Description:   srcRule.Description,
				Priority:      srcRule.Priority,
				Scope:         srcRule.Scope,
			})
			continue
		}

		switch model.CompareVersions(srcRule.Version, tgtRule.Version) {
		case 1:
			entries = append(entries, Entry{
				Path:          path,
				Kind:          KindUpdate,
				SourceVersion: srcRule.Version,
				TargetVersion: tgtRule.Version,
				Description:   srcRule.Description,
				Priority:      srcRule.Priority,
				Scope:         srcRule.Scope,
			})
		case 0:
			if srcRule.Checksum != tgtRule.Checksum && c.contentDrifted(path) {
				entries = append(entries, Entry{
					Path:             path,
					Kind:             KindModified,
					SourceVersion:    srcRule.Version,
					TargetVersion:    tgtRule.Version,
					Description:      srcRule.Description,
					Priority:         srcRule.Priority,
					Scope:            srcRule.Scope,
					ChecksumMismatch: true,
				})
			}
		}
		// Source older than target for a single rule: leave it alone,
		// the catalogue-level ahead check already guards reverts.
	}
	sortEntries(entries)

	removed := c.removedEntries(source, target)
	entries = append(entries, removed...)

	return entries
}

// contentDrifted recomputes the file hashes on both sides. Declared
// checksums go stale, so an unequal pair in the manifests proves nothing
// until the actual bytes disagree. Unreadable files count as drifted so
// the mismatch stays visible to the caller.
func (c *Comparator) contentDrifted(relPath string) bool {
	srcHash, srcErr := manifest.HashFile(filepath.Join(c.sourceDir, relPath))
	tgtHash, tgtErr := manifest.HashFile(filepath.Join(c.targetDir, relPath))
	if srcErr != nil || tgtErr != nil {
		logging.Debug("checksum verification fell back to manifest values",
			logging.Rule(relPath),
			logging.Err(srcErr),
			logging.Err(tgtErr),
		)
		return true
	}
	return srcHash != tgtHash
}

// removedEntries reports target rules the source no longer declares.
func (c *Comparator) removedEntries(source, target *manifest.Manifest) []Entry {
	var entries []Entry
	for path, tgtRule := range target.Rules {
		if _, exists := source.Rules[path]; exists {
			continue
		}
		entries = append(entries, Entry{
			Path:          path,
			Kind:          KindRemoved,
			TargetVersion: tgtRule.Version,
			Description:   tgtRule.Description,
			Priority:      tgtRule.Priority,
			Scope:         tgtRule.Scope,
		})
	}
	sortEntries(entries)
	return entries
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}
