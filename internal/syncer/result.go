package syncer

import (
	"fmt"
	"strings"

	"github.com/klauern/rulesync/internal/compare"
)

// SkippedEntry records a diff entry the engine intentionally left alone.
type SkippedEntry struct {
	// Entry is the diff entry that was skipped.
	Entry compare.Entry

	// Reason explains the skip in human terms.
	Reason string
}

// FailedEntry records a per-file failure during pull.
type FailedEntry struct {
	// Path is the project-relative rule path that failed.
	Path string

	// Err is the underlying I/O error.
	Err error
}

// Result contains the complete outcome of one pull.
type Result struct {
	// Synced lists entries that were written (or would be, on dry run).
	Synced []compare.Entry

	// Skipped lists entries left alone, with reasons.
	Skipped []SkippedEntry

	// Failed lists entries whose I/O failed. Failures never abort the
	// batch; whatever succeeded stays on disk.
	Failed []FailedEntry

	// DryRun indicates no files were touched.
	DryRun bool

	// ManifestUpdated indicates the target manifest was rewritten from
	// the source. The registry must follow the manifest even when some
	// entries failed, or the two drift apart.
	ManifestUpdated bool
}

// Success returns true when nothing failed.
func (r *Result) Success() bool {
	return len(r.Failed) == 0
}

// Changed returns the number of entries that were (or would be) written.
func (r *Result) Changed() int {
	return len(r.Synced)
}

// Summary returns a human-readable summary of the pull.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("Dry run - no changes made\n")
	}

	sb.WriteString(fmt.Sprintf("  Synced:  %d\n", len(r.Synced)))
	sb.WriteString(fmt.Sprintf("  Skipped: %d\n", len(r.Skipped)))
	sb.WriteString(fmt.Sprintf("  Failed:  %d\n", len(r.Failed)))

	if len(r.Skipped) > 0 {
		sb.WriteString("\nSkipped:\n")
		for _, s := range r.Skipped {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", s.Entry.Path, s.Reason))
		}
	}

	if !r.Success() {
		sb.WriteString("\nErrors:\n")
		for _, f := range r.Failed {
			sb.WriteString(fmt.Sprintf("  - %s: %v\n", f.Path, f.Err))
		}
	}

	return sb.String()
}
