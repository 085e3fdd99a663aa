package compare

import (
	"fmt"

	"github.com/klauern/rulesync/internal/model"
)

// Kind classifies how a single rule differs between source and target.
type Kind string

const (
	// KindNew marks a rule the target does not have yet.
	KindNew Kind = "new"

	// KindUpdate marks a rule whose source version is newer.
	KindUpdate Kind = "update"

	// KindModified marks a rule at equal declared version whose actual
	// file content differs.
	KindModified Kind = "modified"

	// KindRemoved marks a rule present in the target manifest but dropped
	// from the source. The file is reported, never deleted.
	KindRemoved Kind = "removed"
)

// Entry is one unit of sync work for a single rule file.
type Entry struct {
	// Path is the project-relative rule file path.
	Path string

	// Kind classifies the difference.
	Kind Kind

	// SourceVersion is the source's declared rule version, empty for
	// removed entries.
	SourceVersion string

	// TargetVersion is the target's declared rule version, empty for new
	// entries.
	TargetVersion string

	// Description is carried from the manifest for display.
	Description string

	// Priority is carried from the manifest for display ordering.
	Priority model.Priority

	// Scope decides overwrite behavior during pull.
	Scope model.Scope

	// ChecksumMismatch is set when the entry was produced by verified
	// content drift rather than a version bump.
	ChecksumMismatch bool
}

// Summary returns a one-line human description of the entry.
func (e Entry) Summary() string {
	switch e.Kind {
	case KindNew:
		return fmt.Sprintf("%s: new (%s)", e.Path, e.SourceVersion)
	case KindUpdate:
		return fmt.Sprintf("%s: update %s -> %s", e.Path, e.TargetVersion, e.SourceVersion)
	case KindModified:
		return fmt.Sprintf("%s: content drifted at %s", e.Path, e.SourceVersion)
	case KindRemoved:
		return fmt.Sprintf("%s: removed from source (file kept)", e.Path)
	default:
		return e.Path
	}
}
