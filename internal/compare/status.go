package compare

// Status summarizes how a target project's rules relate to the source.
type Status string

const (
	// StatusUpToDate means declared versions match and no content drifted.
	StatusUpToDate Status = "up-to-date"

	// StatusOutdated means the source declares a newer rules version.
	StatusOutdated Status = "outdated"

	// StatusMissing means the target has no manifest yet; every source
	// rule is pending as new.
	StatusMissing Status = "missing"

	// StatusModified means declared versions match but content differs.
	StatusModified Status = "modified"

	// StatusAhead means the target declares a newer rules version than
	// the source; nothing is pulled, a target is never silently reverted.
	StatusAhead Status = "ahead"
)

// String returns the machine-readable status token.
func (s Status) String() string {
	return string(s)
}

// Pending reports whether the status implies work for pull.
func (s Status) Pending() bool {
	switch s {
	case StatusOutdated, StatusMissing, StatusModified:
		return true
	default:
		return false
	}
}
