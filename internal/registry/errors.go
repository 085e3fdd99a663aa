package registry

import "errors"

// User-facing error conditions. Callers match these with errors.Is and
// translate them into remediation hints and exit codes.
var (
	// ErrProjectNotRegistered reports a lookup for an unknown project name.
	ErrProjectNotRegistered = errors.New("project not registered")

	// ErrDuplicateRegistration reports a register attempt with a name that
	// is already taken. Names are unique and immutable once set.
	ErrDuplicateRegistration = errors.New("project already registered")

	// ErrNoSourceRegistered reports that no project holds the source role.
	ErrNoSourceRegistered = errors.New("no source project registered")

	// ErrRegistryConflict reports that the on-disk registry changed since
	// it was loaded. The caller should reload and retry rather than
	// silently losing the other writer's update.
	ErrRegistryConflict = errors.New("registry was modified by another process")
)
