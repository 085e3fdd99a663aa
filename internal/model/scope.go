package model

import (
	"fmt"
	"strings"
)

// Scope controls how a rule behaves when a consumer has edited its local copy.
type Scope string

const (
	// ScopeUniversal rules are always overwritten on sync.
	ScopeUniversal Scope = "universal"

	// ScopeCustomizable rules are skipped on sync when the target file
	// carries the local customization marker.
	ScopeCustomizable Scope = "customizable"
)

// AllScopes returns all supported rule scopes.
func AllScopes() []Scope {
	return []Scope{ScopeUniversal, ScopeCustomizable}
}

// IsValid returns true if the scope is recognized.
func (s Scope) IsValid() bool {
	return s == ScopeUniversal || s == ScopeCustomizable
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}

// Description returns a human-readable description of the scope.
func (s Scope) Description() string {
	switch s {
	case ScopeUniversal:
		return "Always overwritten on sync"
	case ScopeCustomizable:
		return "Skipped on sync when locally customized"
	default:
		return "Unknown scope"
	}
}

// ParseScope converts a string to a Scope.
// Returns an error if the scope is not recognized.
func ParseScope(s string) (Scope, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	scope := Scope(normalized)
	if scope.IsValid() {
		return scope, nil
	}

	switch normalized {
	case "global", "shared":
		return ScopeUniversal, nil
	case "custom", "local", "overridable":
		return ScopeCustomizable, nil
	default:
		return "", fmt.Errorf("unknown scope %q (valid: universal, customizable)", s)
	}
}
