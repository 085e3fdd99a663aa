package model

import (
	"fmt"
	"strings"
)

// Role represents the part a registered project plays in rule distribution.
type Role string

const (
	// RoleSource identifies the project that authors and originates rules.
	RoleSource Role = "source"

	// RoleConsumer identifies a project that receives rule updates via pull.
	RoleConsumer Role = "consumer"
)

// AllRoles returns all supported project roles.
func AllRoles() []Role {
	return []Role{RoleSource, RoleConsumer}
}

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	return r == RoleSource || r == RoleConsumer
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string to a Role.
// Returns an error if the role is not recognized.
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	role := Role(normalized)
	if role.IsValid() {
		return role, nil
	}

	switch normalized {
	case "provider", "upstream":
		return RoleSource, nil
	case "downstream", "client":
		return RoleConsumer, nil
	default:
		return "", fmt.Errorf("unknown role %q (valid: source, consumer)", s)
	}
}
