package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ZeroVersion is the rules version of a project that has never synced.
const ZeroVersion = "0.0.0"

// Version is a parsed semantic version with up to three numeric components.
// Missing components are treated as zero, so "1.0" equals "1.0.0".
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a dotted numeric version string.
// At most three components are accepted and each must be a non-negative
// integer. Leading "v" prefixes are tolerated.
func ParseVersion(s string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if trimmed == "" {
		return Version{}, fmt.Errorf("empty version string")
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q: more than 3 components", s)
	}

	var components [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, part)
		}
		components[i] = n
	}

	return Version{Major: components[0], Minor: components[1], Patch: components[2]}, nil
}

// String returns the canonical three-component form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater
// than other.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	return compareInt(v.Patch, other.Patch)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareVersions compares two version strings using semantic ordering.
// A string that fails to parse is treated as 0.0.0; authors declare
// versions and malformed ones should order below everything real.
func CompareVersions(a, b string) int {
	va, err := ParseVersion(a)
	if err != nil {
		va = Version{}
	}
	vb, err := ParseVersion(b)
	if err != nil {
		vb = Version{}
	}
	return va.Compare(vb)
}
