package model

import (
	"fmt"
	"strings"
)

// Priority expresses how important a rule is to its consumers.
// It is informational ordering for display, not sync behavior.
type Priority string

const (
	// PriorityCritical rules must never be skipped during review.
	PriorityCritical Priority = "critical"

	// PriorityHigh rules are strongly recommended.
	PriorityHigh Priority = "high"

	// PriorityMedium rules are the default importance level.
	PriorityMedium Priority = "medium"

	// PriorityLow rules are optional guidance.
	PriorityLow Priority = "low"
)

// priorityRank orders priorities for display. Lower rank = more important.
var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// AllPriorities returns all supported priorities, most important first.
func AllPriorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}

// IsValid returns true if the priority is recognized.
func (p Priority) IsValid() bool {
	_, ok := priorityRank[p]
	return ok
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// Rank returns the display rank of the priority. Lower is more important.
// Unknown priorities rank last.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// ParsePriority converts a string to a Priority.
// Returns an error if the priority is not recognized.
func ParsePriority(s string) (Priority, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	priority := Priority(normalized)
	if priority.IsValid() {
		return priority, nil
	}

	switch normalized {
	case "must", "required":
		return PriorityCritical, nil
	case "normal", "default":
		return PriorityMedium, nil
	case "optional":
		return PriorityLow, nil
	default:
		return "", fmt.Errorf("unknown priority %q (valid: critical, high, medium, low)", s)
	}
}
