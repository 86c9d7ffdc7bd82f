package driver

import (
	"fmt"
	"strings"
)

// Policy decides what happens to planned samples that are still queued when
// a new plan arrives.
type Policy string

const (
	// PolicyAppend queues the new plan after the unconsumed remainder. The new
	// plan starts from the current plant position at rest, so the queue may
	// hold two disjoint segments.
	PolicyAppend Policy = "append"

	// PolicyReplace discards the remainder. The new plan starts from the
	// current plant position and the velocity of the last applied sample.
	PolicyReplace Policy = "replace"
)

// ParsePolicy parses a policy name. The empty string means PolicyAppend.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyAppend, nil
	case PolicyAppend, PolicyReplace:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown queue policy %q (want %q or %q)", ErrInvalidConfig, s, PolicyAppend, PolicyReplace)
	}
}

// String returns the policy name.
func (p Policy) String() string {
	return string(p)
}
