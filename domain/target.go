package domain

import "fmt"

// Target is the policy used to pick a winning version among those available.
// Exactly one target is active per resolution run.
type Target string

const (
	// TargetLatest follows the registry's "latest" dist-tag.
	TargetLatest Target = "latest"
	// TargetGreatest picks the maximum version by semantic-version precedence.
	TargetGreatest Target = "greatest"
	// TargetNewest picks the most recently published version.
	TargetNewest Target = "newest"
	// TargetMinor picks the highest version within the current major.
	TargetMinor Target = "minor"
	// TargetPatch picks the highest version within the current major.minor.
	TargetPatch Target = "patch"
	// TargetRange picks the highest version the declared range already admits.
	TargetRange Target = "range"
)

// ParseTarget validates a target policy name.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetLatest, TargetGreatest, TargetNewest, TargetMinor, TargetPatch, TargetRange:
		return Target(s), nil
	}
	return "", fmt.Errorf("unknown target policy: %q", s)
}
