package domain

import (
	"regexp"
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

// RangeKind classifies a declared range string.
type RangeKind int

const (
	// KindSimple is a single operator-prefixed or exact version ("^1.2.3").
	KindSimple RangeKind = iota
	// KindAny admits every version ("*", "x", or an empty declaration).
	KindAny
	// KindCompound is a multi-comparator range (">=1.0.0 <2.0.0", "1.x || 2.x").
	KindCompound
	// KindOpaque is an intentionally non-semver declaration ("latest",
	// "workspace:*", "git+https://…"). Never rewritten, never an error.
	KindOpaque
)

// Ordered longest-first so ">=" wins over ">".
var rangeOperators = []string{">=", "<=", "^", "~", ">", "<", "="}

var opaquePrefixes = []string{
	"workspace:", "npm:", "file:", "link:", "portal:",
	"git:", "git+", "github:", "http://", "https://",
}

// distTagPattern matches bare dist-tag declarations such as "latest" or "next".
var distTagPattern = regexp.MustCompile(`^[a-zA-Z][\w.-]*$`)

// Range is a parsed version-range declaration. The original text is kept so
// rewrites can reproduce the declared operator style.
type Range struct {
	Raw      string
	Kind     RangeKind
	Operator string          // Literal operator prefix; empty for exact pins
	Version  *semver.Version // Base version; nil unless KindSimple
}

// ParseRange parses a declared range string into its operator class and base
// version. A missing or empty range is treated as "*". Non-semver tags and
// protocol declarations are classified as opaque rather than rejected.
func ParseRange(raw string) (*Range, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "*" || s == "x" || s == "X" {
		return &Range{Raw: raw, Kind: KindAny}, nil
	}

	for _, prefix := range opaquePrefixes {
		if strings.HasPrefix(s, prefix) {
			return &Range{Raw: raw, Kind: KindOpaque}, nil
		}
	}

	if strings.ContainsAny(s, " |,") {
		if _, err := semver.NewConstraint(s); err != nil {
			return nil, &InvalidRangeError{Range: raw}
		}
		return &Range{Raw: raw, Kind: KindCompound}, nil
	}

	op, rest := "", s
	for _, o := range rangeOperators {
		if strings.HasPrefix(s, o) {
			op = o
			rest = strings.TrimPrefix(s, o)
			break
		}
	}

	version, err := semver.NewVersion(rest)
	if err != nil {
		if op == "" && distTagPattern.MatchString(rest) {
			return &Range{Raw: raw, Kind: KindOpaque}, nil
		}
		// Wildcard forms like "1.x" or "~2.*" are valid ranges without a
		// single rewritable base version.
		if _, cErr := semver.NewConstraint(s); cErr == nil {
			return &Range{Raw: raw, Kind: KindCompound}, nil
		}
		return nil, &InvalidRangeError{Range: raw}
	}

	return &Range{Raw: raw, Kind: KindSimple, Operator: op, Version: version}, nil
}

// Rewrite produces a new range string for the given version, reproducing the
// original operator class. Compound ranges are only rewritten as a no-op when
// the version already satisfies them; pin forces an exact version instead.
// Opaque declarations are never rewritten.
func (r *Range) Rewrite(version string, pin bool) (string, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return "", &InvalidRangeError{Range: version}
	}

	switch r.Kind {
	case KindOpaque:
		return "", ErrUnrewritable
	case KindAny:
		if pin {
			return v.Original(), nil
		}
		// "*" already admits everything; the declaration stays as written.
		return r.Raw, nil
	case KindCompound:
		if pin {
			return v.Original(), nil
		}
		if c, cErr := semver.NewConstraint(r.Raw); cErr == nil && c.Check(v) {
			return r.Raw, nil
		}
		return "", ErrUnrewritable
	}

	if pin {
		return v.Original(), nil
	}
	return r.Operator + v.Original(), nil
}

// Constraint returns the declared range as a constraint set. Opaque
// declarations have no constraint form and yield nil.
func (r *Range) Constraint() *semver.Constraints {
	var expr string
	switch r.Kind {
	case KindOpaque:
		return nil
	case KindAny:
		expr = "*"
	case KindCompound:
		expr = r.Raw
	default:
		expr = r.Operator + r.Version.Original()
	}

	c, err := semver.NewConstraint(expr)
	if err != nil {
		return nil
	}
	return c
}

// Satisfies reports whether the declared range admits the given version.
func (r *Range) Satisfies(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	c := r.Constraint()
	return c != nil && c.Check(v)
}
