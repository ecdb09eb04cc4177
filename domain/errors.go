package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a package does not exist in the registry.
var ErrNotFound = errors.New("package not found")

// ErrInvalidName is returned for package names the registry would reject.
var ErrInvalidName = errors.New("invalid package name")

// ErrUnrewritable is returned when a range cannot be rewritten in place.
var ErrUnrewritable = errors.New("range cannot be rewritten")

// InvalidRangeError reports a declared range that is not a recognizable
// semantic-version range. It is surfaced per name and never aborts the batch.
type InvalidRangeError struct {
	Name  string
	Range string
}

func (e *InvalidRangeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid version range %q for package %s", e.Range, e.Name)
	}
	return fmt.Sprintf("invalid version range %q", e.Range)
}

// FetchError wraps a registry failure for a single package. It is captured
// in that name's result slot without aborting sibling fetches.
type FetchError struct {
	Name string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch metadata for %s: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PolicyConflictError reports mutually exclusive target policies requested
// together. It is fatal and raised before any fetch begins.
type PolicyConflictError struct {
	Policies []string
}

func (e *PolicyConflictError) Error() string {
	return fmt.Sprintf("conflicting target policies requested: %v", e.Policies)
}
