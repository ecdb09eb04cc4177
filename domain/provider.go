package domain

import "context"

// MetadataProvider abstracts a package registry (npm, yarn mirror, etc.).
// Each implementation handles transport, response decoding, and failure
// classification for its registry. The resolution engine never performs
// network I/O itself; it only orchestrates calls through this interface.
type MetadataProvider interface {
	// Name returns the provider identifier (e.g. "npm", "yarn").
	Name() string

	// FetchMetadata retrieves the package document for one package.
	// A missing package is reported as a FetchError wrapping ErrNotFound.
	FetchMetadata(ctx context.Context, name string) (*RegistryMetadata, error)
}
