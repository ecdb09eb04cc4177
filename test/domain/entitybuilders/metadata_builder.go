package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"time"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/upgradecheck/domain"
)

// MetadataBuilder helps create registry metadata for tests with a fluent
// interface.
type MetadataBuilder struct {
	*testkit.BaseBuilder
	name     string
	versions []domain.VersionInfo
	distTags map[string]string
	owners   []string
}

// NewMetadataBuilder creates a new metadata builder with sensible defaults.
func NewMetadataBuilder() *MetadataBuilder {
	return &MetadataBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		name:        "test-package",
		distTags:    make(map[string]string),
	}
}

// WithName sets the package name.
func (b *MetadataBuilder) WithName(name string) *MetadataBuilder {
	b.name = name
	return b
}

// WithVersion appends a plain published version.
func (b *MetadataBuilder) WithVersion(version string) *MetadataBuilder {
	b.versions = append(b.versions, domain.VersionInfo{Version: version})
	return b
}

// WithVersions appends several plain published versions.
func (b *MetadataBuilder) WithVersions(versions ...string) *MetadataBuilder {
	for _, v := range versions {
		b.WithVersion(v)
	}
	return b
}

// WithVersionInfo appends a fully specified version entry.
func (b *MetadataBuilder) WithVersionInfo(info domain.VersionInfo) *MetadataBuilder {
	b.versions = append(b.versions, info)
	return b
}

// WithPublishedVersion appends a version with a publish timestamp.
func (b *MetadataBuilder) WithPublishedVersion(version string, publishedAt time.Time) *MetadataBuilder {
	b.versions = append(b.versions, domain.VersionInfo{Version: version, PublishedAt: publishedAt})
	return b
}

// WithDeprecatedVersion appends a deprecated version.
func (b *MetadataBuilder) WithDeprecatedVersion(version, reason string) *MetadataBuilder {
	b.versions = append(b.versions, domain.VersionInfo{Version: version, Deprecated: reason})
	return b
}

// WithPeerVersion appends a version declaring a single peer range.
func (b *MetadataBuilder) WithPeerVersion(version, peerName, peerRange string) *MetadataBuilder {
	b.versions = append(b.versions, domain.VersionInfo{
		Version:          version,
		PeerDependencies: map[string]string{peerName: peerRange},
	})
	return b
}

// WithDistTag records a dist-tag.
func (b *MetadataBuilder) WithDistTag(tag, version string) *MetadataBuilder {
	b.distTags[tag] = version
	return b
}

// WithOwners sets the maintainer identifiers.
func (b *MetadataBuilder) WithOwners(owners ...string) *MetadataBuilder {
	b.owners = owners
	return b
}

// Build creates the metadata (satisfies testkit.Builder interface).
func (b *MetadataBuilder) Build() interface{} {
	return b.BuildMetadata()
}

// BuildMetadata creates the metadata with a concrete return type.
func (b *MetadataBuilder) BuildMetadata() *domain.RegistryMetadata {
	return &domain.RegistryMetadata{
		Name:     b.name,
		Versions: b.versions,
		DistTags: b.distTags,
		Owners:   b.owners,
	}
}
