package domain

import "time"

// Section identifies the manifest section a dependency is declared in.
type Section string

const (
	SectionDependencies         Section = "dependencies"
	SectionDevDependencies      Section = "devDependencies"
	SectionOptionalDependencies Section = "optionalDependencies"
	SectionPeerDependencies     Section = "peerDependencies"
)

// Declaration is a single declared dependency: the package name and the
// version range exactly as written in the manifest.
type Declaration struct {
	Name    string  // Package name (e.g. "lodash", "@types/node")
	Range   string  // Declared range string (e.g. "^1.2.3")
	Section Section // Manifest section the declaration came from
}

// VersionInfo carries the per-version registry metadata relevant to selection.
type VersionInfo struct {
	Version          string            // Version string as published
	PublishedAt      time.Time         // Publish timestamp; zero when unknown
	Deprecated       string            // Deprecation reason; empty when not deprecated
	NodeEngine       string            // engines.node range; empty when unconstrained
	PeerDependencies map[string]string // Peer name -> declared peer range
}

// RegistryMetadata is the package document fetched from a registry,
// retrieved once per name per resolution run.
type RegistryMetadata struct {
	Name     string
	Versions []VersionInfo     // All published versions, ascending by precedence
	DistTags map[string]string // Tag name -> version (e.g. "latest")
	Owners   []string          // Current maintainer identifiers
}

// Info returns the metadata entry for an exact version string, or nil.
func (m *RegistryMetadata) Info(version string) *VersionInfo {
	for i := range m.Versions {
		if m.Versions[i].Version == version {
			return &m.Versions[i]
		}
	}
	return nil
}

// UpgradeCandidate is the resolution outcome for one declared dependency.
type UpgradeCandidate struct {
	Name         string
	CurrentRange string
	Version      string // Selected version; empty when nothing qualifies
	NewRange     string // Rewritten range; empty when no candidate
	Satisfied    bool   // Current range already admits the candidate
	Unrewritable bool   // Compound range that could not be rewritten
	OwnerChanged bool   // Maintainer set differs from the known owner set
}

// Result is the full output of one resolution run. Candidates preserves the
// input declaration order; the maps are derived views keyed by package name.
type Result struct {
	Candidates []UpgradeCandidate

	// Upgraded maps names whose rewritten range differs from the declared one.
	Upgraded map[string]string
	// Latest maps every name to its raw selected version, for diagnostics.
	Latest map[string]string
	// PeerDependencies maps names to the peer ranges their candidate declares.
	// Populated only in peer-aware mode.
	PeerDependencies map[string]map[string]string
	// Errors holds per-name failures; siblings still resolve normally.
	Errors map[string]error
}
