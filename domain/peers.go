package domain

import (
	semver "github.com/Masterminds/semver/v3"
)

// PeerConstraintSet maps a dependency name to the peer ranges other packages'
// selected versions declare for it. It is built once per resolution run and
// is purely additive.
type PeerConstraintSet map[string][]string

// Add records a peer range contributed for the named dependency.
func (s PeerConstraintSet) Add(name, peerRange string) {
	s[name] = append(s[name], peerRange)
}

// Satisfied reports whether version admits every range recorded for name.
// Peer ranges that cannot be interpreted as semver never veto.
func (s PeerConstraintSet) Satisfied(name, version string) bool {
	for _, raw := range s[name] {
		r, err := ParseRange(raw)
		if err != nil || r.Kind == KindOpaque {
			continue
		}
		if !r.Satisfies(version) {
			return false
		}
	}
	return true
}

// ReconcileParams carries the run state the reconciler needs.
type ReconcileParams struct {
	Target   Target
	Options  SelectOptions
	Metadata map[string]*RegistryMetadata
	Current  map[string]*Range   // Declared range per name
	Ignore   map[string]struct{} // Names exempt from demotion
}

// Reconcile checks the initially selected candidates against the peer ranges
// those candidates declare for each other, demoting violators to the highest
// version that honors both the target policy and the peer constraints, or to
// none when no such version exists. Constraints are collected from the
// initial selection only: demotions do not re-propagate. This single pass is
// a deliberate simplification, not an exhaustive constraint solver.
func Reconcile(candidates map[string]string, params ReconcileParams) (map[string]string, PeerConstraintSet) {
	constraints := make(PeerConstraintSet)
	for name, version := range candidates {
		if version == "" {
			continue
		}
		meta := params.Metadata[name]
		if meta == nil {
			continue
		}
		info := meta.Info(version)
		if info == nil {
			continue
		}
		for peer, peerRange := range info.PeerDependencies {
			constraints.Add(peer, peerRange)
		}
	}

	adjusted := make(map[string]string, len(candidates))
	for name, version := range candidates {
		adjusted[name] = version
		if version == "" {
			continue
		}
		if _, exempt := params.Ignore[name]; exempt {
			continue
		}
		if constraints.Satisfied(name, version) {
			continue
		}
		adjusted[name] = demote(name, version, constraints, params)
	}

	return adjusted, constraints
}

// demote re-runs selection against only the versions the peer constraints
// admit, capped at the originally selected candidate so the demotion never
// exceeds the policy's initial pick.
func demote(name, original string, constraints PeerConstraintSet, params ReconcileParams) string {
	meta := params.Metadata[name]
	if meta == nil {
		return ""
	}
	ceiling, err := semver.NewVersion(original)
	if err != nil {
		return ""
	}

	// Dist-tags are dropped so a latest-target selection falls back to the
	// highest admissible version instead of the (vetoed) tagged one.
	filtered := &RegistryMetadata{Name: meta.Name, Owners: meta.Owners}
	for _, info := range meta.Versions {
		v, vErr := semver.NewVersion(info.Version)
		if vErr != nil {
			continue
		}
		if v.GreaterThan(ceiling) {
			continue
		}
		if !constraints.Satisfied(name, info.Version) {
			continue
		}
		filtered.Versions = append(filtered.Versions, info)
	}

	return Select(params.Target, filtered, params.Current[name], params.Options)
}
