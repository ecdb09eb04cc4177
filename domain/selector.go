package domain

import (
	semver "github.com/Masterminds/semver/v3"
)

// SelectOptions tune version eligibility during selection.
type SelectOptions struct {
	// IncludePrerelease admits prerelease versions as candidates.
	IncludePrerelease bool
	// NodeVersion, when set, excludes versions whose engines.node range
	// does not admit it.
	NodeVersion *semver.Version
}

// candidate pairs a parsed version with its registry metadata entry.
type candidate struct {
	version *semver.Version
	info    *VersionInfo
}

// Select picks the winning version for one package under the given target
// policy. An empty result is the normal "no upgrade available" outcome, not
// an error; fetch failures are reported separately by the fetcher pool.
// Selection is deterministic given the same metadata.
func Select(target Target, meta *RegistryMetadata, current *Range, opts SelectOptions) string {
	if meta == nil {
		return ""
	}

	pool := eligible(meta, opts)

	switch target {
	case TargetLatest:
		return selectLatest(meta, pool)
	case TargetGreatest:
		return best(pool, nil)
	case TargetNewest:
		return selectNewest(pool)
	case TargetMinor:
		return selectWithin(pool, current, false)
	case TargetPatch:
		return selectWithin(pool, current, true)
	case TargetRange:
		return selectInRange(pool, current)
	}
	return ""
}

// eligible filters the published versions down to parseable candidates,
// applying the prerelease and node-engine rules.
func eligible(meta *RegistryMetadata, opts SelectOptions) []candidate {
	out := make([]candidate, 0, len(meta.Versions))
	for i := range meta.Versions {
		info := &meta.Versions[i]

		v, err := semver.NewVersion(info.Version)
		if err != nil {
			continue
		}
		if v.Prerelease() != "" && !opts.IncludePrerelease {
			continue
		}
		if opts.NodeVersion != nil && info.NodeEngine != "" {
			if c, cErr := semver.NewConstraint(info.NodeEngine); cErr == nil && !c.Check(opts.NodeVersion) {
				continue
			}
		}

		out = append(out, candidate{version: v, info: info})
	}
	return out
}

// best returns the maximum accepted candidate by semantic-version precedence.
func best(pool []candidate, accept func(candidate) bool) string {
	var top *candidate
	for i := range pool {
		c := &pool[i]
		if accept != nil && !accept(*c) {
			continue
		}
		if top == nil || better(c, top) {
			top = c
		}
	}
	if top == nil {
		return ""
	}
	return top.info.Version
}

// better implements precedence ordering with the later publish timestamp
// breaking ties between versions differing only in build metadata.
func better(a, b *candidate) bool {
	switch cmp := a.version.Compare(b.version); {
	case cmp > 0:
		return true
	case cmp < 0:
		return false
	}
	return a.info.PublishedAt.After(b.info.PublishedAt)
}

// selectLatest follows the "latest" dist-tag when it points at an eligible,
// non-deprecated version, and otherwise falls back to the highest eligible
// non-deprecated version.
func selectLatest(meta *RegistryMetadata, pool []candidate) string {
	if tag := meta.DistTags["latest"]; tag != "" {
		for i := range pool {
			if pool[i].info.Version == tag && pool[i].info.Deprecated == "" {
				return tag
			}
		}
	}
	return best(pool, func(c candidate) bool { return c.info.Deprecated == "" })
}

// selectNewest picks the most recently published candidate, breaking ties by
// precedence ordering.
func selectNewest(pool []candidate) string {
	var top *candidate
	for i := range pool {
		c := &pool[i]
		switch {
		case top == nil:
			top = c
		case c.info.PublishedAt.After(top.info.PublishedAt):
			top = c
		case c.info.PublishedAt.Equal(top.info.PublishedAt) && c.version.Compare(top.version) > 0:
			top = c
		}
	}
	if top == nil {
		return ""
	}
	return top.info.Version
}

// selectWithin picks the highest candidate sharing the current base version's
// major (and minor, when pinMinor is set) that lies above the base.
func selectWithin(pool []candidate, current *Range, pinMinor bool) string {
	if current == nil || current.Version == nil {
		return ""
	}
	base := current.Version
	return best(pool, func(c candidate) bool {
		if c.version.Major() != base.Major() {
			return false
		}
		if pinMinor && c.version.Minor() != base.Minor() {
			return false
		}
		return c.version.GreaterThan(base)
	})
}

// selectInRange picks the highest candidate the declared range already
// admits, detecting drift within an acceptable range.
func selectInRange(pool []candidate, current *Range) string {
	if current == nil {
		return ""
	}
	c := current.Constraint()
	if c == nil {
		return ""
	}
	return best(pool, func(cand candidate) bool { return c.Check(cand.version) })
}
