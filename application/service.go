package application

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/upgradecheck/config"
	"github.com/rios0rios0/upgradecheck/domain"
	registryPkg "github.com/rios0rios0/upgradecheck/infrastructure/registry"
)

// UpgradeService orchestrates the full resolution flow:
// fetch metadata -> select candidates -> reconcile peers -> rewrite ranges.
type UpgradeService struct {
	provider domain.MetadataProvider
}

// NewUpgradeService creates a service backed by the given registry provider.
func NewUpgradeService(provider domain.MetadataProvider) *UpgradeService {
	return &UpgradeService{provider: provider}
}

// Resolve computes the upgrade map for the declared dependencies.
// Only structural misconfiguration (policy conflicts) and global timeout
// abort the run; per-name failures land in Result.Errors alongside the
// successful resolutions, so a partial result is always usable.
// knownOwners optionally supplies previously known maintainer sets for
// ownership-change detection.
func (s *UpgradeService) Resolve(
	ctx context.Context,
	deps []domain.Declaration,
	cfg *config.Config,
	knownOwners map[string][]string,
) (*domain.Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	target := cfg.ResolvedTarget()
	opts := domain.SelectOptions{
		IncludePrerelease: cfg.Pre,
		NodeVersion:       cfg.NodeVersion(),
	}

	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
	}

	pool := registryPkg.NewPool(s.provider, registryPkg.NewCache(), registryPkg.PoolOptions{
		Concurrency: cfg.Concurrency,
		Retries:     cfg.Retries,
		Backoff:     time.Duration(cfg.BackoffMs) * time.Millisecond,
	})

	logger.Debugf("Fetching metadata for %d packages via %s", len(names), s.provider.Name())

	fetched, err := pool.FetchAll(ctx, names)
	if err != nil {
		return nil, err
	}

	result := &domain.Result{
		Upgraded: make(map[string]string),
		Latest:   make(map[string]string),
		Errors:   make(map[string]error),
	}

	// State is kept per declaration, not per name: a package declared in two
	// manifest sections carries a distinct range in each, and each candidate
	// is computed against its own declaration.
	metadata := make([]*domain.RegistryMetadata, len(deps))
	ranges := make([]*domain.Range, len(deps))
	selected := make([]string, len(deps))

	for i, d := range deps {
		if fetchErr := fetched[i].Err; fetchErr != nil {
			result.Errors[d.Name] = fetchErr
			continue
		}

		r, parseErr := domain.ParseRange(d.Range)
		if parseErr != nil {
			var invalid *domain.InvalidRangeError
			if errors.As(parseErr, &invalid) {
				invalid.Name = d.Name
			}
			result.Errors[d.Name] = parseErr
			continue
		}

		metadata[i] = fetched[i].Metadata
		ranges[i] = r
		selected[i] = domain.Select(target, fetched[i].Metadata, r, opts)
	}

	if cfg.Peer {
		reconcilePeers(deps, ranges, metadata, selected, target, opts, cfg.IgnoredPeers())
		result.PeerDependencies = make(map[string]map[string]string)
	}

	for i, d := range deps {
		if ranges[i] == nil {
			// Fetch or parse failure, already recorded against the name.
			continue
		}

		cand := buildCandidate(d, ranges[i], metadata[i], selected[i], cfg.Pin, knownOwners)
		result.Candidates = append(result.Candidates, cand)

		if cand.Version == "" {
			continue
		}

		// The derived maps keep the first declaration of a name; Candidates
		// carries every declaration in full.
		if _, ok := result.Latest[d.Name]; !ok {
			result.Latest[d.Name] = cand.Version
		}

		if cfg.Peer {
			if info := metadata[i].Info(cand.Version); info != nil && len(info.PeerDependencies) > 0 {
				result.PeerDependencies[d.Name] = info.PeerDependencies
			}
		}

		if cand.NewRange != "" && cand.NewRange != d.Range {
			if cfg.Minimal && cand.Satisfied {
				continue
			}
			if _, ok := result.Upgraded[d.Name]; !ok {
				result.Upgraded[d.Name] = cand.NewRange
			}
		}
	}

	logger.Infof(
		"Resolved %d of %d packages: %d upgrades, %d errors",
		len(result.Candidates), len(deps), len(result.Upgraded), len(result.Errors),
	)
	return result, nil
}

// reconcilePeers bridges the per-declaration state to the name-keyed
// reconciler. A package resolves to one version per name during
// reconciliation; the first error-free declaration of a name represents it,
// and a demotion applies to every declaration of that name.
func reconcilePeers(
	deps []domain.Declaration,
	ranges []*domain.Range,
	metadata []*domain.RegistryMetadata,
	selected []string,
	target domain.Target,
	opts domain.SelectOptions,
	ignore map[string]struct{},
) {
	nameRanges := make(map[string]*domain.Range, len(deps))
	nameMeta := make(map[string]*domain.RegistryMetadata, len(deps))
	candidates := make(map[string]string, len(deps))
	for i, d := range deps {
		if ranges[i] == nil {
			continue
		}
		if _, seen := candidates[d.Name]; seen {
			continue
		}
		nameRanges[d.Name] = ranges[i]
		nameMeta[d.Name] = metadata[i]
		candidates[d.Name] = selected[i]
	}

	adjusted, _ := domain.Reconcile(candidates, domain.ReconcileParams{
		Target:   target,
		Options:  opts,
		Metadata: nameMeta,
		Current:  nameRanges,
		Ignore:   ignore,
	})

	for i, d := range deps {
		if ranges[i] == nil {
			continue
		}
		if v, ok := adjusted[d.Name]; ok && v != candidates[d.Name] {
			selected[i] = v
		}
	}
}

// buildCandidate assembles the per-name outcome: satisfaction, range rewrite,
// and ownership-change flag.
func buildCandidate(
	d domain.Declaration,
	r *domain.Range,
	meta *domain.RegistryMetadata,
	version string,
	pin bool,
	knownOwners map[string][]string,
) domain.UpgradeCandidate {
	cand := domain.UpgradeCandidate{
		Name:         d.Name,
		CurrentRange: d.Range,
		Version:      version,
	}
	if version == "" {
		// Up to date under this policy; distinct from a fetch failure.
		return cand
	}

	cand.Satisfied = r.Satisfies(version)

	newRange, rewriteErr := r.Rewrite(version, pin)
	if rewriteErr != nil {
		cand.Unrewritable = errors.Is(rewriteErr, domain.ErrUnrewritable)
	} else {
		cand.NewRange = newRange
	}

	if owners, known := knownOwners[d.Name]; known && meta != nil {
		cand.OwnerChanged = ownersChanged(owners, meta.Owners)
	}

	return cand
}

// ownersChanged reports whether the two maintainer sets differ.
func ownersChanged(known, current []string) bool {
	if len(known) != len(current) {
		return true
	}
	set := make(map[string]struct{}, len(known))
	for _, o := range known {
		set[o] = struct{}{}
	}
	for _, o := range current {
		if _, ok := set[o]; !ok {
			return true
		}
	}
	return false
}
