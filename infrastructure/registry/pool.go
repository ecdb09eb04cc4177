package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenk/backoff"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/rios0rios0/upgradecheck/domain"
)

const (
	defaultConcurrency = 8
	defaultRetries     = 2
	defaultBackoff     = 200 * time.Millisecond
)

// FetchResult is one name's slot in the pool output.
type FetchResult struct {
	Name     string
	Metadata *domain.RegistryMetadata
	Err      error
}

// PoolOptions configure the concurrency bound and local retry behavior.
// These are configuration, not constants: callers tune them per run.
type PoolOptions struct {
	Concurrency int           // Max in-flight fetches; defaults to 8
	Retries     int           // Retries per fetch on transient errors; defaults to 2
	Backoff     time.Duration // Initial retry backoff; defaults to 200ms
}

// Pool bounds the number of simultaneously in-flight metadata fetches
// against a registry that may rate-limit, isolating failures per package.
type Pool struct {
	provider domain.MetadataProvider
	cache    *Cache
	limit    int64
	retries  uint64
	backoff  time.Duration
}

// NewPool creates a pool driving the given provider. A nil cache gets a
// fresh run-scoped one.
func NewPool(provider domain.MetadataProvider, cache *Cache, opts PoolOptions) *Pool {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Retries < 0 {
		opts.Retries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if cache == nil {
		cache = NewCache()
	}

	return &Pool{
		provider: provider,
		cache:    cache,
		limit:    int64(opts.Concurrency),
		retries:  uint64(opts.Retries),
		backoff:  opts.Backoff,
	}
}

// FetchAll retrieves metadata for every name. Results are written into
// pre-allocated slots, so the output preserves the input order regardless of
// completion order and workers never share a slot. A per-name failure
// occupies only that name's slot; siblings resolve normally. Context expiry
// aborts the whole run as a single fatal error, and in-flight fetches are
// abandoned rather than waited for.
func (p *Pool) FetchAll(ctx context.Context, names []string) ([]FetchResult, error) {
	results := make([]FetchResult, len(names))
	sem := semaphore.NewWeighted(p.limit)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i, name := range names {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(slot int, name string) {
				defer wg.Done()
				defer sem.Release(1)
				meta, err := p.fetchOne(ctx, name)
				results[slot] = FetchResult{Name: name, Metadata: meta, Err: err}
			}(i, name)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("resolution run aborted: %w", ctx.Err())
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolution run aborted: %w", err)
	}
	return results, nil
}

// fetchOne performs a single fetch with local retries. A 404 or an invalid
// package name is terminal and surfaces immediately; transient errors retry
// a bounded number of times with exponential backoff. No retry spans the run.
func (p *Pool) fetchOne(ctx context.Context, name string) (*domain.RegistryMetadata, error) {
	if meta, ok := p.cache.Get(name); ok {
		return meta, nil
	}

	var meta *domain.RegistryMetadata
	operation := func() error {
		m, err := p.provider.FetchMetadata(ctx, name)
		if err != nil {
			if isTerminal(err) {
				return backoff.Permanent(err)
			}
			logger.Debugf("[%s] transient fetch failure for %s: %v", p.provider.Name(), name, err)
			return err
		}
		meta = m
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.backoff
	b := backoff.WithContext(backoff.WithMaxRetries(policy, p.retries), ctx)

	if err := backoff.Retry(operation, b); err != nil {
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &domain.FetchError{Name: name, Err: err}
	}

	p.cache.Put(name, meta)
	return meta, nil
}

// isTerminal reports errors that must not be retried: a missing package or a
// name the registry would reject outright.
func isTerminal(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidName)
}
