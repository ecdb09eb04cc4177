// Package testdoubles provides test doubles (spies, stubs, dummies) for
// domain interfaces. These are hand-crafted implementations, no mock
// frameworks.
package testdoubles

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rios0rios0/upgradecheck/domain"
)

// ---------------------------------------------------------------------------
// SpyMetadataProvider
// ---------------------------------------------------------------------------

// SpyMetadataProvider implements domain.MetadataProvider as a configurable
// spy. Configure the response fields for the names your test exercises, then
// inspect the call-tracking fields to verify behavior. Safe for concurrent
// use, since the fetcher pool calls it from multiple goroutines.
type SpyMetadataProvider struct {
	// --- identity ---
	ProviderName string

	// --- responses ---
	Metadata map[string]*domain.RegistryMetadata
	Errs     map[string]error

	// FailuresBefore makes a name fail with a transient error the given
	// number of times before succeeding, for retry testing.
	FailuresBefore map[string]int

	// Delay adds artificial latency per fetch, honoring cancellation.
	Delay time.Duration

	// --- call tracking ---
	mu           sync.Mutex
	FetchedNames []string

	inFlight    int32
	maxInFlight int32
}

// Name returns the configured provider name, defaulting to "spy".
func (s *SpyMetadataProvider) Name() string {
	if s.ProviderName == "" {
		return "spy"
	}
	return s.ProviderName
}

func (s *SpyMetadataProvider) FetchMetadata(ctx context.Context, name string) (*domain.RegistryMetadata, error) {
	cur := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		observed := atomic.LoadInt32(&s.maxInFlight)
		if cur <= observed || atomic.CompareAndSwapInt32(&s.maxInFlight, observed, cur) {
			break
		}
	}

	s.mu.Lock()
	s.FetchedNames = append(s.FetchedNames, name)
	remaining := 0
	if s.FailuresBefore != nil {
		remaining = s.FailuresBefore[name]
		if remaining > 0 {
			s.FailuresBefore[name] = remaining - 1
		}
	}
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}

	if remaining > 0 {
		return nil, errors.New("transient network failure")
	}
	if err, ok := s.Errs[name]; ok {
		return nil, err
	}
	meta, ok := s.Metadata[name]
	if !ok {
		return nil, &domain.FetchError{Name: name, Err: domain.ErrNotFound}
	}
	return meta, nil
}

// FetchCount returns how many times the given name was fetched.
func (s *SpyMetadataProvider) FetchCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, fetched := range s.FetchedNames {
		if fetched == name {
			count++
		}
	}
	return count
}

// MaxInFlight returns the highest number of concurrent fetches observed.
func (s *SpyMetadataProvider) MaxInFlight() int {
	return int(atomic.LoadInt32(&s.maxInFlight))
}

// ---------------------------------------------------------------------------
// DummyMetadataProvider
// ---------------------------------------------------------------------------

// DummyMetadataProvider is a no-op implementation for interface compliance.
type DummyMetadataProvider struct{}

func (d *DummyMetadataProvider) Name() string { return "dummy" }

func (d *DummyMetadataProvider) FetchMetadata(_ context.Context, name string) (*domain.RegistryMetadata, error) {
	return &domain.RegistryMetadata{Name: name}, nil
}
