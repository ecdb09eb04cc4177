package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	semver "github.com/Masterminds/semver/v3"
	"github.com/cenk/backoff"
	"github.com/rs/dnscache"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/rios0rios0/upgradecheck/domain"
)

const (
	// DefaultNPMURL is the canonical npm registry.
	DefaultNPMURL = "https://registry.npmjs.org"
	// DefaultYarnURL is the yarn mirror; same protocol, different host.
	DefaultYarnURL = "https://registry.yarnpkg.com"

	clientTimeout    = 30 * time.Second
	breakerThreshold = 5
	userAgent        = "upgradecheck/1.0"
)

// npm package name rules: lowercase, URL-safe, optional @scope/ prefix.
var packageNamePattern = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// Client fetches package documents from an npm-protocol registry.
// A circuit breaker guards the upstream so a dead registry fails fast
// instead of burning every fetch slot on timeouts.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
}

// NewNPM creates a provider for registry.npmjs.org or a compatible mirror.
func NewNPM(baseURL string) domain.MetadataProvider {
	return newClient("npm", baseURL, DefaultNPMURL)
}

// NewYarn creates a provider for the yarn registry mirror.
func NewYarn(baseURL string) domain.MetadataProvider {
	return newClient("yarn", baseURL, DefaultYarnURL)
}

func newClient(name, baseURL, defaultURL string) *Client {
	if baseURL == "" {
		baseURL = defaultURL
	}

	// Trips after consecutive failures, recovering on an exponential schedule.
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	return &Client{
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    newHTTPClient(),
		breaker: circuit.NewBreakerWithOptions(&circuit.Options{
			BackOff:    expBackoff,
			ShouldTrip: circuit.ThresholdTripFunc(breakerThreshold),
		}),
	}
}

// newHTTPClient builds a client with DNS caching so high-fanout fetch runs
// don't hammer the resolver.
func newHTTPClient() *http.Client {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: clientTimeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if dialErr == nil {
						return conn, nil
					}
				}
				return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
			},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
		},
	}
}

// Name returns the registry variant identifier.
func (c *Client) Name() string { return c.name }

// FetchMetadata retrieves and decodes the package document for one package.
func (c *Client) FetchMetadata(ctx context.Context, name string) (*domain.RegistryMetadata, error) {
	if !packageNamePattern.MatchString(name) {
		return nil, &domain.FetchError{Name: name, Err: domain.ErrInvalidName}
	}

	if !c.breaker.Ready() {
		return nil, &domain.FetchError{
			Name: name,
			Err:  fmt.Errorf("circuit breaker open for %s", c.baseURL),
		}
	}

	var meta *domain.RegistryMetadata
	err := c.breaker.Call(func() error {
		var fetchErr error
		meta, fetchErr = c.fetch(ctx, name)
		return fetchErr
	}, 0)
	if err != nil {
		if _, ok := err.(*domain.FetchError); ok {
			return nil, err
		}
		return nil, &domain.FetchError{Name: name, Err: err}
	}

	return meta, nil
}

func (c *Client) fetch(ctx context.Context, name string) (*domain.RegistryMetadata, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching package document: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, &domain.FetchError{Name: name, Err: domain.ErrNotFound}
	default:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, c.baseURL)
	}

	var doc packageDocument
	if decodeErr := json.NewDecoder(resp.Body).Decode(&doc); decodeErr != nil {
		return nil, fmt.Errorf("decoding package document: %w", decodeErr)
	}

	return doc.toMetadata(name), nil
}

type packageDocument struct {
	ID          string                 `json:"_id"`
	Name        string                 `json:"name"`
	Versions    map[string]versionInfo `json:"versions"`
	Time        map[string]string      `json:"time"`
	DistTags    map[string]string      `json:"dist-tags"`
	Maintainers []maintainerInfo       `json:"maintainers"`
}

type versionInfo struct {
	Version    string            `json:"version"`
	Deprecated string            `json:"deprecated"`
	Engines    map[string]string `json:"engines"`
	PeerDeps   map[string]string `json:"peerDependencies"`
}

type maintainerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// toMetadata flattens the registry document into the engine's metadata model.
// Versions are sorted ascending by precedence for stable iteration, since the
// document's version map has no order.
func (d *packageDocument) toMetadata(name string) *domain.RegistryMetadata {
	meta := &domain.RegistryMetadata{
		Name:     name,
		DistTags: d.DistTags,
	}

	for num, v := range d.Versions {
		info := domain.VersionInfo{
			Version:          num,
			Deprecated:       v.Deprecated,
			NodeEngine:       v.Engines["node"],
			PeerDependencies: v.PeerDeps,
		}
		if ts, ok := d.Time[num]; ok {
			if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
				info.PublishedAt = t
			}
		}
		meta.Versions = append(meta.Versions, info)
	}

	sort.Slice(meta.Versions, func(i, j int) bool {
		a, aErr := semver.NewVersion(meta.Versions[i].Version)
		b, bErr := semver.NewVersion(meta.Versions[j].Version)
		if aErr != nil || bErr != nil {
			return meta.Versions[i].Version < meta.Versions[j].Version
		}
		return a.LessThan(b)
	})

	for _, m := range d.Maintainers {
		meta.Owners = append(meta.Owners, m.Name)
	}
	sort.Strings(meta.Owners)

	return meta
}
