// Package config holds the runtime configuration for an upgrade-resolution
// run, with optional YAML file loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	semver "github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/upgradecheck/domain"
)

// Config is the recognized option set for one resolution run. Exactly one
// target policy may be active; the legacy greatest/newest switches exist for
// compatibility and conflict with an explicit target.
type Config struct {
	Target   string `yaml:"target"`   // latest, greatest, newest, minor, patch, range
	Greatest bool   `yaml:"greatest"` // Shorthand for target: greatest
	Newest   bool   `yaml:"newest"`   // Shorthand for target: newest

	Pre     bool `yaml:"pre"`     // Include prerelease versions
	Peer    bool `yaml:"peer"`    // Enable peer-dependency reconciliation
	Minimal bool `yaml:"minimal"` // Report only unsatisfied upgrades
	Pin     bool `yaml:"pin"`     // Rewrite to exact versions

	EnginesNode string `yaml:"engines_node"` // Node version for engine checks

	Concurrency int `yaml:"concurrency"` // Fetch pool bound; 0 = default
	TimeoutMs   int `yaml:"timeout_ms"`  // Global run timeout; 0 = none
	Retries     int `yaml:"retries"`     // Per-fetch retries; -1 = default
	BackoffMs   int `yaml:"backoff_ms"`  // Initial retry backoff; 0 = default

	Registry    string `yaml:"registry"`     // Registry variant: npm, yarn
	RegistryURL string `yaml:"registry_url"` // Override base URL

	IgnorePeerDependenciesFor []string `yaml:"ignore_peer_dependencies_for"`
}

// Default returns a configuration with the standard defaults applied.
func Default() *Config {
	return &Config{
		Target:   string(domain.TargetLatest),
		Registry: "npm",
		Retries:  -1,
	}
}

// Validate checks the configuration before any fetch begins. Mutually
// exclusive target policies are a fatal PolicyConflictError.
func (c *Config) Validate() error {
	// An explicit target naming the same policy as its legacy shorthand is
	// one request, not a conflict.
	requested := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)
	add := func(policy string) {
		if _, ok := seen[policy]; ok {
			return
		}
		seen[policy] = struct{}{}
		requested = append(requested, policy)
	}
	if c.Target != "" && c.Target != string(domain.TargetLatest) {
		add(c.Target)
	}
	if c.Greatest {
		add(string(domain.TargetGreatest))
	}
	if c.Newest {
		add(string(domain.TargetNewest))
	}
	if len(requested) > 1 {
		return &domain.PolicyConflictError{Policies: requested}
	}

	if c.Target != "" {
		if _, err := domain.ParseTarget(c.Target); err != nil {
			return err
		}
	}

	if c.EnginesNode != "" {
		if _, err := semver.NewVersion(c.EnginesNode); err != nil {
			return fmt.Errorf("invalid engines_node version %q: %w", c.EnginesNode, err)
		}
	}

	return nil
}

// ResolvedTarget returns the single active target policy.
func (c *Config) ResolvedTarget() domain.Target {
	switch {
	case c.Greatest:
		return domain.TargetGreatest
	case c.Newest:
		return domain.TargetNewest
	case c.Target != "":
		return domain.Target(c.Target)
	}
	return domain.TargetLatest
}

// NodeVersion returns the configured node engine version, or nil.
func (c *Config) NodeVersion() *semver.Version {
	if c.EnginesNode == "" {
		return nil
	}
	v, err := semver.NewVersion(c.EnginesNode)
	if err != nil {
		return nil
	}
	return v
}

// IgnoredPeers returns the peer-demotion exemption set.
func (c *Config) IgnoredPeers() map[string]struct{} {
	ignore := make(map[string]struct{}, len(c.IgnorePeerDependenciesFor))
	for _, name := range c.IgnorePeerDependenciesFor {
		ignore[name] = struct{}{}
	}
	return ignore
}

// Load reads and parses a configuration file, applying defaults for fields
// the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg := Default()
	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".upgradecheck.yaml",
		".upgradecheck.yml",
		"upgradecheck.yaml",
		"upgradecheck.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}
