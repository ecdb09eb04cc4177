package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/upgradecheck/config"
	"github.com/rios0rios0/upgradecheck/domain"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	t.Run("should resolve to the latest target on npm", func(t *testing.T) {
		t.Parallel()

		// when
		cfg := config.Default()

		// then
		require.NoError(t, cfg.Validate())
		assert.Equal(t, domain.TargetLatest, cfg.ResolvedTarget())
		assert.Equal(t, "npm", cfg.Registry)
		assert.Equal(t, -1, cfg.Retries)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("should reject conflicting target policies", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		cfg.Target = "minor"
		cfg.Greatest = true

		// when
		err := cfg.Validate()

		// then
		var conflict *domain.PolicyConflictError
		require.ErrorAs(t, err, &conflict)
		assert.ElementsMatch(t, []string{"minor", "greatest"}, conflict.Policies)
	})

	t.Run("should reject both legacy shorthands together", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		cfg.Greatest = true
		cfg.Newest = true

		// then
		var conflict *domain.PolicyConflictError
		require.ErrorAs(t, cfg.Validate(), &conflict)
	})

	t.Run("should accept a single shorthand alongside the default target", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		cfg.Newest = true

		// then
		require.NoError(t, cfg.Validate())
		assert.Equal(t, domain.TargetNewest, cfg.ResolvedTarget())
	})

	t.Run("should accept a shorthand naming the explicit target", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		cfg.Target = "greatest"
		cfg.Greatest = true

		// then one policy requested twice is not a conflict
		require.NoError(t, cfg.Validate())
		assert.Equal(t, domain.TargetGreatest, cfg.ResolvedTarget())
	})

	t.Run("should reject an unknown target", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		cfg.Target = "bleeding-edge"

		// then
		require.Error(t, cfg.Validate())
	})

	t.Run("should reject an unparseable engines_node version", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		cfg.EnginesNode = "latest-lts"

		// when
		err := cfg.Validate()

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "engines_node")
	})
}

func TestResolvedTarget(t *testing.T) {
	t.Parallel()

	t.Run("should prefer the shorthand over the explicit target", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{Target: "latest", Greatest: true}

		// then
		assert.Equal(t, domain.TargetGreatest, cfg.ResolvedTarget())
	})

	t.Run("should fall back to latest when nothing is set", func(t *testing.T) {
		t.Parallel()

		// then
		assert.Equal(t, domain.TargetLatest, (&config.Config{}).ResolvedTarget())
	})
}

func TestNodeVersion(t *testing.T) {
	t.Parallel()

	t.Run("should parse the configured engine version", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := config.Default()
		cfg.EnginesNode = "18.17.0"

		// when
		v := cfg.NodeVersion()

		// then
		require.NotNil(t, v)
		assert.Equal(t, "18.17.0", v.String())
	})

	t.Run("should return nil when unset", func(t *testing.T) {
		t.Parallel()

		// then
		assert.Nil(t, config.Default().NodeVersion())
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("should overlay file values on the defaults", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), ".upgradecheck.yaml")
		content := `
target: minor
pre: true
peer: true
concurrency: 4
timeout_ms: 5000
registry: yarn
engines_node: "20.0.0"
ignore_peer_dependencies_for:
  - react
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.TargetMinor, cfg.ResolvedTarget())
		assert.True(t, cfg.Pre)
		assert.True(t, cfg.Peer)
		assert.Equal(t, 4, cfg.Concurrency)
		assert.Equal(t, 5000, cfg.TimeoutMs)
		assert.Equal(t, "yarn", cfg.Registry)
		assert.Equal(t, -1, cfg.Retries)
		assert.Contains(t, cfg.IgnoredPeers(), "react")
	})

	t.Run("should fail on a conflicting file", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), ".upgradecheck.yaml")
		require.NoError(t, os.WriteFile(path, []byte("greatest: true\nnewest: true\n"), 0o600))

		// when
		_, err := config.Load(path)

		// then
		var conflict *domain.PolicyConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("should fail on malformed YAML", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), ".upgradecheck.yaml")
		require.NoError(t, os.WriteFile(path, []byte("target: [unclosed"), 0o600))

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}
