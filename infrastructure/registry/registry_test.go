package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/upgradecheck/infrastructure/registry"
	"github.com/rios0rios0/upgradecheck/test/domain/entitybuilders"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should provide the built-in variants", func(t *testing.T) {
		t.Parallel()

		// given
		reg := registry.Default()

		// then
		assert.ElementsMatch(t, []string{"npm", "yarn"}, reg.Names())

		provider, err := reg.Get("npm", "")
		require.NoError(t, err)
		assert.Equal(t, "npm", provider.Name())
	})

	t.Run("should fail for an unknown variant", func(t *testing.T) {
		t.Parallel()

		// when
		provider, err := registry.Default().Get("artifactory", "")

		// then
		require.Error(t, err)
		assert.Nil(t, provider)
	})
}

func TestCache(t *testing.T) {
	t.Parallel()

	t.Run("should return stored metadata by name", func(t *testing.T) {
		t.Parallel()

		// given
		cache := registry.NewCache()
		meta := entitybuilders.NewMetadataBuilder().WithName("lodash").BuildMetadata()

		// when
		cache.Put("lodash", meta)
		got, ok := cache.Get("lodash")

		// then
		require.True(t, ok)
		assert.Same(t, meta, got)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("should miss for names never stored", func(t *testing.T) {
		t.Parallel()

		// when
		got, ok := registry.NewCache().Get("absent")

		// then
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}
