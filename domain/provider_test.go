package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/upgradecheck/domain"
	testdoubles "github.com/rios0rios0/upgradecheck/test"
)

func TestMetadataProviderCompliance(t *testing.T) {
	t.Parallel()

	t.Run("should be implemented by the test doubles", func(t *testing.T) {
		t.Parallel()

		// then
		assert.Implements(t, (*domain.MetadataProvider)(nil), &testdoubles.SpyMetadataProvider{})
		assert.Implements(t, (*domain.MetadataProvider)(nil), &testdoubles.DummyMetadataProvider{})
	})
}
