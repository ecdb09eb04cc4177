package registry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/upgradecheck/domain"
	"github.com/rios0rios0/upgradecheck/infrastructure/registry"
)

const lodashDocument = `{
	"_id": "lodash",
	"name": "lodash",
	"dist-tags": {"latest": "4.17.21"},
	"versions": {
		"4.17.21": {
			"version": "4.17.21",
			"engines": {"node": ">=10"}
		},
		"3.10.1": {
			"version": "3.10.1",
			"deprecated": "use 4.x instead"
		},
		"4.17.4": {
			"version": "4.17.4",
			"peerDependencies": {"lodash-es": "^4.0.0"}
		}
	},
	"time": {
		"3.10.1": "2015-08-04T00:00:00.000Z",
		"4.17.4": "2017-01-01T00:00:00.000Z",
		"4.17.21": "2021-02-20T15:42:16.891Z"
	},
	"maintainers": [
		{"name": "mathias", "email": "m@example.com"},
		{"name": "jdalton", "email": "j@example.com"}
	]
}`

func TestClientFetchMetadata(t *testing.T) {
	t.Parallel()

	t.Run("should decode and normalize a package document", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/lodash", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(lodashDocument))
		}))
		defer server.Close()
		client := registry.NewNPM(server.URL)

		// when
		meta, err := client.FetchMetadata(context.Background(), "lodash")

		// then
		require.NoError(t, err)
		require.NotNil(t, meta)
		assert.Equal(t, "lodash", meta.Name)
		assert.Equal(t, "4.17.21", meta.DistTags["latest"])

		// versions come out ascending regardless of document order
		require.Len(t, meta.Versions, 3)
		assert.Equal(t, "3.10.1", meta.Versions[0].Version)
		assert.Equal(t, "4.17.4", meta.Versions[1].Version)
		assert.Equal(t, "4.17.21", meta.Versions[2].Version)

		assert.Equal(t, "use 4.x instead", meta.Versions[0].Deprecated)
		assert.Equal(t, "^4.0.0", meta.Versions[1].PeerDependencies["lodash-es"])
		assert.Equal(t, ">=10", meta.Versions[2].NodeEngine)

		published := meta.Versions[2].PublishedAt
		assert.Equal(t, time.Date(2021, 2, 20, 15, 42, 16, 891000000, time.UTC), published.UTC())

		assert.Equal(t, []string{"jdalton", "mathias"}, meta.Owners)
	})

	t.Run("should report a missing package as not found", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()
		client := registry.NewNPM(server.URL)

		// when
		meta, err := client.FetchMetadata(context.Background(), "no-such-package")

		// then
		assert.Nil(t, meta)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		var fetchErr *domain.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "no-such-package", fetchErr.Name)
	})

	t.Run("should reject an invalid package name without a request", func(t *testing.T) {
		t.Parallel()

		// given
		requested := false
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			requested = true
		}))
		defer server.Close()
		client := registry.NewNPM(server.URL)

		// when
		_, err := client.FetchMetadata(context.Background(), "Not A Valid Name!!")

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidName)
		assert.False(t, requested)
	})

	t.Run("should accept scoped package names", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/@babel%2Fcore", r.URL.EscapedPath())
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name": "@babel/core", "versions": {"7.0.0": {"version": "7.0.0"}}}`))
		}))
		defer server.Close()
		client := registry.NewNPM(server.URL)

		// when
		meta, err := client.FetchMetadata(context.Background(), "@babel/core")

		// then
		require.NoError(t, err)
		require.Len(t, meta.Versions, 1)
		assert.Equal(t, "7.0.0", meta.Versions[0].Version)
	})

	t.Run("should surface server errors wrapped per package", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()
		client := registry.NewNPM(server.URL)

		// when
		_, err := client.FetchMetadata(context.Background(), "lodash")

		// then
		require.Error(t, err)
		var fetchErr *domain.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "lodash", fetchErr.Name)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("should expose the registry variant names", func(t *testing.T) {
		t.Parallel()

		// then
		assert.Equal(t, "npm", registry.NewNPM("").Name())
		assert.Equal(t, "yarn", registry.NewYarn("").Name())
	})
}
