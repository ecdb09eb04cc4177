package registry

import (
	"sync"

	"github.com/rios0rios0/upgradecheck/domain"
)

// Cache memoizes fetched metadata for the lifetime of one resolution run.
// It is an explicit object passed into the pool; nothing is shared across
// runs.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*domain.RegistryMetadata
}

// NewCache creates an empty run-scoped cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*domain.RegistryMetadata),
	}
}

// Get returns the cached metadata for a name, if present.
func (c *Cache) Get(name string) (*domain.RegistryMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.entries[name]
	return meta, ok
}

// Put stores metadata for a name.
func (c *Cache) Put(name string, meta *domain.RegistryMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = meta
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
