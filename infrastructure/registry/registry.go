// Package registry provides metadata providers for npm-protocol package
// registries and the bounded-concurrency pool that drives them.
package registry

import (
	"fmt"

	"github.com/rios0rios0/upgradecheck/domain"
)

// Factory is a constructor that creates a MetadataProvider for a base URL.
// An empty baseURL selects the variant's default registry.
type Factory func(baseURL string) domain.MetadataProvider

// Registry manages the registered package-registry variants. A variant is
// selected once at configuration time; the resolution engine never branches
// on it again.
type Registry struct {
	providers map[string]Factory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Factory),
	}
}

// Register adds a provider factory under the given name (e.g. "npm").
func (r *Registry) Register(name string, factory Factory) {
	r.providers[name] = factory
}

// Get returns a configured provider instance for the given name and base URL.
func (r *Registry) Get(name, baseURL string) (domain.MetadataProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown registry type: %q", name)
	}
	return factory(baseURL), nil
}

// Names returns the list of registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Default returns a registry with all built-in variants registered.
func Default() *Registry {
	reg := NewRegistry()
	reg.Register("npm", NewNPM)
	reg.Register("yarn", NewYarn)
	return reg
}
