package cmd

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/rios0rios0/upgradecheck/application"
	"github.com/rios0rios0/upgradecheck/config"
	"github.com/rios0rios0/upgradecheck/domain"
	registryPkg "github.com/rios0rios0/upgradecheck/infrastructure/registry"
)

// buildContainer wires the configuration, registry variant, and service.
// The registry variant is selected here, once, at configuration time.
func buildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	constructors := []interface{}{
		func() *config.Config { return cfg },
		registryPkg.Default,
		func(c *config.Config, reg *registryPkg.Registry) (domain.MetadataProvider, error) {
			return reg.Get(c.Registry, c.RegistryURL)
		},
		application.NewUpgradeService,
	}

	for _, ctor := range constructors {
		if err := container.Provide(ctor); err != nil {
			return nil, fmt.Errorf("failed to register dependency: %w", err)
		}
	}

	return container, nil
}

func injectUpgradeService(cfg *config.Config) (*application.UpgradeService, error) {
	container, err := buildContainer(cfg)
	if err != nil {
		return nil, err
	}

	var service *application.UpgradeService
	if invokeErr := container.Invoke(func(s *application.UpgradeService) {
		service = s
	}); invokeErr != nil {
		return nil, invokeErr
	}

	return service, nil
}
