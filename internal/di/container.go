// Package di provides dependency injection configuration for the recipes server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/recipes-server/internal/auth"
	"github.com/listenupapp/recipes-server/internal/config"
	"github.com/listenupapp/recipes-server/internal/di/providers"
	"github.com/listenupapp/recipes-server/internal/logger"
	"github.com/listenupapp/recipes-server/internal/media/images"
	"github.com/listenupapp/recipes-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Persistence
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessionRegistry)

	// Storage layer
	do.Provide(injector, providers.ProvideImageStorages)
	do.Provide(injector, providers.ProvideImageProcessor)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideAdminService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideIngredientService)
	do.Provide(injector, providers.ProvideRecipeService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// Providers are lazy, so invoking them here surfaces startup errors early.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SessionRegistryHandle](injector)
	_ = do.MustInvoke[*providers.ImageStorages](injector)
	_ = do.MustInvoke[*images.Processor](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.AdminService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.IngredientService](injector)
	_ = do.MustInvoke[*service.RecipeService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
