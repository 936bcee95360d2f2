package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/recipes-server/internal/auth"
	"github.com/listenupapp/recipes-server/internal/config"
	"github.com/listenupapp/recipes-server/internal/logger"
	"github.com/listenupapp/recipes-server/internal/media/images"
	"github.com/listenupapp/recipes-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	registry := do.MustInvoke[*SessionRegistryHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(registry.Sessions, tokenService, log.Logger), nil
}

// ProvideAuthService provides the registration and login service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, sessionService, log.Logger), nil
}

// ProvideAdminService provides the user administration service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, sessionService, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, searchService, log.Logger), nil
}

// ProvideIngredientService provides the ingredient service.
func ProvideIngredientService(i do.Injector) (*service.IngredientService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIngredientService(storeHandle.Store, searchService, log.Logger), nil
}

// ProvideRecipeService provides the recipe service.
func ProvideRecipeService(i do.Injector) (*service.RecipeService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	processor := do.MustInvoke[*images.Processor](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecipeService(
		storeHandle.Store,
		processor,
		searchService,
		service.RecipeServiceOptions{StrictOwnership: cfg.Recipes.StrictOwnership},
		log.Logger,
	), nil
}
