package api

import (
	"github.com/listenupapp/recipes-server/internal/media/images"
	"github.com/listenupapp/recipes-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	Admin      *service.AdminService
	Tag        *service.TagService
	Ingredient *service.IngredientService
	Recipe     *service.RecipeService
	Search     *service.SearchService
}

// StorageServices groups file storage handlers used by the API server.
type StorageServices struct {
	RecipeImages *images.Storage
}
