package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/recipes-server/internal/config"
	"github.com/listenupapp/recipes-server/internal/logger"
	"github.com/listenupapp/recipes-server/internal/media/images"
)

// ImageStorages groups the image storage services.
type ImageStorages struct {
	RecipeImages *images.Storage
}

// ProvideImageStorages provides the recipe image storage.
func ProvideImageStorages(i do.Injector) (*ImageStorages, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	recipes, err := images.NewStorage(cfg.Storage.DataPath)
	if err != nil {
		return nil, fmt.Errorf("recipe image storage: %w", err)
	}

	log.Info("Image storage initialized")

	return &ImageStorages{RecipeImages: recipes}, nil
}

// ProvideImageProcessor provides the image processor for recipe uploads.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storages := do.MustInvoke[*ImageStorages](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(storages.RecipeImages, log.Logger), nil
}
