package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/recipes-server/internal/config"
	"github.com/listenupapp/recipes-server/internal/logger"
	"github.com/listenupapp/recipes-server/internal/search"
	"github.com/listenupapp/recipes-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// RecipeIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.RecipeIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.RecipeIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve recipe index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Recipe search disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewRecipeIndex(search.Options{
		DataPath: cfg.Storage.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{RecipeIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.RecipeIndex, storeHandle.Store, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// is empty but recipes exist. Call it after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !searchService.Enabled() {
		return
	}

	go func() {
		if err := searchService.RebuildIfEmpty(context.Background()); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := searchService.DocumentCount()
		log.Info("Search index ready", "documents", count)
	}()
}
