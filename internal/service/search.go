package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listenupapp/recipes-server/internal/domain"
	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/search"
	"github.com/listenupapp/recipes-server/internal/store"
)

// SearchService keeps the recipe index in step with the store and runs
// owner-scoped queries. A nil index disables search; index maintenance
// then becomes a no-op and queries fail as unavailable.
type SearchService struct {
	index  *search.RecipeIndex
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.RecipeIndex, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Enabled reports whether a search index is configured.
func (s *SearchService) Enabled() bool {
	return s != nil && s.index != nil
}

// SearchRequest is a free-text recipe query.
type SearchRequest struct {
	Query  string `json:"q" validate:"notblank,max=200"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
	Offset int    `json:"offset" validate:"gte=0"`
}

// SearchResult is a page of hydrated recipes in relevance order.
type SearchResult struct {
	Total   uint64
	Recipes []*domain.Recipe
}

// SearchRecipes runs req against ownerID's recipes. Hits that no longer
// exist in the store are dropped.
func (s *SearchService) SearchRecipes(ctx context.Context, ownerID int64, req SearchRequest) (*SearchResult, error) {
	if !s.Enabled() {
		return nil, domainerrors.Unavailable("search is disabled on this server")
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	res, err := s.index.Search(ctx, search.SearchParams{
		OwnerID: ownerID,
		Query:   req.Query,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}

	recipes, err := s.store.GetRecipesByIDs(ctx, ownerID, res.RecipeIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate search hits: %w", err)
	}

	return &SearchResult{Total: res.Total, Recipes: recipes}, nil
}

// IndexRecipe indexes a single recipe. Failures are logged, never returned:
// the store is the source of truth and a rebuild repairs the index.
func (s *SearchService) IndexRecipe(_ context.Context, r *domain.Recipe) {
	if !s.Enabled() || r == nil {
		return
	}
	if err := s.index.IndexRecipe(search.NewRecipeDocument(r)); err != nil {
		s.warn("failed to index recipe", "recipe_id", r.ID, "error", err)
	}
}

// RemoveRecipe drops a recipe from the index.
func (s *SearchService) RemoveRecipe(_ context.Context, recipeID int64) {
	if !s.Enabled() {
		return
	}
	if err := s.index.DeleteRecipe(recipeID); err != nil {
		s.warn("failed to remove recipe from index", "recipe_id", recipeID, "error", err)
	}
}

// ReindexRecipes reloads and reindexes the given recipes, whoever owns them.
// Used after a tag or ingredient is renamed or deleted.
func (s *SearchService) ReindexRecipes(ctx context.Context, recipeIDs []int64) {
	if !s.Enabled() || len(recipeIDs) == 0 {
		return
	}

	recipes, err := s.store.ListRecipesByIDs(ctx, recipeIDs)
	if err != nil {
		s.warn("failed to load recipes for reindex", "count", len(recipeIDs), "error", err)
		return
	}
	if err := s.index.IndexRecipes(documents(recipes)); err != nil {
		s.warn("failed to reindex recipes", "count", len(recipes), "error", err)
	}
}

// DocumentCount returns the number of indexed recipes, zero when disabled.
func (s *SearchService) DocumentCount() (uint64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	return s.index.DocumentCount()
}

// Rebuild recreates the index from every recipe in the store.
func (s *SearchService) Rebuild(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	recipes, err := s.store.ListAllRecipes(ctx)
	if err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}
	if err := s.index.IndexRecipes(documents(recipes)); err != nil {
		return fmt.Errorf("index recipes: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("search index rebuilt", "recipes", len(recipes))
	}
	return nil
}

// RebuildIfEmpty rebuilds when the index holds no documents but the store has
// recipes, as after a mapping upgrade or a deleted index directory.
func (s *SearchService) RebuildIfEmpty(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	indexed, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if indexed > 0 {
		return nil
	}
	stored, err := s.store.CountRecipes(ctx)
	if err != nil {
		return fmt.Errorf("count recipes: %w", err)
	}
	if stored == 0 {
		return nil
	}
	return s.Rebuild(ctx)
}

func (s *SearchService) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func documents(recipes []*domain.Recipe) []*search.RecipeDocument {
	docs := make([]*search.RecipeDocument, 0, len(recipes))
	for _, r := range recipes {
		docs = append(docs, search.NewRecipeDocument(r))
	}
	return docs
}
