package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/normalize"
	"github.com/listenupapp/recipes-server/internal/store"
)

// TagService manages the caller's tags.
type TagService struct {
	store  store.Store
	search *SearchService
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, search *SearchService, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		search: search,
		logger: logger,
	}
}

// TagRequest is the payload of a tag create or rename.
type TagRequest struct {
	Name string `json:"name" validate:"notblank,max=255"`
}

// List returns the owner's tags, name descending.
func (s *TagService) List(ctx context.Context, ownerID int64, assignedOnly bool) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, domain.TagFilter{OwnerID: ownerID, AssignedOnly: assignedOnly})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Get returns one of the owner's tags.
func (s *TagService) Get(ctx context.Context, ownerID, id int64) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, "tag not found", "get tag")
	}
	return tag, nil
}

// Create adds a tag owned by ownerID.
func (s *TagService) Create(ctx context.Context, ownerID int64, req TagRequest) (*domain.Tag, error) {
	req.Name = normalize.Name(req.Name)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tag := &domain.Tag{UserID: ownerID, Name: req.Name}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// Rename changes a tag's name and reindexes the recipes carrying it.
func (s *TagService) Rename(ctx context.Context, ownerID, id int64, req TagRequest) (*domain.Tag, error) {
	req.Name = normalize.Name(req.Name)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tag, err := s.store.RenameTag(ctx, ownerID, id, req.Name)
	if err != nil {
		return nil, notFoundOr(err, "tag not found", "rename tag")
	}

	s.reindexLinked(ctx, id)
	return tag, nil
}

// Delete removes a tag. Its recipe links go with it.
func (s *TagService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	// Collect linked recipes first; the links cascade away with the tag.
	linked, err := s.store.RecipeIDsByTag(ctx, id)
	if err != nil {
		return fmt.Errorf("list tagged recipes: %w", err)
	}

	if err := s.store.DeleteTag(ctx, ownerID, id); err != nil {
		return notFoundOr(err, "tag not found", "delete tag")
	}

	s.search.ReindexRecipes(ctx, linked)
	if s.logger != nil {
		s.logger.Info("tag deleted", "tag_id", id, "user_id", ownerID, "recipes", len(linked))
	}
	return nil
}

func (s *TagService) reindexLinked(ctx context.Context, tagID int64) {
	if !s.search.Enabled() {
		return
	}
	ids, err := s.store.RecipeIDsByTag(ctx, tagID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to list tagged recipes for reindex", "tag_id", tagID, "error", err)
		}
		return
	}
	s.search.ReindexRecipes(ctx, ids)
}
