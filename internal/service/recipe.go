package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/listenupapp/recipes-server/internal/domain"
	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/media/images"
	"github.com/listenupapp/recipes-server/internal/normalize"
	"github.com/listenupapp/recipes-server/internal/store"
)

// RecipeService manages the caller's recipes, their associations and images.
type RecipeService struct {
	store  store.Store
	images *images.Processor
	search *SearchService
	logger *slog.Logger

	// strictOwnership rejects tags and ingredients owned by other users.
	strictOwnership bool
}

// RecipeServiceOptions configures a RecipeService.
type RecipeServiceOptions struct {
	StrictOwnership bool
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(
	store store.Store,
	images *images.Processor,
	search *SearchService,
	opts RecipeServiceOptions,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:           store,
		images:          images,
		search:          search,
		logger:          logger,
		strictOwnership: opts.StrictOwnership,
	}
}

// RecipeRequest is the payload of a recipe write.
//
// Create and full update require title, time_minutes and price. A partial
// update applies only non-nil fields. Tags and Ingredients replace the
// association when non-nil; a full update treats nil as empty.
type RecipeRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	TimeMinutes *int             `json:"time_minutes,omitempty" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Link        *string          `json:"link,omitempty"`
	Tags        []int64          `json:"tags,omitempty" validate:"omitempty,dive,gt=0"`
	Ingredients []int64          `json:"ingredients,omitempty" validate:"omitempty,dive,gt=0"`
}

type writeMode int

const (
	writeCreate writeMode = iota
	writeReplace
	writePatch
)

// List returns the owner's recipes matching filter, newest first.
func (s *RecipeService) List(ctx context.Context, ownerID int64, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	filter.OwnerID = ownerID
	filter.TagIDs = domain.UniqueIDs(filter.TagIDs)
	filter.IngredientIDs = domain.UniqueIDs(filter.IngredientIDs)
	if err := checkIDCount("tags", filter.TagIDs); err != nil {
		return nil, err
	}
	if err := checkIDCount("ingredients", filter.IngredientIDs); err != nil {
		return nil, err
	}

	recipes, err := s.store.ListRecipes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Get returns one of the owner's recipes with its associations.
func (s *RecipeService) Get(ctx context.Context, ownerID, id int64) (*domain.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, "recipe not found", "get recipe")
	}
	return r, nil
}

// Create adds a recipe owned by ownerID.
func (s *RecipeService) Create(ctx context.Context, ownerID int64, req RecipeRequest) (*domain.Recipe, error) {
	w, err := s.prepare(ctx, ownerID, req, writeCreate)
	if err != nil {
		return nil, err
	}

	r, err := s.store.CreateRecipe(ctx, ownerID, w)
	if err != nil {
		return nil, s.writeError(err, "create recipe")
	}

	s.search.IndexRecipe(ctx, r)
	if s.logger != nil {
		s.logger.Info("recipe created", "recipe_id", r.ID, "user_id", ownerID)
	}
	return r, nil
}

// Replace performs a full update. Omitted associations are cleared and an
// omitted link becomes empty.
func (s *RecipeService) Replace(ctx context.Context, ownerID, id int64, req RecipeRequest) (*domain.Recipe, error) {
	return s.update(ctx, ownerID, id, req, writeReplace)
}

// Patch performs a partial update. Omitted fields and associations are kept.
func (s *RecipeService) Patch(ctx context.Context, ownerID, id int64, req RecipeRequest) (*domain.Recipe, error) {
	return s.update(ctx, ownerID, id, req, writePatch)
}

func (s *RecipeService) update(ctx context.Context, ownerID, id int64, req RecipeRequest, mode writeMode) (*domain.Recipe, error) {
	w, err := s.prepare(ctx, ownerID, req, mode)
	if err != nil {
		return nil, err
	}

	r, err := s.store.UpdateRecipe(ctx, ownerID, id, w)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, s.writeError(err, "update recipe")
	}

	s.search.IndexRecipe(ctx, r)
	return r, nil
}

// Delete removes a recipe together with its stored image.
func (s *RecipeService) Delete(ctx context.Context, ownerID, id int64) error {
	image, err := s.store.DeleteRecipe(ctx, ownerID, id)
	if err != nil {
		return notFoundOr(err, "recipe not found", "delete recipe")
	}

	s.images.Remove(image)
	s.search.RemoveRecipe(ctx, id)
	if s.logger != nil {
		s.logger.Info("recipe deleted", "recipe_id", id, "user_id", ownerID)
	}
	return nil
}

// UploadImage validates data as an image and makes it the recipe's image.
// Nothing changes when the recipe is missing or data is not an image. The
// replaced file is removed only after the new reference is committed.
func (s *RecipeService) UploadImage(ctx context.Context, ownerID, id int64, data []byte) (*domain.Recipe, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}

	img, err := s.images.Store(data)
	if err != nil {
		if errors.Is(err, images.ErrNotImage) || errors.Is(err, images.ErrTooLarge) {
			return nil, domainerrors.FieldError("image", err.Error())
		}
		return nil, fmt.Errorf("store image: %w", err)
	}

	previous, err := s.store.SetRecipeImage(ctx, ownerID, id, *img)
	if err != nil {
		s.images.Remove(img.FileName)
		return nil, notFoundOr(err, "recipe not found", "set recipe image")
	}
	if previous != "" && previous != img.FileName {
		s.images.Remove(previous)
	}

	if s.logger != nil {
		s.logger.Info("recipe image replaced",
			"recipe_id", id,
			"user_id", ownerID,
			"image", img.FileName,
			"previous", previous,
		)
	}

	return s.Get(ctx, ownerID, id)
}

// prepare validates req for mode and resolves its association IDs.
// It runs before any write so a rejected request changes nothing.
func (s *RecipeService) prepare(ctx context.Context, ownerID int64, req RecipeRequest, mode writeMode) (domain.RecipeWrite, error) {
	if req.Title != nil {
		t := normalize.Name(*req.Title)
		req.Title = &t
	}

	if mode != writePatch {
		missing := map[string]string{}
		if req.Title == nil {
			missing["title"] = "this field is required"
		}
		if req.TimeMinutes == nil {
			missing["time_minutes"] = "this field is required"
		}
		if req.Price == nil {
			missing["price"] = "this field is required"
		}
		if len(missing) > 0 {
			return domain.RecipeWrite{}, domainerrors.ValidationWithDetails(missingMessage(missing), missing)
		}
	}

	if err := validate.Validate(req); err != nil {
		return domain.RecipeWrite{}, err
	}
	if req.Price != nil {
		if err := checkDecimal("price", *req.Price, false); err != nil {
			return domain.RecipeWrite{}, err
		}
	}
	if err := checkLink(req.Link); err != nil {
		return domain.RecipeWrite{}, err
	}

	w := domain.RecipeWrite{
		Title:         req.Title,
		TimeMinutes:   req.TimeMinutes,
		Price:         req.Price,
		Link:          req.Link,
		TagIDs:        domain.UniqueIDs(req.Tags),
		IngredientIDs: domain.UniqueIDs(req.Ingredients),
	}

	if mode == writeReplace {
		if w.Link == nil {
			empty := ""
			w.Link = &empty
		}
		if w.TagIDs == nil {
			w.TagIDs = []int64{}
		}
		if w.IngredientIDs == nil {
			w.IngredientIDs = []int64{}
		}
	}

	if err := checkIDCount("tags", w.TagIDs); err != nil {
		return domain.RecipeWrite{}, err
	}
	if err := checkIDCount("ingredients", w.IngredientIDs); err != nil {
		return domain.RecipeWrite{}, err
	}

	if err := s.checkReferences(ctx, ownerID, "tags", w.TagIDs, s.store.TagOwners); err != nil {
		return domain.RecipeWrite{}, err
	}
	if err := s.checkReferences(ctx, ownerID, "ingredients", w.IngredientIDs, s.store.IngredientOwners); err != nil {
		return domain.RecipeWrite{}, err
	}

	return w, nil
}

type ownerLookup func(ctx context.Context, ids []int64) (map[int64]int64, error)

// checkReferences rejects IDs that do not exist and, under strict ownership,
// IDs owned by another user. Both fail with the same message so foreign
// IDs cannot be told apart from missing ones.
func (s *RecipeService) checkReferences(ctx context.Context, ownerID int64, field string, ids []int64, lookup ownerLookup) error {
	if len(ids) == 0 {
		return nil
	}

	owners, err := lookup(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", field, err)
	}

	for _, id := range ids {
		owner, ok := owners[id]
		if !ok || (s.strictOwnership && owner != ownerID) {
			return domainerrors.FieldError(field, fmt.Sprintf("invalid pk %q - object does not exist", fmt.Sprint(id)))
		}
	}
	return nil
}

// writeError maps store write failures. A reference that vanished between
// validation and the write surfaces as a validation error.
func (s *RecipeService) writeError(err error, op string) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return domainerrors.Validation("a referenced tag or ingredient no longer exists").WithCause(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func missingMessage(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	msg := ""
	for i, k := range keys {
		if i > 0 {
			msg += "; "
		}
		msg += k + ": " + fields[k]
	}
	return msg
}
