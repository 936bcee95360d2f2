package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/listenupapp/recipes-server/internal/domain"
	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/normalize"
	"github.com/listenupapp/recipes-server/internal/store"
)

// IngredientService manages the caller's ingredients.
type IngredientService struct {
	store  store.Store
	search *SearchService
	logger *slog.Logger
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(store store.Store, search *SearchService, logger *slog.Logger) *IngredientService {
	return &IngredientService{
		store:  store,
		search: search,
		logger: logger,
	}
}

// IngredientRequest is the payload of an ingredient create or update.
// Create requires name and amount; update applies only non-nil fields.
type IngredientRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	UnitOfMeasurement *string          `json:"unit_of_measurement,omitempty" validate:"omitempty,max=50"`
}

func (r *IngredientRequest) normalize() {
	if r.Name != nil {
		n := normalize.Name(*r.Name)
		r.Name = &n
	}
	if r.UnitOfMeasurement != nil {
		u := normalize.Name(*r.UnitOfMeasurement)
		r.UnitOfMeasurement = &u
	}
}

func (r *IngredientRequest) check() error {
	if err := validate.Validate(r); err != nil {
		return err
	}
	if r.Amount != nil {
		return checkDecimal("amount", *r.Amount, true)
	}
	return nil
}

// List returns the owner's ingredients, name descending.
func (s *IngredientService) List(ctx context.Context, ownerID int64, assignedOnly bool) ([]*domain.Ingredient, error) {
	ings, err := s.store.ListIngredients(ctx, domain.IngredientFilter{OwnerID: ownerID, AssignedOnly: assignedOnly})
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ings, nil
}

// Get returns one of the owner's ingredients.
func (s *IngredientService) Get(ctx context.Context, ownerID, id int64) (*domain.Ingredient, error) {
	ing, err := s.store.GetIngredient(ctx, ownerID, id)
	if err != nil {
		return nil, notFoundOr(err, "ingredient not found", "get ingredient")
	}
	return ing, nil
}

// Create adds an ingredient owned by ownerID.
func (s *IngredientService) Create(ctx context.Context, ownerID int64, req IngredientRequest) (*domain.Ingredient, error) {
	req.normalize()
	if req.Name == nil {
		return nil, domainerrors.FieldError("name", "this field is required")
	}
	if req.Amount == nil {
		return nil, domainerrors.FieldError("amount", "this field is required")
	}
	if err := req.check(); err != nil {
		return nil, err
	}

	ing := &domain.Ingredient{
		UserID: ownerID,
		Name:   *req.Name,
		Amount: *req.Amount,
	}
	if req.UnitOfMeasurement != nil {
		ing.UnitOfMeasurement = *req.UnitOfMeasurement
	}

	if err := s.store.CreateIngredient(ctx, ing); err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	return ing, nil
}

// Update applies the supplied fields. A rename reindexes the recipes using it.
func (s *IngredientService) Update(ctx context.Context, ownerID, id int64, req IngredientRequest) (*domain.Ingredient, error) {
	req.normalize()
	if err := req.check(); err != nil {
		return nil, err
	}

	ing, err := s.store.UpdateIngredient(ctx, ownerID, id, domain.IngredientUpdate{
		Name:              req.Name,
		Amount:            req.Amount,
		UnitOfMeasurement: req.UnitOfMeasurement,
	})
	if err != nil {
		return nil, notFoundOr(err, "ingredient not found", "update ingredient")
	}

	if req.Name != nil {
		s.reindexLinked(ctx, id)
	}
	return ing, nil
}

// Delete removes an ingredient. Its recipe links go with it.
func (s *IngredientService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	linked, err := s.store.RecipeIDsByIngredient(ctx, id)
	if err != nil {
		return fmt.Errorf("list recipes using ingredient: %w", err)
	}

	if err := s.store.DeleteIngredient(ctx, ownerID, id); err != nil {
		return notFoundOr(err, "ingredient not found", "delete ingredient")
	}

	s.search.ReindexRecipes(ctx, linked)
	if s.logger != nil {
		s.logger.Info("ingredient deleted", "ingredient_id", id, "user_id", ownerID, "recipes", len(linked))
	}
	return nil
}

func (s *IngredientService) reindexLinked(ctx context.Context, ingredientID int64) {
	if !s.search.Enabled() {
		return
	}
	ids, err := s.store.RecipeIDsByIngredient(ctx, ingredientID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to list recipes for reindex", "ingredient_id", ingredientID, "error", err)
		}
		return
	}
	s.search.ReindexRecipes(ctx, ids)
}
