package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/service"
)

func (s *Server) registerIngredientRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listIngredients",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients",
		Summary:     "List ingredients",
		Description: "Returns the current user's ingredients, name descending",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListIngredients)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createIngredient",
		Method:        http.MethodPost,
		Path:          "/api/v1/ingredients",
		Summary:       "Create ingredient",
		Tags:          []string{"Ingredients"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIngredient",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Get ingredient",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIngredient",
		Method:      http.MethodPatch,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Update ingredient",
		Description: "Applies the supplied fields only",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteIngredient",
		Method:        http.MethodDelete,
		Path:          "/api/v1/ingredients/{id}",
		Summary:       "Delete ingredient",
		Tags:          []string{"Ingredients"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteIngredient)
}

// === DTOs ===

// ListIngredientsInput contains parameters for listing ingredients.
type ListIngredientsInput struct {
	Authorization string `header:"Authorization"`
	AssignedOnly  bool   `query:"assigned_only" doc:"Only ingredients linked to at least one recipe"`
}

// IngredientResponse contains ingredient data in API responses.
type IngredientResponse struct {
	ID                int64  `json:"id" doc:"Ingredient ID"`
	Name              string `json:"name" doc:"Ingredient name"`
	Amount            string `json:"amount" doc:"Amount with two decimals" example:"1.50"`
	UnitOfMeasurement string `json:"unit_of_measurement" doc:"Unit, may be empty"`
}

// ListIngredientsResponse contains a list of ingredients.
type ListIngredientsResponse struct {
	Ingredients []IngredientResponse `json:"ingredients" doc:"List of ingredients"`
}

// ListIngredientsOutput wraps the list response for Huma.
type ListIngredientsOutput struct {
	Body ListIngredientsResponse
}

// IngredientRequest is the request body for creating or updating an ingredient.
type IngredientRequest struct {
	Name              *string  `json:"name,omitempty" doc:"Ingredient name"`
	Amount            *Decimal `json:"amount,omitempty" doc:"Amount greater than zero"`
	UnitOfMeasurement *string  `json:"unit_of_measurement,omitempty" doc:"Unit of measurement"`
}

func (r IngredientRequest) toService() service.IngredientRequest {
	return service.IngredientRequest{
		Name:              r.Name,
		Amount:            decimalPtr(r.Amount),
		UnitOfMeasurement: r.UnitOfMeasurement,
	}
}

// CreateIngredientInput wraps the create request for Huma.
type CreateIngredientInput struct {
	Authorization string `header:"Authorization"`
	Body          IngredientRequest
}

// IngredientIDInput addresses a single ingredient.
type IngredientIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Ingredient ID"`
}

// UpdateIngredientInput wraps the update request for Huma.
type UpdateIngredientInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Ingredient ID"`
	Body          IngredientRequest
}

// IngredientOutput wraps the ingredient response for Huma.
type IngredientOutput struct {
	Body IngredientResponse
}

func toIngredientResponse(i *domain.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:                i.ID,
		Name:              i.Name,
		Amount:            formatDecimal(i.Amount),
		UnitOfMeasurement: i.UnitOfMeasurement,
	}
}

// === Handlers ===

func (s *Server) handleListIngredients(ctx context.Context, input *ListIngredientsInput) (*ListIngredientsOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ings, err := s.services.Ingredient.List(ctx, p.UserID(), input.AssignedOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]IngredientResponse, 0, len(ings))
	for _, i := range ings {
		resp = append(resp, toIngredientResponse(i))
	}
	return &ListIngredientsOutput{Body: ListIngredientsResponse{Ingredients: resp}}, nil
}

func (s *Server) handleCreateIngredient(ctx context.Context, input *CreateIngredientInput) (*IngredientOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.Create(ctx, p.UserID(), input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &IngredientOutput{Body: toIngredientResponse(ing)}, nil
}

func (s *Server) handleGetIngredient(ctx context.Context, input *IngredientIDInput) (*IngredientOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.Get(ctx, p.UserID(), input.ID)
	if err != nil {
		return nil, err
	}
	return &IngredientOutput{Body: toIngredientResponse(ing)}, nil
}

func (s *Server) handleUpdateIngredient(ctx context.Context, input *UpdateIngredientInput) (*IngredientOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.Update(ctx, p.UserID(), input.ID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &IngredientOutput{Body: toIngredientResponse(ing)}, nil
}

func (s *Server) handleDeleteIngredient(ctx context.Context, input *IngredientIDInput) (*struct{}, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Ingredient.Delete(ctx, p.UserID(), input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
