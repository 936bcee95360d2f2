package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/recipes-server/internal/domain"
	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/http/response"
	"github.com/listenupapp/recipes-server/internal/media/images"
	"github.com/listenupapp/recipes-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the current user's recipes, newest first. Filter with comma-separated tag and ingredient IDs.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipes",
		Summary:       "Create recipe",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/search",
		Summary:     "Search recipes",
		Description: "Full-text search over the current user's recipe titles, tags and ingredients",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe with nested tags and ingredients",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Full update. Omitted tags or ingredients are cleared.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Partial update. Only supplied fields change.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePatchRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          "/api/v1/recipes/{id}",
		Summary:       "Delete recipe",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)
}

// === DTOs ===

// RecipeResponse is the list shape of a recipe. Associations are IDs.
type RecipeResponse struct {
	ID          int64   `json:"id" doc:"Recipe ID"`
	Title       string  `json:"title" doc:"Title"`
	TimeMinutes int     `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       string  `json:"price" doc:"Price with two decimals" example:"5.50"`
	Link        string  `json:"link" doc:"External link, may be empty"`
	Image       string  `json:"image,omitempty" doc:"Public image URL"`
	Tags        []int64 `json:"tags" doc:"Tag IDs"`
	Ingredients []int64 `json:"ingredients" doc:"Ingredient IDs"`
}

// RecipeDetailResponse is the detail shape of a recipe with nested associations.
type RecipeDetailResponse struct {
	ID            int64                `json:"id" doc:"Recipe ID"`
	Title         string               `json:"title" doc:"Title"`
	TimeMinutes   int                  `json:"time_minutes" doc:"Preparation time in minutes"`
	Price         string               `json:"price" doc:"Price with two decimals"`
	Link          string               `json:"link" doc:"External link, may be empty"`
	Image         string               `json:"image,omitempty" doc:"Public image URL"`
	ImageBlurHash string               `json:"image_blurhash,omitempty" doc:"BlurHash placeholder of the image"`
	Tags          []TagResponse        `json:"tags" doc:"Tags"`
	Ingredients   []IngredientResponse `json:"ingredients" doc:"Ingredients"`
}

// ListRecipesInput contains parameters for listing recipes.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" doc:"Comma-separated tag IDs" example:"1,2"`
	Ingredients   string `query:"ingredients" doc:"Comma-separated ingredient IDs" example:"3"`
}

// ListRecipesResponse contains a list of recipes.
type ListRecipesResponse struct {
	Recipes []RecipeResponse `json:"recipes" doc:"List of recipes"`
}

// ListRecipesOutput wraps the list response for Huma.
type ListRecipesOutput struct {
	Body ListRecipesResponse
}

// RecipeRequest is the request body of a recipe write.
// An owner sent by the client is ignored.
type RecipeRequest struct {
	_           struct{} `json:"-" additionalProperties:"true"`
	Title       *string  `json:"title,omitempty" doc:"Title"`
	TimeMinutes *int     `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Price       *Decimal `json:"price,omitempty" doc:"Price with at most two decimals"`
	Link        *string  `json:"link,omitempty" doc:"External link"`
	Tags        []int64  `json:"tags,omitempty" maxItems:"1000" doc:"Tag IDs, replacing the current set"`
	Ingredients []int64  `json:"ingredients,omitempty" maxItems:"1000" doc:"Ingredient IDs, replacing the current set"`
}

func (r RecipeRequest) toService() service.RecipeRequest {
	return service.RecipeRequest{
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       decimalPtr(r.Price),
		Link:        r.Link,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          RecipeRequest
}

// RecipeIDInput addresses a single recipe.
type RecipeIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeInput wraps a PUT or PATCH request for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
	Body          RecipeRequest
}

// RecipeOutput wraps the list-shape recipe response for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// RecipeDetailOutput wraps the detail recipe response for Huma.
type RecipeDetailOutput struct {
	Body RecipeDetailResponse
}

// SearchRecipesInput contains parameters for a recipe search.
type SearchRecipesInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" doc:"Search query"`
	Limit         int    `query:"limit" default:"20" doc:"Maximum results (max 100)"`
	Offset        int    `query:"offset" doc:"Results to skip"`
}

// SearchRecipesResponse contains a page of search hits.
type SearchRecipesResponse struct {
	Total   uint64           `json:"total" doc:"Total matching recipes"`
	Recipes []RecipeResponse `json:"recipes" doc:"Recipes in relevance order"`
}

// SearchRecipesOutput wraps the search response for Huma.
type SearchRecipesOutput struct {
	Body SearchRecipesResponse
}

// RecipeImageResponse is returned after an image upload.
type RecipeImageResponse struct {
	ID    int64  `json:"id" doc:"Recipe ID"`
	Image string `json:"image" doc:"Public URL of the stored image"`
}

func imageURL(name string) string {
	if name == "" {
		return ""
	}
	return MediaPathPrefix + name
}

func toRecipeResponse(r *domain.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       formatDecimal(r.Price),
		Link:        r.Link,
		Image:       imageURL(r.Image),
		Tags:        r.TagIDs(),
		Ingredients: r.IngredientIDs(),
	}
}

func toRecipeResponses(recipes []*domain.Recipe) []RecipeResponse {
	resp := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		resp = append(resp, toRecipeResponse(r))
	}
	return resp
}

func toRecipeDetailResponse(r *domain.Recipe) RecipeDetailResponse {
	tags := make([]TagResponse, 0, len(r.Tags))
	for i := range r.Tags {
		tags = append(tags, toTagResponse(&r.Tags[i]))
	}
	ings := make([]IngredientResponse, 0, len(r.Ingredients))
	for i := range r.Ingredients {
		ings = append(ings, toIngredientResponse(&r.Ingredients[i]))
	}
	return RecipeDetailResponse{
		ID:            r.ID,
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		Price:         formatDecimal(r.Price),
		Link:          r.Link,
		Image:         imageURL(r.Image),
		ImageBlurHash: r.ImageBlurHash,
		Tags:          tags,
		Ingredients:   ings,
	}
}

// parseFilterParam parses a comma-separated ID filter, naming param on failure.
func parseFilterParam(param, raw string) ([]int64, error) {
	ids, err := domain.ParseIDList(raw)
	if err != nil {
		return nil, domainerrors.FieldError(param, err.Error())
	}
	return ids, nil
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tagIDs, err := parseFilterParam("tags", input.Tags)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := parseFilterParam("ingredients", input.Ingredients)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.List(ctx, p.UserID(), domain.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return nil, err
	}
	return &ListRecipesOutput{Body: ListRecipesResponse{Recipes: toRecipeResponses(recipes)}}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, p.UserID(), input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &RecipeOutput{Body: toRecipeResponse(recipe)}, nil
}

func (s *Server) handleSearchRecipes(ctx context.Context, input *SearchRecipesInput) (*SearchRecipesOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Search.SearchRecipes(ctx, p.UserID(), service.SearchRequest{
		Query:  input.Query,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &SearchRecipesOutput{Body: SearchRecipesResponse{
		Total:   result.Total,
		Recipes: toRecipeResponses(result.Recipes),
	}}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeDetailOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Get(ctx, p.UserID(), input.ID)
	if err != nil {
		return nil, err
	}
	return &RecipeDetailOutput{Body: toRecipeDetailResponse(recipe)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Replace(ctx, p.UserID(), input.ID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &RecipeOutput{Body: toRecipeResponse(recipe)}, nil
}

func (s *Server) handlePatchRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Patch(ctx, p.UserID(), input.ID, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &RecipeOutput{Body: toRecipeResponse(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*struct{}, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.Delete(ctx, p.UserID(), input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

// handleUploadRecipeImage stores a new image for a recipe.
// POST /api/v1/recipes/{id}/image
// Content-Type: multipart/form-data with "image" field
func (s *Server) handleUploadRecipeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := s.authenticateRequest(ctx, r.Header.Get("Authorization"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	recipeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || recipeID <= 0 {
		response.NotFound(w, "recipe not found", s.logger)
		return
	}

	// Leave headroom for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, images.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(images.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.HandleError(w, domainerrors.FieldError("image", images.ErrTooLarge.Error()), s.logger)
			return
		}
		response.HandleError(w, domainerrors.FieldError("image", "the submitted data was not a file"), s.logger)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, _, err := r.FormFile("image")
	if err != nil {
		response.HandleError(w, domainerrors.FieldError("image", "no file was submitted"), s.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, images.MaxUploadSize+1))
	if err != nil {
		s.logger.Error("Failed to read uploaded image", "error", err, "recipe_id", recipeID)
		response.HandleError(w, err, s.logger)
		return
	}

	recipe, err := s.services.Recipe.UploadImage(ctx, p.UserID(), recipeID, data)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, RecipeImageResponse{ID: recipe.ID, Image: imageURL(recipe.Image)}, s.logger)
}

// handleServeRecipeImage serves a stored recipe image by file name.
// GET /media/recipe/{file}
func (s *Server) handleServeRecipeImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")

	data, err := s.storage.RecipeImages.Get(name)
	if err != nil {
		response.NotFound(w, "image not found", s.logger)
		return
	}

	etag, err := s.storage.RecipeImages.Hash(name)
	if err == nil {
		w.Header().Set("ETag", `"`+etag+`"`)
	}
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Cache-Control", CacheImmutable)

	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}
