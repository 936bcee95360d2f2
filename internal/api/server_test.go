package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/recipes-server/internal/auth"
	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/http/response"
	"github.com/listenupapp/recipes-server/internal/logger"
	"github.com/listenupapp/recipes-server/internal/media/images"
	"github.com/listenupapp/recipes-server/internal/search"
	"github.com/listenupapp/recipes-server/internal/service"
	"github.com/listenupapp/recipes-server/internal/store/kv"
	"github.com/listenupapp/recipes-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int               `json:"v"`
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api   humatest.TestAPI
	dir   string
	store *sqlite.Store
}

type testServerOptions struct {
	lenientOwnership bool
	noSearch         bool
	authRateLimit    int
	authRateBurst    int
}

// setupTestServer creates a server backed by temporary sqlite, badger and bleve stores.
func setupTestServer(t *testing.T, opts ...testServerOptions) *testServer {
	t.Helper()
	var o testServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.authRateLimit == 0 {
		o.authRateLimit = 1000
		o.authRateBurst = 1000
	}

	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "recipes.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	registry, err := kv.Open(filepath.Join(dir, "sessions"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	var index *search.RecipeIndex
	if !o.noSearch {
		index, err = search.NewRecipeIndex(search.Options{DataPath: dir})
		require.NoError(t, err)
		t.Cleanup(func() { _ = index.Close() })
	}

	storage, err := images.NewStorage(dir)
	require.NoError(t, err)

	log := logger.Discard()
	sessions := service.NewSessionService(registry, tokens, log.Logger)
	searchService := service.NewSearchService(index, st, log.Logger)
	services := &Services{
		Auth:       service.NewAuthService(st, sessions, log.Logger),
		Admin:      service.NewAdminService(st, sessions, log.Logger),
		Tag:        service.NewTagService(st, searchService, log.Logger),
		Ingredient: service.NewIngredientService(st, searchService, log.Logger),
		Recipe: service.NewRecipeService(st, images.NewProcessor(storage, log.Logger), searchService,
			service.RecipeServiceOptions{StrictOwnership: !o.lenientOwnership}, log.Logger),
		Search: searchService,
	}

	srv := NewServer(st, services, &StorageServices{RecipeImages: storage}, Options{
		Name:          "Recipes API Test",
		AuthRateLimit: o.authRateLimit,
		AuthRateBurst: o.authRateBurst,
	}, log)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.API()),
		dir:    dir,
		store:  st,
	}
}

// decode unmarshals a response body into a typed envelope.
func decode[T any](t *testing.T, resp interface{ Bytes() []byte }) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Bytes(), &env), "body: %s", resp.Bytes())
	return env
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// register creates an account and returns its user ID and a fresh token.
func (ts *testServer) register(t *testing.T, email string) (int64, string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/users", map[string]any{
		"email":    email,
		"password": "testpass123",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "register failed: %s", resp.Body.String())
	user := decode[UserResponse](t, resp.Body)

	return user.Data.ID, ts.login(t, email, "testpass123")
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/users/token", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.Code, "token failed: %s", resp.Body.String())
	return decode[TokenResponse](t, resp.Body).Data.Token
}

// staff registers a user and grants staff rights directly in the store.
func (ts *testServer) staff(t *testing.T, email string) (int64, string) {
	t.Helper()
	id, token := ts.register(t, email)
	staff := true
	_, err := ts.store.UpdateUser(t.Context(), id, domain.UserUpdate{IsStaff: &staff})
	require.NoError(t, err)
	return id, token
}

func (ts *testServer) createTag(t *testing.T, token, name string) TagResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/tags", bearer(token), map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, "create tag failed: %s", resp.Body.String())
	return decode[TagResponse](t, resp.Body).Data
}

func (ts *testServer) createIngredient(t *testing.T, token, name string) IngredientResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/ingredients", bearer(token), map[string]any{"name": name, "amount": "1.00"})
	require.Equal(t, http.StatusCreated, resp.Code, "create ingredient failed: %s", resp.Body.String())
	return decode[IngredientResponse](t, resp.Body).Data
}

func (ts *testServer) createRecipe(t *testing.T, token string, body map[string]any) RecipeResponse {
	t.Helper()
	if _, ok := body["time_minutes"]; !ok {
		body["time_minutes"] = 10
	}
	if _, ok := body["price"]; !ok {
		body["price"] = "5.00"
	}
	resp := ts.api.Post("/api/v1/recipes", bearer(token), body)
	require.Equal(t, http.StatusCreated, resp.Code, "create recipe failed: %s", resp.Body.String())
	return decode[RecipeResponse](t, resp.Body).Data
}

func TestServer_UnknownRouteUsesEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/nothing-here")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[any](t, resp.Body)
	assert.Equal(t, response.Version, env.Version)
	assert.False(t, env.Success)
	assert.Equal(t, "not found", env.Error)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.register(t, "me@example.com")

	resp := ts.api.Post("/api/v1/users/me", bearer(token), map[string]any{})

	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	env := decode[any](t, resp.Body)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "POST")
}

func TestServer_OpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/openapi.json")

	require.Equal(t, http.StatusOK, resp.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/v1/recipes/{id}")
	assert.Contains(t, paths, "/api/v1/recipes/search")
}
