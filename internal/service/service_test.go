package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/recipes-server/internal/auth"
	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/media/images"
	"github.com/listenupapp/recipes-server/internal/search"
	"github.com/listenupapp/recipes-server/internal/store/kv"
	"github.com/listenupapp/recipes-server/internal/store/sqlite"
)

type testEnv struct {
	dir         string
	store       *sqlite.Store
	sessions    *SessionService
	images      *images.Processor
	search      *SearchService
	auth        *AuthService
	admin       *AdminService
	tags        *TagService
	ingredients *IngredientService
	recipes     *RecipeService
}

type envOptions struct {
	lenientOwnership bool
	noSearch         bool
}

func newTestEnv(t *testing.T, opts ...envOptions) *testEnv {
	t.Helper()
	var o envOptions
	if len(opts) > 0 {
		o = opts[0]
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

	env := &testEnv{dir: dir, store: st}
	env.sessions = NewSessionService(registry, tokens, nil)
	env.images = images.NewProcessor(storage, nil)
	env.search = NewSearchService(index, st, nil)
	env.auth = NewAuthService(st, env.sessions, nil)
	env.admin = NewAdminService(st, env.sessions, nil)
	env.tags = NewTagService(st, env.search, nil)
	env.ingredients = NewIngredientService(st, env.search, nil)
	env.recipes = NewRecipeService(st, env.images, env.search,
		RecipeServiceOptions{StrictOwnership: !o.lenientOwnership}, nil)
	return env
}

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// register creates a user and returns a principal for it.
func (e *testEnv) register(t *testing.T, email string) *Principal {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "testpass123",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return &Principal{User: user}
}

func (e *testEnv) staff(t *testing.T, email string) *Principal {
	t.Helper()
	p := e.register(t, email)
	user, err := e.store.UpdateUser(context.Background(), p.UserID(), domain.UserUpdate{IsStaff: ptr(true)})
	require.NoError(t, err)
	return &Principal{User: user}
}

func (e *testEnv) tag(t *testing.T, owner int64, name string) *domain.Tag {
	t.Helper()
	tag, err := e.tags.Create(context.Background(), owner, TagRequest{Name: name})
	require.NoError(t, err)
	return tag
}

func (e *testEnv) ingredient(t *testing.T, owner int64, name string) *domain.Ingredient {
	t.Helper()
	ing, err := e.ingredients.Create(context.Background(), owner, IngredientRequest{
		Name:   ptr(name),
		Amount: dec("1.00"),
	})
	require.NoError(t, err)
	return ing
}

func (e *testEnv) recipe(t *testing.T, owner int64, title string, tags, ingredients []int64) *domain.Recipe {
	t.Helper()
	r, err := e.recipes.Create(context.Background(), owner, RecipeRequest{
		Title:       ptr(title),
		TimeMinutes: ptr(10),
		Price:       dec("5.00"),
		Tags:        tags,
		Ingredients: ingredients,
	})
	require.NoError(t, err)
	return r
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for x := range 16 {
		for y := range 12 {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 20), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
