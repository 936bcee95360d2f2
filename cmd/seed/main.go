// Package main provides a tool to seed the recipes database.
//
// With -superuser it creates an administrator account. Otherwise it creates a
// demo user owning a handful of tags, ingredients and recipes. Run it with the
// server stopped; the search index allows a single writer.
//
// Usage:
//
//	DATA_PATH=~/RecipesServer/data go run ./cmd/seed -superuser -email admin@example.com -password changeme
//	DATA_PATH=~/RecipesServer/data go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/listenupapp/recipes-server/internal/auth"
	"github.com/listenupapp/recipes-server/internal/config"
	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/media/images"
	"github.com/listenupapp/recipes-server/internal/normalize"
	"github.com/listenupapp/recipes-server/internal/search"
	"github.com/listenupapp/recipes-server/internal/service"
	"github.com/listenupapp/recipes-server/internal/store"
	"github.com/listenupapp/recipes-server/internal/store/sqlite"
)

var (
	superuser = flag.Bool("superuser", false, "Create a superuser instead of sample data")
	email     = flag.String("email", "demo@example.com", "Email of the user to create")
	password  = flag.String("password", "demopass", "Password of the user to create")
	name      = flag.String("name", "Demo Cook", "Display name of the user to create")
)

type sampleIngredient struct {
	name   string
	amount string
	unit   string
}

type sampleRecipe struct {
	title       string
	minutes     int
	price       string
	link        string
	tags        []string
	ingredients []string
}

var (
	sampleTags = []string{"Vegan", "Dessert", "Quick", "Breakfast"}

	sampleIngredients = []sampleIngredient{
		{"Oats", "80", "g"},
		{"Banana", "1", "pc"},
		{"Cocoa", "2", "tbsp"},
		{"Chickpeas", "400", "g"},
		{"Tahini", "3", "tbsp"},
		{"Lemon", "0.5", "pc"},
	}

	sampleRecipes = []sampleRecipe{
		{"Overnight Oats", 5, "2.50", "", []string{"Breakfast", "Vegan", "Quick"}, []string{"Oats", "Banana"}},
		{"Chocolate Banana Bites", 20, "3.75", "", []string{"Dessert", "Vegan"}, []string{"Banana", "Cocoa", "Oats"}},
		{"Hummus", 10, "4.20", "https://example.com/hummus", []string{"Vegan", "Quick"}, []string{"Chickpeas", "Tahini", "Lemon"}},
	}
)

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbPath := filepath.Join(cfg.Storage.DataPath, "recipes.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	st, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	if *superuser {
		if err := createSuperuser(ctx, st); err != nil {
			log.Fatalf("Failed to create superuser: %v", err)
		}
		fmt.Printf("Created superuser %s\n", normalize.Email(*email))
		return
	}

	if err := seedSamples(ctx, cfg, st); err != nil {
		log.Fatalf("Failed to seed sample data: %v", err)
	}
}

func createSuperuser(ctx context.Context, st store.Store) error {
	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}
	user := &domain.User{
		Email:        normalize.Email(*email),
		Name:         normalize.Name(*name),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	user.InitTimestamps()
	if err := st.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return fmt.Errorf("user %s already exists", user.Email)
		}
		return err
	}
	return nil
}

func seedSamples(ctx context.Context, cfg *config.Config, st store.Store) error {
	var index *search.RecipeIndex
	if cfg.Search.Enabled {
		idx, err := search.NewRecipeIndex(search.Options{DataPath: cfg.Storage.DataPath})
		if err != nil {
			return fmt.Errorf("open search index: %w", err)
		}
		defer idx.Close()
		index = idx
	}

	storage, err := images.NewStorage(cfg.Storage.DataPath)
	if err != nil {
		return err
	}

	searchService := service.NewSearchService(index, st, nil)
	tags := service.NewTagService(st, searchService, nil)
	ingredients := service.NewIngredientService(st, searchService, nil)
	recipes := service.NewRecipeService(st, images.NewProcessor(storage, nil), searchService,
		service.RecipeServiceOptions{StrictOwnership: cfg.Recipes.StrictOwnership}, nil)

	owner, err := findOrCreateOwner(ctx, st)
	if err != nil {
		return err
	}
	fmt.Printf("Seeding data for user: %s (%d)\n", owner.Email, owner.ID)

	tagIDs := make(map[string]int64, len(sampleTags))
	for _, n := range sampleTags {
		tag, err := tags.Create(ctx, owner.ID, service.TagRequest{Name: n})
		if err != nil {
			return fmt.Errorf("create tag %q: %w", n, err)
		}
		tagIDs[n] = tag.ID
	}

	ingredientIDs := make(map[string]int64, len(sampleIngredients))
	for _, si := range sampleIngredients {
		amount := decimal.RequireFromString(si.amount)
		ing, err := ingredients.Create(ctx, owner.ID, service.IngredientRequest{
			Name:              &si.name,
			Amount:            &amount,
			UnitOfMeasurement: &si.unit,
		})
		if err != nil {
			return fmt.Errorf("create ingredient %q: %w", si.name, err)
		}
		ingredientIDs[si.name] = ing.ID
	}

	for _, sr := range sampleRecipes {
		price := decimal.RequireFromString(sr.price)
		req := service.RecipeRequest{
			Title:       &sr.title,
			TimeMinutes: &sr.minutes,
			Price:       &price,
			Link:        &sr.link,
		}
		for _, n := range sr.tags {
			req.Tags = append(req.Tags, tagIDs[n])
		}
		for _, n := range sr.ingredients {
			req.Ingredients = append(req.Ingredients, ingredientIDs[n])
		}
		recipe, err := recipes.Create(ctx, owner.ID, req)
		if err != nil {
			return fmt.Errorf("create recipe %q: %w", sr.title, err)
		}
		fmt.Printf("  recipe %d: %s\n", recipe.ID, recipe.Title)
	}

	fmt.Printf("Seeded %d tags, %d ingredients, %d recipes\n",
		len(sampleTags), len(sampleIngredients), len(sampleRecipes))
	return nil
}

// findOrCreateOwner returns the user named by -email, creating it when missing.
func findOrCreateOwner(ctx context.Context, st store.Store) (*domain.User, error) {
	user, err := st.GetUserByEmail(ctx, normalize.Email(*email))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	authService := service.NewAuthService(st, nil, nil)
	user, err = authService.Register(ctx, service.RegisterRequest{
		Email:    *email,
		Password: *password,
		Name:     *name,
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", *email, err)
	}
	fmt.Printf("Created user %s with password %q\n", user.Email, *password)
	return user, nil
}
