// Package store defines the persistence interfaces for the recipes server.
package store

import (
	"context"
	"time"

	"github.com/listenupapp/recipes-server/internal/domain"
)

// Store defines the relational persistence operations.
// Every owned-resource read takes the owner and never returns another
// user's rows; a row owned by someone else is reported as ErrNotFound.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, ownerID, id int64) (*domain.Tag, error)
	ListTags(ctx context.Context, filter domain.TagFilter) ([]*domain.Tag, error)
	RenameTag(ctx context.Context, ownerID, id int64, name string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, ownerID, id int64) error

	// Ingredients
	CreateIngredient(ctx context.Context, ing *domain.Ingredient) error
	GetIngredient(ctx context.Context, ownerID, id int64) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context, filter domain.IngredientFilter) ([]*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, ownerID, id int64, update domain.IngredientUpdate) (*domain.Ingredient, error)
	DeleteIngredient(ctx context.Context, ownerID, id int64) error

	// Association lookups
	TagOwners(ctx context.Context, ids []int64) (map[int64]int64, error)
	IngredientOwners(ctx context.Context, ids []int64) (map[int64]int64, error)
	RecipeIDsByTag(ctx context.Context, tagID int64) ([]int64, error)
	RecipeIDsByIngredient(ctx context.Context, ingredientID int64) ([]int64, error)

	// Recipes
	CreateRecipe(ctx context.Context, ownerID int64, w domain.RecipeWrite) (*domain.Recipe, error)
	GetRecipe(ctx context.Context, ownerID, id int64) (*domain.Recipe, error)
	GetRecipesByIDs(ctx context.Context, ownerID int64, ids []int64) ([]*domain.Recipe, error)
	ListRecipesByIDs(ctx context.Context, ids []int64) ([]*domain.Recipe, error)
	ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*domain.Recipe, error)
	ListAllRecipes(ctx context.Context) ([]*domain.Recipe, error)
	CountRecipes(ctx context.Context) (int, error)
	UpdateRecipe(ctx context.Context, ownerID, id int64, w domain.RecipeWrite) (*domain.Recipe, error)
	SetRecipeImage(ctx context.Context, ownerID, id int64, img domain.RecipeImage) (previous string, err error)
	DeleteRecipe(ctx context.Context, ownerID, id int64) (image string, err error)
}

// SessionRegistry tracks issued access tokens so they can be revoked.
type SessionRegistry interface {
	Register(ctx context.Context, s Session) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAllForUser(ctx context.Context, userID int64, exceptTokenID string) (int, error)
	Close() error
}

// Session is one issued access token.
type Session struct {
	TokenID   string    `json:"token_id"`
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}
