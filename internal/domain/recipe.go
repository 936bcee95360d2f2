package domain

import "github.com/shopspring/decimal"

// MaxDecimalPlaces bounds the scale of prices and amounts.
const MaxDecimalPlaces = 2

// Recipe is a user-owned recipe with its associations loaded.
type Recipe struct {
	Timestamps
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Title         string          `json:"title"`
	TimeMinutes   int             `json:"time_minutes"`
	Price         decimal.Decimal `json:"price"`
	Link          string          `json:"link"`
	Image         string          `json:"image,omitempty"`
	ImageBlurHash string          `json:"image_blurhash,omitempty"`
	Tags          []Tag           `json:"tags"`
	Ingredients   []Ingredient    `json:"ingredients"`
}

// TagIDs returns the IDs of the recipe's tags in their loaded order.
func (r *Recipe) TagIDs() []int64 {
	ids := make([]int64, len(r.Tags))
	for i := range r.Tags {
		ids[i] = r.Tags[i].ID
	}
	return ids
}

// IngredientIDs returns the IDs of the recipe's ingredients in their loaded order.
func (r *Recipe) IngredientIDs() []int64 {
	ids := make([]int64, len(r.Ingredients))
	for i := range r.Ingredients {
		ids[i] = r.Ingredients[i].ID
	}
	return ids
}

// RecipeWrite is the validated payload of a create or update.
//
// For a create or full update every scalar field is set. For a partial
// update nil fields are untouched. A nil ID slice leaves that association
// untouched; a non-nil (possibly empty) slice replaces it.
type RecipeWrite struct {
	Title         *string
	TimeMinutes   *int
	Price         *decimal.Decimal
	Link          *string
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeImage is the stored image reference of a recipe.
type RecipeImage struct {
	FileName string
	BlurHash string
}
