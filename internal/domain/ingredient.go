package domain

import "github.com/shopspring/decimal"

// Ingredient is a user-owned ingredient with a quantity.
type Ingredient struct {
	Timestamps
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	Name              string          `json:"name"`
	Amount            decimal.Decimal `json:"amount"`
	UnitOfMeasurement string          `json:"unit_of_measurement"`
}

// IngredientFilter selects the ingredients a list returns.
type IngredientFilter struct {
	OwnerID      int64
	AssignedOnly bool
}

// IngredientUpdate carries a partial change. Nil fields are untouched.
type IngredientUpdate struct {
	Name              *string
	Amount            *decimal.Decimal
	UnitOfMeasurement *string
}
