package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/store"
)

// ingredientColumns is the ordered list of columns selected in ingredient queries.
// Must match the scan order in scanIngredient.
const ingredientColumns = `i.id, i.user_id, i.name, i.amount, i.unit_of_measurement, i.created_at, i.updated_at`

// scanIngredient scans a sql.Row (or sql.Rows via its Scan method) into a domain.Ingredient.
func scanIngredient(sc scanner) (*domain.Ingredient, error) {
	var ing domain.Ingredient

	var (
		amount    string
		createdAt string
		updatedAt string
	)

	err := sc.Scan(
		&ing.ID,
		&ing.UserID,
		&ing.Name,
		&amount,
		&ing.UnitOfMeasurement,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	ing.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	ing.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	ing.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &ing, nil
}

// formatDecimal renders a decimal with the fixed storage scale.
func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(domain.MaxDecimalPlaces)
}

// CreateIngredient inserts a new ingredient and sets ing.ID.
func (s *Store) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	if ing.CreatedAt.IsZero() {
		ing.InitTimestamps()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredients (user_id, name, amount, unit_of_measurement, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ing.UserID,
		ing.Name,
		formatDecimal(ing.Amount),
		ing.UnitOfMeasurement,
		formatTime(ing.CreatedAt),
		formatTime(ing.UpdatedAt),
	)
	if err != nil {
		return mapWriteError(err)
	}

	ing.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// GetIngredient retrieves one of the owner's ingredients.
// Returns store.ErrNotFound if it does not exist or belongs to someone else.
func (s *Store) GetIngredient(ctx context.Context, ownerID, id int64) (*domain.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients i WHERE i.id = ? AND i.user_id = ?`, id, ownerID)

	ing, err := scanIngredient(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return ing, nil
}

// ListIngredients returns the owner's ingredients ordered by name descending.
func (s *Store) ListIngredients(ctx context.Context, filter domain.IngredientFilter) ([]*domain.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients i WHERE i.user_id = ?`
	args := []any{filter.OwnerID}

	if filter.AssignedOnly {
		query += ` AND EXISTS (
			SELECT 1 FROM recipe_ingredients ri
			JOIN recipes r ON r.id = ri.recipe_id
			WHERE ri.ingredient_id = i.id AND r.user_id = ?)`
		args = append(args, filter.OwnerID)
	}
	query += ` ORDER BY i.name DESC, i.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := []*domain.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

// UpdateIngredient applies the non-nil fields of update.
// Returns store.ErrNotFound if it does not exist or belongs to someone else.
func (s *Store) UpdateIngredient(ctx context.Context, ownerID, id int64, update domain.IngredientUpdate) (*domain.Ingredient, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now())}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, formatDecimal(*update.Amount))
	}
	if update.UnitOfMeasurement != nil {
		sets = append(sets, "unit_of_measurement = ?")
		args = append(args, *update.UnitOfMeasurement)
	}
	args = append(args, id, ownerID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE ingredients SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetIngredient(ctx, ownerID, id)
}

// DeleteIngredient removes one of the owner's ingredients and, by cascade, its recipe links.
func (s *Store) DeleteIngredient(ctx context.Context, ownerID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ingredients WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IngredientOwners maps each existing ingredient ID in ids to its owner.
func (s *Store) IngredientOwners(ctx context.Context, ids []int64) (map[int64]int64, error) {
	return s.owners(ctx, "ingredients", ids)
}

// RecipeIDsByIngredient returns the IDs of every recipe linked to the ingredient, across owners.
func (s *Store) RecipeIDsByIngredient(ctx context.Context, ingredientID int64) ([]int64, error) {
	return s.linkedRecipeIDs(ctx,
		`SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id = ? ORDER BY recipe_id`, ingredientID)
}
