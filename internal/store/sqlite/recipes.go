package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price, r.link,
	r.image, r.image_blurhash, r.created_at, r.updated_at`

// errIncompleteRecipe is returned when a create is missing a required scalar.
var errIncompleteRecipe = errors.New("recipe write missing title, time_minutes or price")

// scanRecipe scans a sql.Row (or sql.Rows via its Scan method) into a domain.Recipe.
// Associations are loaded separately by loadAssociations.
func scanRecipe(sc scanner) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		price     string
		image     sql.NullString
		blurHash  sql.NullString
		createdAt string
		updatedAt string
	)

	err := sc.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&price,
		&r.Link,
		&image,
		&blurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	r.Image = image.String
	r.ImageBlurHash = blurHash.String

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	r.Tags = []domain.Tag{}
	r.Ingredients = []domain.Ingredient{}
	return &r, nil
}

// CreateRecipe inserts a recipe owned by ownerID together with its
// associations in one transaction.
func (s *Store) CreateRecipe(ctx context.Context, ownerID int64, w domain.RecipeWrite) (*domain.Recipe, error) {
	if w.Title == nil || w.TimeMinutes == nil || w.Price == nil {
		return nil, errIncompleteRecipe
	}
	link := ""
	if w.Link != nil {
		link = *w.Link
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	res, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (user_id, title, time_minutes, price, link, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ownerID,
		*w.Title,
		*w.TimeMinutes,
		formatDecimal(*w.Price),
		link,
		now,
		now,
	)
	if err != nil {
		return nil, mapWriteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := replaceRecipeTags(ctx, tx, id, w.TagIDs); err != nil {
		return nil, err
	}
	if err := replaceRecipeIngredients(ctx, tx, id, w.IngredientIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetRecipe(ctx, ownerID, id)
}

// GetRecipe retrieves one of the owner's recipes with associations.
// Returns store.ErrNotFound if it does not exist or belongs to someone else.
func (s *Store) GetRecipe(ctx context.Context, ownerID, id int64) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ? AND r.user_id = ?`, id, ownerID)

	r, err := scanRecipe(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	if err := loadAssociations(ctx, s.db, []*domain.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRecipesByIDs returns the owner's recipes among ids, in the order of ids.
// IDs that do not exist or belong to someone else are skipped.
func (s *Store) GetRecipesByIDs(ctx context.Context, ownerID int64, ids []int64) ([]*domain.Recipe, error) {
	if len(ids) == 0 {
		return []*domain.Recipe{}, nil
	}

	args := append([]any{ownerID}, int64Args(ids)...)
	found, err := s.queryRecipes(ctx,
		`SELECT `+recipeColumns+` FROM recipes r
		WHERE r.user_id = ? AND r.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	return orderByIDs(found, ids), nil
}

// ListRecipesByIDs returns the recipes among ids regardless of owner, in the order of ids.
// It backs search reindexing after a tag or ingredient changes.
func (s *Store) ListRecipesByIDs(ctx context.Context, ids []int64) ([]*domain.Recipe, error) {
	if len(ids) == 0 {
		return []*domain.Recipe{}, nil
	}

	found, err := s.queryRecipes(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	return orderByIDs(found, ids), nil
}

// ListRecipes returns the recipes selected by filter, newest ID first.
//
// Each filter dimension is one EXISTS subquery, so IDs within a dimension
// are OR'ed and the dimensions are AND'ed.
func (s *Store) ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + recipeColumns + ` FROM recipes r WHERE r.user_id = ?`)
	args := []any{filter.OwnerID}

	if len(filter.TagIDs) > 0 {
		b.WriteString(` AND EXISTS (SELECT 1 FROM recipe_tags rt
			WHERE rt.recipe_id = r.id AND rt.tag_id IN (` + placeholders(len(filter.TagIDs)) + `))`)
		args = append(args, int64Args(filter.TagIDs)...)
	}
	if len(filter.IngredientIDs) > 0 {
		b.WriteString(` AND EXISTS (SELECT 1 FROM recipe_ingredients ri
			WHERE ri.recipe_id = r.id AND ri.ingredient_id IN (` + placeholders(len(filter.IngredientIDs)) + `))`)
		args = append(args, int64Args(filter.IngredientIDs)...)
	}
	b.WriteString(` ORDER BY r.id DESC`)

	return s.queryRecipes(ctx, b.String(), args...)
}

// ListAllRecipes returns every recipe of every owner, for index rebuilds.
func (s *Store) ListAllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	return s.queryRecipes(ctx, `SELECT `+recipeColumns+` FROM recipes r ORDER BY r.id ASC`)
}

// CountRecipes returns the number of recipes across all owners.
func (s *Store) CountRecipes(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&n)
	return n, err
}

// UpdateRecipe applies w to one of the owner's recipes in one transaction.
// Nil scalars are untouched; a nil ID slice leaves that association alone,
// a non-nil one replaces it.
// Returns store.ErrNotFound if the recipe does not exist or belongs to someone else.
func (s *Store) UpdateRecipe(ctx context.Context, ownerID, id int64, w domain.RecipeWrite) (*domain.Recipe, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now())}

	if w.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *w.Title)
	}
	if w.TimeMinutes != nil {
		sets = append(sets, "time_minutes = ?")
		args = append(args, *w.TimeMinutes)
	}
	if w.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, formatDecimal(*w.Price))
	}
	if w.Link != nil {
		sets = append(sets, "link = ?")
		args = append(args, *w.Link)
	}
	args = append(args, id, ownerID)

	res, err := tx.ExecContext(ctx,
		`UPDATE recipes SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}

	if w.TagIDs != nil {
		if err := replaceRecipeTags(ctx, tx, id, w.TagIDs); err != nil {
			return nil, err
		}
	}
	if w.IngredientIDs != nil {
		if err := replaceRecipeIngredients(ctx, tx, id, w.IngredientIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetRecipe(ctx, ownerID, id)
}

// SetRecipeImage stores a new image reference and returns the one it replaced.
// Returns store.ErrNotFound if the recipe does not exist or belongs to someone else.
func (s *Store) SetRecipeImage(ctx context.Context, ownerID, id int64, img domain.RecipeImage) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var previous sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT image FROM recipes WHERE id = ? AND user_id = ?`, id, ownerID).Scan(&previous)
	if err != nil {
		return "", mapReadError(err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE recipes SET image = ?, image_blurhash = ?, updated_at = ? WHERE id = ?`,
		nullString(img.FileName), nullString(img.BlurHash), formatTime(time.Now()), id)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return previous.String, nil
}

// DeleteRecipe removes one of the owner's recipes and returns its image file name.
// Returns store.ErrNotFound if the recipe does not exist or belongs to someone else.
func (s *Store) DeleteRecipe(ctx context.Context, ownerID, id int64) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var image sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT image FROM recipes WHERE id = ? AND user_id = ?`, id, ownerID).Scan(&image)
	if err != nil {
		return "", mapReadError(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return image.String, nil
}

// queryRecipes runs a recipe SELECT and loads associations for all rows.
func (s *Store) queryRecipes(ctx context.Context, query string, args ...any) ([]*domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	recipes := []*domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := loadAssociations(ctx, s.db, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// replaceRecipeTags replaces all tag links for a recipe.
// It deletes existing rows and inserts the new set.
func replaceRecipeTags(ctx context.Context, tx *sql.Tx, recipeID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("delete recipe_tags: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`,
			recipeID, tagID)
		if err != nil {
			return mapWriteError(err)
		}
	}
	return nil
}

// replaceRecipeIngredients replaces all ingredient links for a recipe.
func replaceRecipeIngredients(ctx context.Context, tx *sql.Tx, recipeID int64, ingredientIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("delete recipe_ingredients: %w", err)
	}
	for _, ingredientID := range ingredientIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO recipe_ingredients (recipe_id, ingredient_id) VALUES (?, ?)`,
			recipeID, ingredientID)
		if err != nil {
			return mapWriteError(err)
		}
	}
	return nil
}

// loadAssociations fills Tags and Ingredients of every recipe with two
// queries, each association ordered by ID.
func loadAssociations(ctx context.Context, q execer, recipes []*domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Recipe, len(recipes))
	ids := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	in := placeholders(len(ids))

	tagRows, err := q.QueryContext(ctx, `
		SELECT rt.recipe_id, `+tagColumns+`
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id IN (`+in+`)
		ORDER BY t.id ASC`, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("load recipe tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var recipeID int64
		t, err := scanTag(leadingScanner{s: tagRows, lead: []any{&recipeID}})
		if err != nil {
			return err
		}
		byID[recipeID].Tags = append(byID[recipeID].Tags, *t)
	}
	if err := tagRows.Err(); err != nil {
		return err
	}

	ingRows, err := q.QueryContext(ctx, `
		SELECT ri.recipe_id, `+ingredientColumns+`
		FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (`+in+`)
		ORDER BY i.id ASC`, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("load recipe ingredients: %w", err)
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var recipeID int64
		ing, err := scanIngredient(leadingScanner{s: ingRows, lead: []any{&recipeID}})
		if err != nil {
			return err
		}
		byID[recipeID].Ingredients = append(byID[recipeID].Ingredients, *ing)
	}
	return ingRows.Err()
}

// orderByIDs returns recipes arranged in the order of ids, dropping misses.
func orderByIDs(recipes []*domain.Recipe, ids []int64) []*domain.Recipe {
	byID := make(map[int64]*domain.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}
	out := make([]*domain.Recipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
