package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `t.id, t.user_id, t.name, t.created_at, t.updated_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(sc scanner) (*domain.Tag, error) {
	var t domain.Tag

	var (
		createdAt string
		updatedAt string
	)

	err := sc.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag and sets t.ID.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	if t.CreatedAt.IsZero() {
		t.InitTimestamps()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		t.UserID,
		t.Name,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return mapWriteError(err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// GetTag retrieves one of the owner's tags.
// Returns store.ErrNotFound if the tag does not exist or belongs to someone else.
func (s *Store) GetTag(ctx context.Context, ownerID, id int64) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE t.id = ? AND t.user_id = ?`, id, ownerID)

	t, err := scanTag(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return t, nil
}

// ListTags returns the owner's tags ordered by name descending.
func (s *Store) ListTags(ctx context.Context, filter domain.TagFilter) ([]*domain.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags t WHERE t.user_id = ?`
	args := []any{filter.OwnerID}

	if filter.AssignedOnly {
		query += ` AND EXISTS (
			SELECT 1 FROM recipe_tags rt
			JOIN recipes r ON r.id = rt.recipe_id
			WHERE rt.tag_id = t.id AND r.user_id = ?)`
		args = append(args, filter.OwnerID)
	}
	query += ` ORDER BY t.name DESC, t.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// RenameTag changes the name of one of the owner's tags.
// Returns store.ErrNotFound if the tag does not exist or belongs to someone else.
func (s *Store) RenameTag(ctx context.Context, ownerID, id int64, name string) (*domain.Tag, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, formatTime(time.Now()), id, ownerID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetTag(ctx, ownerID, id)
}

// DeleteTag removes one of the owner's tags and, by cascade, its recipe links.
func (s *Store) DeleteTag(ctx context.Context, ownerID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// TagOwners maps each existing tag ID in ids to its owner.
// IDs with no row are absent from the result.
func (s *Store) TagOwners(ctx context.Context, ids []int64) (map[int64]int64, error) {
	return s.owners(ctx, "tags", ids)
}

// RecipeIDsByTag returns the IDs of every recipe linked to the tag, across owners.
func (s *Store) RecipeIDsByTag(ctx context.Context, tagID int64) ([]int64, error) {
	return s.linkedRecipeIDs(ctx, `SELECT recipe_id FROM recipe_tags WHERE tag_id = ? ORDER BY recipe_id`, tagID)
}

// owners is shared by TagOwners and IngredientOwners. table is never user input.
func (s *Store) owners(ctx context.Context, table string, ids []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id FROM `+table+` WHERE id IN (`+placeholders(len(ids))+`)`,
		int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, owner int64
		if err := rows.Scan(&id, &owner); err != nil {
			return nil, err
		}
		out[id] = owner
	}
	return out, rows.Err()
}

func (s *Store) linkedRecipeIDs(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
