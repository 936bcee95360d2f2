package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/normalize"
	"github.com/listenupapp/recipes-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, email, name, password_hash, is_active, is_staff, is_superuser,
	last_login_at, created_at, updated_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(sc scanner) (*domain.User, error) {
	var u domain.User

	var (
		isActive    int
		isStaff     int
		isSuperuser int
		lastLoginAt sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := sc.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&isActive,
		&isStaff,
		&isSuperuser,
		&lastLoginAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.IsActive = isActive != 0
	u.IsStaff = isStaff != 0
	u.IsSuperuser = isSuperuser != 0

	u.LastLoginAt, err = parseNullableTime(lastLoginAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// CreateUser inserts a new user and sets user.ID.
// Returns store.ErrAlreadyExists if the email (compared case-insensitively) is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.InitTimestamps()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, email_key, name, password_hash, is_active, is_staff,
			is_superuser, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		normalize.EmailKey(user.Email),
		user.Name,
		user.PasswordHash,
		boolToInt(user.IsActive),
		boolToInt(user.IsStaff),
		boolToInt(user.IsSuperuser),
		sql.NullString{},
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return mapWriteError(err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, ignoring letter case.
// Returns store.ErrNotFound if no user has that email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_key = ?`, normalize.EmailKey(email))

	u, err := scanUser(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return u, nil
}

// UpdateUser applies the non-nil fields of update and returns the stored user.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now())}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *update.PasswordHash)
	}
	if update.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, boolToInt(*update.IsActive))
	}
	if update.IsStaff != nil {
		sets = append(sets, "is_staff = ?")
		args = append(args, boolToInt(*update.IsStaff))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetUser(ctx, id)
}

// TouchLastLogin records a successful authentication.
func (s *Store) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListUsers returns all users ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
