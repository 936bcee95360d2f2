package domain

import "time"

// MinPasswordLength is the shortest password accepted on registration and change.
const MinPasswordLength = 5

// User represents an account that owns tags, ingredients and recipes.
type User struct {
	Timestamps
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// CanAuthenticate reports whether the user may obtain or use tokens.
func (u *User) CanAuthenticate() bool {
	return u.IsActive
}

// IsAdmin reports whether the user may use the administration routes.
// Superusers always count as staff.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

// UserUpdate carries a partial change to a user. Nil fields are untouched.
type UserUpdate struct {
	Name         *string
	PasswordHash *string
	IsActive     *bool
	IsStaff      *bool
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.PasswordHash == nil && u.IsActive == nil && u.IsStaff == nil
}
