package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/recipes-server/internal/auth"
	"github.com/listenupapp/recipes-server/internal/domain"
	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/normalize"
	"github.com/listenupapp/recipes-server/internal/store"
)

// AdminService exposes user management to staff accounts.
type AdminService struct {
	store    store.Store
	sessions *SessionService
	logger   *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(store store.Store, sessions *SessionService, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// CreateUserRequest is an administrator-created account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=128"`
	Name     string `json:"name" validate:"max=255"`
	IsStaff  bool   `json:"is_staff"`
}

// UpdateUserRequest is a partial administrative change. Nil fields are untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=5,max=128"`
	IsActive *bool   `json:"is_active,omitempty"`
	IsStaff  *bool   `json:"is_staff,omitempty"`
}

func requireStaff(p *Principal) error {
	if p == nil || p.User == nil || !p.User.IsAdmin() {
		return domainerrors.Forbidden("you do not have permission to perform this action")
	}
	return nil
}

// ListUsers returns every account.
func (s *AdminService) ListUsers(ctx context.Context, p *Principal) ([]*domain.User, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns one account.
func (s *AdminService) GetUser(ctx context.Context, p *Principal, id int64) (*domain.User, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "get user")
	}
	return user, nil
}

// CreateUser adds an active account, optionally with staff rights.
func (s *AdminService) CreateUser(ctx context.Context, p *Principal, req CreateUserRequest) (*domain.User, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	req.Email = normalize.Email(req.Email)
	req.Name = normalize.Name(req.Name)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := createUser(ctx, s.store, req.Email, req.Name, req.Password, req.IsStaff)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("user created by admin", "user_id", user.ID, "admin_id", p.UserID(), "is_staff", user.IsStaff)
	}
	return user, nil
}

// UpdateUser changes another account. Deactivating a user or setting their
// password revokes all of their sessions. Staff cannot deactivate or demote
// themselves.
func (s *AdminService) UpdateUser(ctx context.Context, p *Principal, id int64, req UpdateUserRequest) (*domain.User, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}

	if req.Name != nil {
		n := normalize.Name(*req.Name)
		req.Name = &n
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if id == p.UserID() {
		if req.IsActive != nil && !*req.IsActive {
			return nil, domainerrors.FieldError("is_active", "you cannot deactivate your own account")
		}
		if req.IsStaff != nil && !*req.IsStaff {
			return nil, domainerrors.FieldError("is_staff", "you cannot remove your own staff status")
		}
	}

	update := domain.UserUpdate{
		Name:     req.Name,
		IsActive: req.IsActive,
		IsStaff:  req.IsStaff,
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		update.PasswordHash = &hash
	}

	if update.Empty() {
		return s.GetUser(ctx, p, id)
	}

	user, err := s.store.UpdateUser(ctx, id, update)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "update user")
	}

	deactivated := req.IsActive != nil && !*req.IsActive
	if deactivated || update.PasswordHash != nil {
		if _, err := s.sessions.RevokeAllForUser(ctx, id, ""); err != nil {
			return nil, err
		}
	}

	if s.logger != nil {
		s.logger.Info("user updated by admin", "user_id", id, "admin_id", p.UserID())
	}
	return user, nil
}
