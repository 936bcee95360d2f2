package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/recipes-server/internal/auth"
	"github.com/listenupapp/recipes-server/internal/domain"
	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/normalize"
	"github.com/listenupapp/recipes-server/internal/store"
)

const invalidCredentialsMessage = "unable to authenticate with provided credentials"

// Principal is the authenticated caller of a request.
type Principal struct {
	User    *domain.User
	TokenID string
}

// UserID returns the ID of the authenticated user.
func (p *Principal) UserID() int64 {
	return p.User.ID
}

// AuthService handles registration, token issue and revocation, and the
// caller's own profile.
type AuthService struct {
	store    store.Store
	sessions *SessionService
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, sessions *SessionService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=128"`
	Name     string `json:"name" validate:"max=255"`
}

// TokenRequest contains the credentials exchanged for a token.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is an issued token with its owner.
type TokenResponse struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
	User      *domain.User
}

// UpdateProfileRequest is a partial profile change. Nil fields are untouched.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=5,max=128"`
}

// Register creates an active, non-staff user. The name is optional.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = normalize.Email(req.Email)
	req.Name = normalize.Name(req.Name)

	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := createUser(ctx, s.store, req.Email, req.Name, req.Password, false)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("user registered", "user_id", user.ID)
	}
	return user, nil
}

// createUser hashes password and inserts the user. Shared with the admin service.
func createUser(ctx context.Context, st store.Store, email, name, password string, staff bool) (*domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      staff,
	}
	user.InitTimestamps()

	if err := st.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldError("email", "user with this email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// IssueToken exchanges credentials for a new access token.
// Unknown emails, wrong passwords and inactive accounts all fail the same way.
func (s *AuthService) IssueToken(ctx context.Context, req TokenRequest, client ClientInfo) (*TokenResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials(invalidCredentialsMessage)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid || !user.CanAuthenticate() {
		return nil, domainerrors.InvalidCredentials(invalidCredentialsMessage)
	}

	now := time.Now().UTC()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		// Log but don't fail login
		if s.logger != nil {
			s.logger.Warn("failed to update last login time", "user_id", user.ID, "error", err)
		}
	} else {
		user.LastLoginAt = &now
	}

	issued, err := s.sessions.Issue(ctx, user, client)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("token issued", "user_id", user.ID, "token_id", issued.TokenID)
	}

	return &TokenResponse{
		Token:     issued.Token,
		TokenID:   issued.TokenID,
		ExpiresAt: issued.ExpiresAt,
		User:      user,
	}, nil
}

// Authenticate resolves a bearer token to its principal.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, domainerrors.Unauthorized("authentication credentials were not provided")
	}

	claims, err := s.sessions.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, domainerrors.Unauthorized("user inactive or deleted")
	}

	return &Principal{User: user, TokenID: claims.TokenID}, nil
}

// Logout revokes the caller's current token.
func (s *AuthService) Logout(ctx context.Context, p *Principal) error {
	if err := s.sessions.Revoke(ctx, p.TokenID); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("token revoked", "user_id", p.UserID(), "token_id", p.TokenID)
	}
	return nil
}

// Profile returns the caller's user record.
func (s *AuthService) Profile(ctx context.Context, p *Principal) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, p.UserID())
	if err != nil {
		return nil, notFoundOr(err, "user not found", "get user")
	}
	return user, nil
}

// UpdateProfile changes the caller's name or password. A password change
// revokes every other session of the caller.
func (s *AuthService) UpdateProfile(ctx context.Context, p *Principal, req UpdateProfileRequest) (*domain.User, error) {
	if req.Name != nil {
		n := normalize.Name(*req.Name)
		req.Name = &n
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	var update domain.UserUpdate
	update.Name = req.Name
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		update.PasswordHash = &hash
	}

	if update.Empty() {
		return s.Profile(ctx, p)
	}

	user, err := s.store.UpdateUser(ctx, p.UserID(), update)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "update user")
	}

	if update.PasswordHash != nil {
		if _, err := s.sessions.RevokeAllForUser(ctx, user.ID, p.TokenID); err != nil {
			return nil, err
		}
	}

	return user, nil
}
