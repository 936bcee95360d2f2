package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/recipes-server/internal/auth"
	"github.com/listenupapp/recipes-server/internal/domain"
	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/store"
)

// ClientInfo describes the caller a token is issued to.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// SessionService issues access tokens and tracks them in the session registry
// so they can be revoked before they expire.
type SessionService struct {
	registry store.SessionRegistry
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(registry store.SessionRegistry, tokens *auth.TokenService, logger *slog.Logger) *SessionService {
	return &SessionService{
		registry: registry,
		tokens:   tokens,
		logger:   logger,
	}
}

// Issue mints a token for user and records it.
func (s *SessionService) Issue(ctx context.Context, user *domain.User, client ClientInfo) (*auth.IssuedToken, error) {
	issued, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	err = s.registry.Register(ctx, store.Session{
		TokenID:   issued.TokenID,
		UserID:    user.ID,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	return issued, nil
}

// Verify checks the token signature and claims and that the session is live.
func (s *SessionService) Verify(ctx context.Context, token string) (*auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid token").WithCause(err)
	}

	live, err := s.registry.Exists(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !live {
		return nil, domainerrors.Unauthorized("token has been revoked")
	}

	return claims, nil
}

// Revoke removes a single session. Unknown IDs are ignored.
func (s *SessionService) Revoke(ctx context.Context, tokenID string) error {
	if err := s.registry.Revoke(ctx, tokenID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser removes every session of userID except exceptTokenID.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID int64, exceptTokenID string) (int, error) {
	n, err := s.registry.RevokeAllForUser(ctx, userID, exceptTokenID)
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	if n > 0 && s.logger != nil {
		s.logger.Info("revoked sessions", "user_id", userID, "count", n)
	}
	return n, nil
}
