package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/id"
)

const (
	tokenIssuer   = "recipes-server"
	tokenAudience = "recipes-client"
)

// TokenService handles PASETO token generation and verification.
type TokenService struct {
	symmetricKey        paseto.V4SymmetricKey
	accessTokenDuration time.Duration
	now                 func() time.Time
}

// NewTokenService creates a token service from a raw 32-byte key.
func NewTokenService(key []byte, accessDuration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if accessDuration <= 0 {
		return nil, errors.New("access token duration must be positive")
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:        symmetricKey,
		accessTokenDuration: accessDuration,
		now:                 time.Now,
	}, nil
}

// GenerateAccessToken creates a new PASETO v4.local access token for the user.
func (s *TokenService) GenerateAccessToken(user *domain.User) (*IssuedToken, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTokenDuration)

	tokenID, err := id.TokenID()
	if err != nil {
		return nil, fmt.Errorf("generate token ID: %w", err)
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(strconv.FormatInt(user.ID, 10))
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expiresAt)
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on values that cannot be marshalled
	_ = token.Set("user_id", user.ID)
	//nolint:errcheck // Token.Set only errors on values that cannot be marshalled
	_ = token.Set("email", user.Email)

	return &IssuedToken{
		Token:     token.V4Encrypt(s.symmetricKey, nil),
		TokenID:   tokenID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyAccessToken decrypts and validates a PASETO access token.
// Returns the claims if valid, or an error if the token is invalid or expired.
// Revocation is checked separately against the session registry.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.UserID <= 0 || claims.TokenID == "" {
		return nil, errors.New("invalid token: missing user or token id")
	}

	return &claims, nil
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessTokenDuration
}
