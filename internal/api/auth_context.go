package api

import (
	"context"
	"strings"

	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/service"
)

// bearerToken extracts the token from an Authorization header.
// The scheme is matched case-insensitively; "Token" is accepted as an alias.
func bearerToken(authHeader string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticateRequest validates the Authorization header and returns the caller.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (*service.Principal, error) {
	if authHeader == "" {
		return nil, domainerrors.Unauthorized("authentication credentials were not provided")
	}

	token, ok := bearerToken(authHeader)
	if !ok {
		return nil, domainerrors.Unauthorized("invalid authorization header format")
	}

	return s.services.Auth.Authenticate(ctx, token)
}
