package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Register user",
		Description:   "Creates a new active user account",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimitByIP},
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "createToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/token",
		Summary:     "Obtain token",
		Description: "Exchanges email and password for a bearer token",
		Tags:        []string{"Users"},
		Middlewares: huma.Middlewares{s.rateLimitByIP},
	}, s.handleCreateToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeToken",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/token",
		Summary:     "Revoke token",
		Description: "Revokes the token used to make this request",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRevokeToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Update current user",
		Description: "Updates the authenticated user's name or password. A password change signs out every other session.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentUser)
}

// === DTOs ===

// UserResponse contains user data in API responses. The password is write-only.
type UserResponse struct {
	ID    int64  `json:"id" doc:"User ID"`
	Email string `json:"email" doc:"Email address"`
	Name  string `json:"name" doc:"Display name"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// CreateUserRequest is the request body for registration.
type CreateUserRequest struct {
	Email    string `json:"email,omitempty" doc:"Email address"`
	Password string `json:"password,omitempty" doc:"Password, at least 5 characters"`
	Name     string `json:"name,omitempty" doc:"Display name"`
}

// CreateUserInput wraps the registration request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// TokenRequest is the request body for obtaining a token.
type TokenRequest struct {
	Email    string `json:"email,omitempty" doc:"Email address"`
	Password string `json:"password,omitempty" doc:"Password"`
}

// TokenInput wraps the token request with client headers for Huma.
type TokenInput struct {
	Body          TokenRequest
	UserAgent     string `header:"User-Agent"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// TokenResponse contains an issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token" doc:"Bearer token"`
	ExpiresAt time.Time `json:"expires_at" doc:"Token expiry"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

// AuthenticatedInput carries only the Authorization header.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization"`
}

// MessageResponse is a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// UpdateCurrentUserRequest is the request body for a profile change.
type UpdateCurrentUserRequest struct {
	Name     *string `json:"name,omitempty" doc:"New display name"`
	Password *string `json:"password,omitempty" doc:"New password, at least 5 characters"`
}

// UpdateCurrentUserInput wraps the profile change for Huma.
type UpdateCurrentUserInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateCurrentUserRequest
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleCreateToken(ctx context.Context, input *TokenInput) (*TokenOutput, error) {
	resp, err := s.services.Auth.IssueToken(ctx, service.TokenRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	}, service.ClientInfo{
		UserAgent: input.UserAgent,
		IPAddress: clientIP(input.XForwardedFor, input.XRealIP, ""),
	})
	if err != nil {
		return nil, err
	}
	return &TokenOutput{Body: TokenResponse{Token: resp.Token, ExpiresAt: resp.ExpiresAt}}, nil
}

func (s *Server) handleRevokeToken(ctx context.Context, input *AuthenticatedInput) (*MessageOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := s.services.Auth.Logout(ctx, p); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "token revoked"}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *AuthenticatedInput) (*UserOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Auth.Profile(ctx, p)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateCurrentUserInput) (*UserOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Auth.UpdateProfile(ctx, p, service.UpdateProfileRequest{
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}
