package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminListUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/users",
		Summary:     "List users",
		Description: "Lists every account (staff only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "adminCreateUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/users",
		Summary:       "Create user",
		Description:   "Creates an account, optionally with staff rights (staff only)",
		Tags:          []string{"Admin"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAdminCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminGetUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/users/{id}",
		Summary:     "Get user",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminUpdateUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/admin/users/{id}",
		Summary:     "Update user",
		Description: "Changes name, password, active or staff flags. Deactivation signs the user out everywhere.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminUpdateUser)
}

// === DTOs ===

// AdminUserResponse contains the full account view for administrators.
type AdminUserResponse struct {
	ID          int64      `json:"id" doc:"User ID"`
	Email       string     `json:"email" doc:"Email address"`
	Name        string     `json:"name" doc:"Display name"`
	IsActive    bool       `json:"is_active" doc:"Whether the account can sign in"`
	IsStaff     bool       `json:"is_staff" doc:"Whether the account can use the admin API"`
	IsSuperuser bool       `json:"is_superuser" doc:"Whether the account is a superuser"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" doc:"Last successful sign-in"`
	CreatedAt   time.Time  `json:"created_at" doc:"Creation time"`
}

// AdminListUsersResponse contains every account.
type AdminListUsersResponse struct {
	Users []AdminUserResponse `json:"users" doc:"List of users"`
}

// AdminListUsersOutput wraps the list response for Huma.
type AdminListUsersOutput struct {
	Body AdminListUsersResponse
}

// AdminUserOutput wraps a single account for Huma.
type AdminUserOutput struct {
	Body AdminUserResponse
}

// AdminCreateUserRequest is the request body for an administrator-created account.
type AdminCreateUserRequest struct {
	Email    string `json:"email,omitempty" doc:"Email address"`
	Password string `json:"password,omitempty" doc:"Password, at least 5 characters"`
	Name     string `json:"name,omitempty" doc:"Display name"`
	IsStaff  bool   `json:"is_staff,omitempty" doc:"Grant staff rights"`
}

// AdminCreateUserInput wraps the create request for Huma.
type AdminCreateUserInput struct {
	Authorization string `header:"Authorization"`
	Body          AdminCreateUserRequest
}

// AdminUserIDInput addresses a single account.
type AdminUserIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"User ID"`
}

// AdminUpdateUserRequest is the request body for an administrative change.
type AdminUpdateUserRequest struct {
	Name     *string `json:"name,omitempty" doc:"Display name"`
	Password *string `json:"password,omitempty" doc:"New password"`
	IsActive *bool   `json:"is_active,omitempty" doc:"Activate or deactivate"`
	IsStaff  *bool   `json:"is_staff,omitempty" doc:"Grant or revoke staff rights"`
}

// AdminUpdateUserInput wraps the update request for Huma.
type AdminUpdateUserInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"User ID"`
	Body          AdminUpdateUserRequest
}

func toAdminUserResponse(u *domain.User) AdminUserResponse {
	return AdminUserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// === Handlers ===

func (s *Server) handleAdminListUsers(ctx context.Context, input *AuthenticatedInput) (*AdminListUsersOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	users, err := s.services.Admin.ListUsers(ctx, p)
	if err != nil {
		return nil, err
	}

	resp := make([]AdminUserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toAdminUserResponse(u))
	}
	return &AdminListUsersOutput{Body: AdminListUsersResponse{Users: resp}}, nil
}

func (s *Server) handleAdminCreateUser(ctx context.Context, input *AdminCreateUserInput) (*AdminUserOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.CreateUser(ctx, p, service.CreateUserRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
		IsStaff:  input.Body.IsStaff,
	})
	if err != nil {
		return nil, err
	}
	return &AdminUserOutput{Body: toAdminUserResponse(user)}, nil
}

func (s *Server) handleAdminGetUser(ctx context.Context, input *AdminUserIDInput) (*AdminUserOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.GetUser(ctx, p, input.ID)
	if err != nil {
		return nil, err
	}
	return &AdminUserOutput{Body: toAdminUserResponse(user)}, nil
}

func (s *Server) handleAdminUpdateUser(ctx context.Context, input *AdminUpdateUserInput) (*AdminUserOutput, error) {
	p, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.UpdateUser(ctx, p, input.ID, service.UpdateUserRequest{
		Name:     input.Body.Name,
		Password: input.Body.Password,
		IsActive: input.Body.IsActive,
		IsStaff:  input.Body.IsStaff,
	})
	if err != nil {
		return nil, err
	}
	return &AdminUserOutput{Body: toAdminUserResponse(user)}, nil
}
