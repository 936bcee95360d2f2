package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
)

func TestAdmin_RequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	regular := env.register(t, "user@example.com")

	_, err := env.admin.ListUsers(ctx, regular)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = env.admin.GetUser(ctx, regular, regular.UserID())
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = env.admin.CreateUser(ctx, regular, CreateUserRequest{Email: "x@example.com", Password: "testpass123", Name: "X"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestAdmin_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.staff(t, "admin@example.com")

	created, err := env.admin.CreateUser(ctx, admin, CreateUserRequest{
		Email:    "new@example.com",
		Password: "testpass123",
		Name:     "New",
		IsStaff:  true,
	})
	require.NoError(t, err)
	assert.True(t, created.IsStaff)
	assert.True(t, created.IsActive)

	users, err := env.admin.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = env.admin.CreateUser(ctx, admin, CreateUserRequest{Email: "new@example.com", Password: "testpass123", Name: "Dup"})
	require.Error(t, err)
	assert.Contains(t, details(t, err), "email")
}

func TestAdmin_DeactivateRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.staff(t, "admin@example.com")
	target := env.register(t, "target@example.com")

	resp, err := env.auth.IssueToken(ctx, TokenRequest{Email: "target@example.com", Password: "testpass123"}, client)
	require.NoError(t, err)

	updated, err := env.admin.UpdateUser(ctx, admin, target.UserID(), UpdateUserRequest{IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = env.auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAdmin_CannotDemoteSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.staff(t, "admin@example.com")

	_, err := env.admin.UpdateUser(ctx, admin, admin.UserID(), UpdateUserRequest{IsActive: ptr(false)})
	require.Error(t, err)
	assert.Contains(t, details(t, err), "is_active")

	_, err = env.admin.UpdateUser(ctx, admin, admin.UserID(), UpdateUserRequest{IsStaff: ptr(false)})
	require.Error(t, err)
	assert.Contains(t, details(t, err), "is_staff")
}

func TestAdmin_UpdateMissingUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.staff(t, "admin@example.com")

	_, err := env.admin.UpdateUser(context.Background(), admin, 9999, UpdateUserRequest{Name: ptr("Ghost")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
