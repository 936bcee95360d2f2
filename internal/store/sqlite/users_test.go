package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeUser(t, s, "a@x.com")
	if u.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != "a@x.com" || got.Name != "Test User" || got.PasswordHash != "hash" {
		t.Errorf("unexpected user: %+v", got)
	}
	if !got.IsActive || got.IsStaff || got.IsSuperuser {
		t.Errorf("unexpected flags: %+v", got)
	}
	if got.LastLoginAt != nil {
		t.Errorf("expected nil last login, got %v", got.LastLoginAt)
	}
}

func TestCreateUser_DuplicateEmailIgnoresCase(t *testing.T) {
	s := newTestStore(t)
	makeUser(t, s, "a@x.com")

	err := s.CreateUser(context.Background(), &domain.User{Email: "A@X.COM", PasswordHash: "h"})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "Jane@Example.com")

	got, err := s.GetUserByEmail(ctx, "jane@example.COM")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected user %d, got %d", u.ID, got.ID)
	}

	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetUser(context.Background(), 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@x.com")

	name := "New Name"
	staff := true
	got, err := s.UpdateUser(ctx, u.ID, domain.UserUpdate{Name: &name, IsStaff: &staff})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if got.Name != "New Name" || !got.IsStaff {
		t.Errorf("update not applied: %+v", got)
	}
	if got.PasswordHash != "hash" {
		t.Errorf("password hash should be untouched, got %q", got.PasswordHash)
	}

	if _, err := s.UpdateUser(ctx, 999, domain.UserUpdate{Name: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTouchLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := makeUser(t, s, "a@x.com")

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.TouchLastLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("touch: %v", err)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("expected last login %v, got %v", at, got.LastLoginAt)
	}
}

func TestListUsers_OrderedByID(t *testing.T) {
	s := newTestStore(t)
	a := makeUser(t, s, "a@x.com")
	b := makeUser(t, s, "b@x.com")

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0].ID != a.ID || users[1].ID != b.ID {
		t.Fatalf("unexpected order: %+v", users)
	}
}
