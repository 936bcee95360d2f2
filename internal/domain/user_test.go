package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_CanAuthenticate(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected bool
	}{
		{"active user", User{IsActive: true}, true},
		{"inactive user", User{}, false},
		{"inactive superuser", User{IsSuperuser: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.CanAuthenticate())
		})
	}
}

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected bool
	}{
		{"staff", User{IsStaff: true}, true},
		{"superuser counts as staff", User{IsSuperuser: true}, true},
		{"regular user", User{IsActive: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.IsAdmin())
		})
	}
}

func TestUserUpdate_Empty(t *testing.T) {
	assert.True(t, UserUpdate{}.Empty())

	active := false
	assert.False(t, UserUpdate{IsActive: &active}.Empty())
}
