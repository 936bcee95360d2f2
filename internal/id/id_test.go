package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("tok")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(id, "tok-"))
	nanoidPart := strings.TrimPrefix(id, "tok-")
	assert.Len(t, nanoidPart, 21, "NanoID part should be 21 characters")

	for _, char := range nanoidPart {
		assert.True(t,
			(char >= 'A' && char <= 'Z') ||
				(char >= 'a' && char <= 'z') ||
				(char >= '0' && char <= '9') ||
				char == '_' || char == '-',
			"Character %c should be URL-safe", char)
	}
}

func TestMustGenerate_Format(t *testing.T) {
	id := MustGenerate("test")

	assert.True(t, strings.HasPrefix(id, "test-"))
	assert.Equal(t, len("test")+1+21, len(id))
}

func TestTokenID(t *testing.T) {
	a, err := TokenID()
	require.NoError(t, err)
	b, err := TokenID()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "tok-"))
	assert.NotEqual(t, a, b)
}

func TestImageFileName(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"jpg", ".jpg"},
		{".png", ".png"},
		{"WEBP", ".webp"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			name := ImageFileName(tt.ext)
			require.True(t, strings.HasSuffix(name, tt.want), name)

			_, err := uuid.Parse(strings.TrimSuffix(name, tt.want))
			assert.NoError(t, err)
		})
	}

	assert.NotEqual(t, ImageFileName("jpg"), ImageFileName("jpg"))
}
