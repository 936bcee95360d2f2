package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/validation"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=128"`
	Name     string `json:"name" validate:"notblank,max=255"`
}

type recipeRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	TimeMinutes *int    `json:"time_minutes,omitempty" validate:"omitempty,gte=0"`
	Link        string  `json:"link" validate:"omitempty,url,max=255"`
	Tags        []int64 `json:"tags" validate:"dive,gt=0"`
}

func ptr[T any](v T) *T { return &v }

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(registerRequest{
		Email:    "test@example.com",
		Password: "secret1",
		Name:     "Test User",
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{
			name:      "blank name",
			req:       registerRequest{Email: "a@x.com", Password: "secret1", Name: "   "},
			wantField: "name",
			wantMsg:   "this field is required",
		},
		{
			name:      "invalid email",
			req:       registerRequest{Email: "not-an-email", Password: "secret1", Name: "A"},
			wantField: "email",
			wantMsg:   "enter a valid email address",
		},
		{
			name:      "password too short",
			req:       registerRequest{Email: "a@x.com", Password: "pw", Name: "A"},
			wantField: "password",
			wantMsg:   "ensure this field has at least 5 characters",
		},
		{
			name:      "negative time",
			req:       recipeRequest{TimeMinutes: ptr(-1)},
			wantField: "time_minutes",
			wantMsg:   "ensure this value is greater than or equal to 0",
		},
		{
			name:      "blank title pointer",
			req:       recipeRequest{Title: ptr("")},
			wantField: "title",
			wantMsg:   "this field is required",
		},
		{
			name:      "bad link",
			req:       recipeRequest{Link: "not a url"},
			wantField: "link",
			wantMsg:   "enter a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Equal(t, 400, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_NilPointersAreSkipped(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(recipeRequest{}))
}

func TestValidator_SliceElements(t *testing.T) {
	v := validation.New()

	err := v.Validate(recipeRequest{Tags: []int64{1, 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags[1]")
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(registerRequest{Password: "secret1", Name: "Test"})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "email")
	assert.NotContains(t, err.Error(), "Email")
}

func TestValidator_MessageIsSorted(t *testing.T) {
	v := validation.New()

	err := v.Validate(registerRequest{})
	require.Error(t, err)
	assert.Equal(t,
		"email: this field is required; name: this field is required; password: this field is required",
		err.Error())
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("link", "https://example.com/pie", "url"))

	err := v.Var("link", "pie", "url")
	require.Error(t, err)
	assert.Equal(t, "link: enter a valid URL", err.Error())
}
