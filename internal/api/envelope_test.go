package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/recipes-server/internal/http/response"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{name: "success response", status: "200", input: map[string]string{"key": "value"}},
		{name: "created response", status: "201", input: map[string]int{"id": 1}},
		{name: "no content response", status: "204", input: nil},
		{name: "plain error", status: "400", input: errors.New("invalid input")},
		{name: "simple api error", status: "404", input: &APIError{Message: "recipe not found"}},
		{
			name:   "validation error with details",
			status: "400",
			input: &APIError{
				Code:    "VALIDATION",
				Message: "price: ensure this value is greater than or equal to 0",
				Details: map[string]string{"price": "ensure this value is greater than or equal to 0"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))

			require.Contains(t, envelope, "v", "envelope must contain version field 'v'")
			assert.Equal(t, float64(response.Version), envelope["v"])
			assert.Contains(t, envelope, "success")
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"name": "Vegan"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(successEnvelope)
	require.True(t, ok, "expected successEnvelope")

	assert.Equal(t, response.Version, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
}

func TestEnvelopeTransformer_ErrorResponse(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", errors.New("validation failed"))
	require.NoError(t, err)

	envelope, ok := result.(errorEnvelope)
	require.True(t, ok, "expected errorEnvelope")

	assert.False(t, envelope.Success)
	assert.Equal(t, "validation failed", envelope.Error)
}

func TestEnvelopeTransformer_CodeWithoutDetails(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "401", &APIError{
		Code:    "UNAUTHORIZED",
		Message: "authentication credentials were not provided",
	})
	require.NoError(t, err)

	envelope, ok := result.(detailedErrorEnvelope)
	require.True(t, ok, "expected detailedErrorEnvelope")

	assert.False(t, envelope.Success)
	assert.Equal(t, "UNAUTHORIZED", envelope.Code)
	assert.Nil(t, envelope.Details)
}

func TestEnvelopeTransformer_ErrorWithDetails(t *testing.T) {
	apiErr := &APIError{
		Code:    "VALIDATION",
		Message: "tags: invalid pk \"9\" - object does not exist",
		Details: map[string]string{"tags": `invalid pk "9" - object does not exist`},
	}

	result, err := EnvelopeTransformer(nil, "400", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(detailedErrorEnvelope)
	require.True(t, ok, "expected detailedErrorEnvelope")

	assert.Equal(t, response.Version, envelope.Version)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, apiErr.Message, envelope.Message)
	assert.Equal(t, apiErr.Details, envelope.Details)
}
