package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/recipes-server/internal/http/response"
)

// getFixturePath returns the path to the shared envelope fixtures.
// API clients parse the same JSON files.
func getFixturePath(t *testing.T) string {
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "failed to get caller info")

	// internal/api -> repository root
	root := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(root, "testdata", "envelope")
}

func loadFixture(t *testing.T, name string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(getFixturePath(t), name))
	require.NoError(t, err, "contract tests require the shared fixtures")

	var expected map[string]any
	require.NoError(t, json.Unmarshal(raw, &expected))
	return expected
}

func marshalToMap(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// assertSameKeys fails when either side has a top-level key the other lacks.
func assertSameKeys(t *testing.T, expected, actual map[string]any) {
	t.Helper()
	for key := range actual {
		assert.Contains(t, expected, key, "server output contains unexpected field: %s", key)
	}
	for key := range expected {
		assert.Contains(t, actual, key, "server output is missing field: %s", key)
	}
}

func TestEnvelopeContract_SuccessMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "success.json")

	result, err := EnvelopeTransformer(nil, "200", TagResponse{ID: 42, Name: "Vegan"})
	require.NoError(t, err)
	actual := marshalToMap(t, result)

	assertSameKeys(t, expected, actual)
	assert.Equal(t, expected["v"], actual["v"])
	assert.Equal(t, expected["success"], actual["success"])
	assert.Equal(t, expected["data"], actual["data"])
}

func TestEnvelopeContract_SuccessNullDataMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "success_null_data.json")

	result, err := EnvelopeTransformer(nil, "204", nil)
	require.NoError(t, err)
	actual := marshalToMap(t, result)

	assertSameKeys(t, expected, actual)
	assert.Equal(t, expected["success"], actual["success"])
}

func TestEnvelopeContract_SimpleErrorMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "error_simple.json")

	result, err := EnvelopeTransformer(nil, "404", &APIError{Message: "not found"})
	require.NoError(t, err)
	actual := marshalToMap(t, result)

	assertSameKeys(t, expected, actual)
	assert.Equal(t, expected["error"], actual["error"])
	assert.Equal(t, false, actual["success"])
}

func TestEnvelopeContract_DetailedErrorMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "error_detailed.json")

	result, err := EnvelopeTransformer(nil, "400", &APIError{
		Code:    "VALIDATION",
		Message: "email: user with this email already exists",
		Details: map[string]string{"email": "user with this email already exists"},
	})
	require.NoError(t, err)
	actual := marshalToMap(t, result)

	assertSameKeys(t, expected, actual)
	assert.Equal(t, expected, actual)
}

// Handlers outside huma write through the response package; both paths
// must produce the same shapes.
func TestEnvelopeContract_ResponsePackageMatchesFixtures(t *testing.T) {
	simple := marshalToMap(t, response.Envelope{Version: response.Version, Error: "not found"})
	assertSameKeys(t, loadFixture(t, "error_simple.json"), simple)

	success := marshalToMap(t, response.Envelope{
		Version: response.Version,
		Success: true,
		Data:    TagResponse{ID: 42, Name: "Vegan"},
	})
	assertSameKeys(t, loadFixture(t, "success.json"), success)
}
