package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	Success(w, map[string]string{"image": "/media/recipe/a.png"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	out := decode(t, w)
	assert.EqualValues(t, 1, out["v"])
	assert.Equal(t, true, out["success"])
	assert.Equal(t, map[string]any{"image": "/media/recipe/a.png"}, out["data"])
	assert.NotContains(t, out, "error")
}

func TestJSON_StatusDrivesSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusNotFound, map[string]string{"k": "v"}, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestError_SimpleEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
	}{
		{"not found", func(w http.ResponseWriter) { NotFound(w, "image not found", nil) }, http.StatusNotFound},
		{"method not allowed", func(w http.ResponseWriter) { MethodNotAllowed(w, "method not allowed", nil) }, http.StatusMethodNotAllowed},
		{"custom", func(w http.ResponseWriter) { Error(w, http.StatusTeapot, "short and stout", nil) }, http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			out := decode(t, w)
			assert.EqualValues(t, 1, out["v"])
			assert.Equal(t, false, out["success"])
			assert.IsType(t, "", out["error"])
			assert.NotContains(t, out, "data")
		})
	}
}

func TestHandleError_DomainError(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.FieldError("image", "upload a valid image"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "VALIDATION", out["code"])
	assert.Equal(t, "image: upload a valid image", out["message"])
	assert.Equal(t, map[string]any{"image": "upload a valid image"}, out["details"])
}

func TestHandleError_WrappedDomainError(t *testing.T) {
	w := httptest.NewRecorder()
	err := errors.Join(errors.New("context"), domainerrors.NotFound("recipe not found"))
	HandleError(w, err, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
}

func TestHandleError_UnknownIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, errors.New("disk on fire"), slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	out := decode(t, w)
	assert.Equal(t, "INTERNAL", out["code"])
	assert.Equal(t, "internal server error", out["message"])
}
