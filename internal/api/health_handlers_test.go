package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, CacheNoStore, resp.Header().Get("Cache-Control"))

	env := decode[HealthResponse](t, resp.Body)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
}

func TestHealthCheck_SearchDisabled(t *testing.T) {
	ts := setupTestServer(t, testServerOptions{noSearch: true})

	resp := ts.api.Get("/health")

	assert.Equal(t, http.StatusOK, resp.Code)
	env := decode[HealthResponse](t, resp.Body)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "disabled", env.Data.Components["search"].Status)
}
