package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kortix/gateway/api"
	"github.com/kortix/gateway/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_HandleHealth(t *testing.T) {
	handler := NewHealthHandler("gateway", config.EnvLocal)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.HandleHealth(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "gateway", resp.Service)
	assert.Equal(t, "local", resp.Env)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHealthHandler_ReportsConfiguredEnv(t *testing.T) {
	handler := NewHealthHandler("gateway", config.EnvProduction)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.HandleHealth(w, r)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "production", resp.Env)
}
