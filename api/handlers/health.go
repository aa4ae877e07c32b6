package handlers

import (
	"net/http"
	"time"

	"github.com/kortix/gateway/api"
	"github.com/kortix/gateway/config"
)

// HealthHandler serves the unauthenticated liveness endpoint (§6.1).
type HealthHandler struct {
	service string
	env     config.Env
}

// NewHealthHandler builds a HealthHandler. service is the fixed name
// reported in every response body.
func NewHealthHandler(service string, env config.Env) *HealthHandler {
	return &HealthHandler{service: service, env: env}
}

// HandleHealth responds 200 with {status, service, timestamp, env}. It
// performs no dependency checks: liveness here means the process is
// accepting connections, not that every upstream is reachable.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, api.HealthResponse{
		Status:    "healthy",
		Service:   h.service,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Env:       string(h.env),
	})
}
