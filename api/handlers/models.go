package handlers

import (
	"net/http"

	"github.com/kortix/gateway/api"
	"github.com/kortix/gateway/gatewayerr"
	"github.com/kortix/gateway/internal/providers"
)

// ModelsHandler serves /v1/models and /v1/models/:id (§6.1) over the
// static model catalog — no upstream call, no billing.
type ModelsHandler struct {
	catalog map[string]providers.ModelConfig
}

// NewModelsHandler builds a ModelsHandler over the process-wide catalog.
func NewModelsHandler(catalog map[string]providers.ModelConfig) *ModelsHandler {
	return &ModelsHandler{catalog: catalog}
}

// HandleList responds with every catalog entry (§6.1).
func (h *ModelsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries := make([]api.ModelEntry, 0, len(h.catalog))
	for id, m := range h.catalog {
		entries = append(entries, modelEntry(id, m))
	}
	WriteSuccess(w, api.ModelListResponse{Models: entries})
}

// HandleGet responds with one catalog entry, or 404 if id is unknown
// (§6.1).
func (h *ModelsHandler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	m, ok := h.catalog[id]
	if !ok {
		WriteError(w, gatewayerr.Newf(gatewayerr.NotFound, "unknown model %q", id), nil)
		return
	}
	WriteSuccess(w, modelEntry(id, m))
}

func modelEntry(id string, m providers.ModelConfig) api.ModelEntry {
	return api.ModelEntry{
		ID:                id,
		Provider:          string(m.ProviderBinding),
		Tier:              string(m.Tier),
		InputPer1MTokens:  m.InputPer1MTokens,
		OutputPer1MTokens: m.OutputPer1MTokens,
		ContextWindow:     m.ContextWindow,
	}
}
