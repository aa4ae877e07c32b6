package handlers

import (
	"net/http"

	"github.com/kortix/gateway/api"
	"github.com/kortix/gateway/gatewayerr"
	"github.com/kortix/gateway/internal/auth"
	"github.com/kortix/gateway/internal/billing"
	"github.com/kortix/gateway/internal/metrics"
	"github.com/kortix/gateway/internal/search"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WebSearchHandler serves /web-search (§4.6, §6.2).
type WebSearchHandler struct {
	adapter *search.WebAdapter
	billing *billing.Service
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewWebSearchHandler builds a WebSearchHandler.
func NewWebSearchHandler(adapter *search.WebAdapter, billingSvc *billing.Service, logger *zap.Logger) *WebSearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSearchHandler{adapter: adapter, billing: billingSvc, logger: logger.With(zap.String("component", "web_search_handler"))}
}

// SetMetrics attaches a metrics.Collector so search calls are recorded.
func (h *WebSearchHandler) SetMetrics(c *metrics.Collector) {
	h.metrics = c
}

// HandleSearch validates the request, runs the credit pre-check, performs
// the upstream search, and debits the web_search_basic/advanced tool cost
// regardless of how many results came back (§4.4, §4.6).
func (h *WebSearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.WebSearchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Query == "" {
		WriteError(w, gatewayerr.New(gatewayerr.BadRequest, "query is required"), h.logger)
		return
	}
	if req.MaxResults < 0 || req.MaxResults > 10 {
		WriteError(w, gatewayerr.New(gatewayerr.BadRequest, "max_results must be between 1 and 10"), h.logger)
		return
	}
	depth := search.Depth(req.SearchDepth)
	if depth == "" {
		depth = search.DepthBasic
	}
	if depth != search.DepthBasic && depth != search.DepthAdvanced {
		WriteError(w, gatewayerr.New(gatewayerr.BadRequest, "search_depth must be \"basic\" or \"advanced\""), h.logger)
		return
	}
	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = 5
	}

	accountID, _ := auth.AccountID(r.Context())
	if err := h.checkCredits(r, accountID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	tool := billing.ToolWebSearchBasic
	if depth == search.DepthAdvanced {
		tool = billing.ToolWebSearchAdvanced
	}

	results, err := h.adapter.Execute(r.Context(), req.Query, maxResults, depth)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordSearchRequest(string(tool), "error")
		}
		WriteError(w, toGatewayErr(err), h.logger)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSearchRequest(string(tool), "ok")
	}
	cost := 0.0
	if !auth.IsTest(r.Context()) {
		outcome := h.billing.DeductToolCredits(r.Context(), accountID, tool, len(results), req.SessionID)
		cost, _ = outcome.Amount.Float64()
	}

	apiResults := make([]api.WebSearchResult, len(results))
	for i, res := range results {
		apiResults[i] = api.WebSearchResult{
			Title:         res.Title,
			URL:           res.URL,
			Snippet:       res.Snippet,
			PublishedDate: res.PublishedDate,
		}
	}
	WriteSuccess(w, api.WebSearchResponse{Results: apiResults, Query: req.Query, Cost: cost})
}

func (h *WebSearchHandler) checkCredits(r *http.Request, accountID string) *gatewayerr.Error {
	if auth.IsTest(r.Context()) {
		return nil
	}
	result, err := h.billing.CheckCredits(r.Context(), accountID, decimal.Zero)
	if err != nil {
		return toGatewayErr(err)
	}
	if !result.HasCredits {
		return gatewayerr.New(gatewayerr.InsufficientCredits, result.Message)
	}
	return nil
}

// ImageSearchHandler serves /image-search (§4.6, §6.3).
type ImageSearchHandler struct {
	adapter *search.ImageAdapter
	billing *billing.Service
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewImageSearchHandler builds an ImageSearchHandler.
func NewImageSearchHandler(adapter *search.ImageAdapter, billingSvc *billing.Service, logger *zap.Logger) *ImageSearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageSearchHandler{adapter: adapter, billing: billingSvc, logger: logger.With(zap.String("component", "image_search_handler"))}
}

// SetMetrics attaches a metrics.Collector so search calls are recorded.
func (h *ImageSearchHandler) SetMetrics(c *metrics.Collector) {
	h.metrics = c
}

// HandleSearch validates the request, runs the credit pre-check, performs
// the upstream search, and debits the image_search tool cost (§4.4, §4.6).
func (h *ImageSearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.ImageSearchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Query == "" {
		WriteError(w, gatewayerr.New(gatewayerr.BadRequest, "query is required"), h.logger)
		return
	}
	if req.MaxResults < 0 || req.MaxResults > 20 {
		WriteError(w, gatewayerr.New(gatewayerr.BadRequest, "max_results must be between 1 and 20"), h.logger)
		return
	}
	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = 5
	}

	accountID, _ := auth.AccountID(r.Context())
	if err := h.checkCredits(r, accountID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	safeSearch := true
	if req.SafeSearch != nil {
		safeSearch = *req.SafeSearch
	}

	results, err := h.adapter.Execute(r.Context(), req.Query, maxResults, safeSearch)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordSearchRequest(billing.ToolImageSearch, "error")
		}
		WriteError(w, toGatewayErr(err), h.logger)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSearchRequest(billing.ToolImageSearch, "ok")
	}

	cost := 0.0
	if !auth.IsTest(r.Context()) {
		outcome := h.billing.DeductToolCredits(r.Context(), accountID, billing.ToolImageSearch, len(results), req.SessionID)
		cost, _ = outcome.Amount.Float64()
	}

	apiResults := make([]api.ImageSearchResult, len(results))
	for i, res := range results {
		apiResults[i] = api.ImageSearchResult{
			Title:     res.Title,
			URL:       res.URL,
			Thumbnail: res.ThumbnailURL,
			SourceURL: res.SourceURL,
			Width:     res.Width,
			Height:    res.Height,
		}
	}
	WriteSuccess(w, api.ImageSearchResponse{Results: apiResults, Query: req.Query, Cost: cost})
}

func (h *ImageSearchHandler) checkCredits(r *http.Request, accountID string) *gatewayerr.Error {
	if auth.IsTest(r.Context()) {
		return nil
	}
	result, err := h.billing.CheckCredits(r.Context(), accountID, decimal.Zero)
	if err != nil {
		return toGatewayErr(err)
	}
	if !result.HasCredits {
		return gatewayerr.New(gatewayerr.InsufficientCredits, result.Message)
	}
	return nil
}
