package search

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/kortix/gateway/gatewayerr"
	"go.uber.org/zap"
)

const maxWebResults = 10

// WebAdapter implements Execute(query, maxResults, depth) for web search
// (§4.6, §6.2), POSTing JSON to the configured upstream.
type WebAdapter struct {
	client *resty.Client
	apiKey string
	logger *zap.Logger
}

// NewWebAdapter builds a WebAdapter against baseURL/apiKey.
func NewWebAdapter(baseURL, apiKey string, logger *zap.Logger) *WebAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebAdapter{
		client: resty.New().SetBaseURL(baseURL),
		apiKey: apiKey,
		logger: logger.With(zap.String("component", "web_search")),
	}
}

type webSearchRequestBody struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type webSearchUpstreamResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate *string `json:"published_date"`
}

type webSearchResponseBody struct {
	Results []webSearchUpstreamResult `json:"results"`
}

// Execute performs a web search, clamping maxResults to the documented
// upstream maximum (§4.6).
func (a *WebAdapter) Execute(ctx context.Context, query string, maxResults int, depth Depth) ([]Result, error) {
	if maxResults > maxWebResults {
		maxResults = maxWebResults
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	var body webSearchResponseBody
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(webSearchRequestBody{
			APIKey:      a.apiKey,
			Query:       query,
			SearchDepth: string(depth),
			MaxResults:  maxResults,
		}).
		SetResult(&body).
		Post("/search")

	if err != nil {
		a.logger.Error("web search request failed", zap.Error(err))
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "web search upstream unreachable").WithCause(err)
	}
	if resp.IsError() {
		return nil, classifyUpstreamError(resp.StatusCode(), truncate(resp.String(), 500))
	}

	results := make([]Result, 0, len(body.Results))
	for _, r := range body.Results {
		results = append(results, Result{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       r.Content,
			PublishedDate: r.PublishedDate,
		})
	}
	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// classifyUpstreamError surfaces a non-2xx upstream status as a
// gatewayerr, classifying auth and not-found statuses rather than folding
// everything into a generic 500 (§4.6).
func classifyUpstreamError(status int, snippet string) error {
	switch status {
	case 401, 403:
		return gatewayerr.Newf(gatewayerr.AuthInvalid, "search upstream rejected credentials: %s", snippet).WithHTTPStatus(status)
	case 404:
		return gatewayerr.Newf(gatewayerr.NotFound, "search upstream: %s", snippet).WithHTTPStatus(status)
	default:
		return gatewayerr.Newf(gatewayerr.UpstreamError, "search upstream error (%d): %s", status, snippet).WithHTTPStatus(500)
	}
}
