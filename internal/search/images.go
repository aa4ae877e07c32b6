package search

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/kortix/gateway/gatewayerr"
	"go.uber.org/zap"
)

const maxImageResults = 20

// ImageAdapter implements Execute(query, maxResults, safeSearch) for image
// search (§4.6, §6.3), sharing the same upstream as WebAdapter but a
// distinct endpoint and response shape.
type ImageAdapter struct {
	client *resty.Client
	apiKey string
	logger *zap.Logger
}

// NewImageAdapter builds an ImageAdapter against baseURL/apiKey.
func NewImageAdapter(baseURL, apiKey string, logger *zap.Logger) *ImageAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageAdapter{
		client: resty.New().SetBaseURL(baseURL),
		apiKey: apiKey,
		logger: logger.With(zap.String("component", "image_search")),
	}
}

type imageSearchRequestBody struct {
	APIKey          string `json:"api_key"`
	Query           string `json:"query"`
	IncludeImages   bool   `json:"include_images"`
	MaxImageResults int    `json:"max_results"`
	SafeSearch      bool   `json:"safe_search"`
}

type imageSearchUpstreamResult struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Source    string `json:"source_url"`
	Width     *int   `json:"width"`
	Height    *int   `json:"height"`
}

type imageSearchResponseBody struct {
	Images []imageSearchUpstreamResult `json:"images"`
}

// Execute performs an image search, clamping maxResults to the documented
// upstream maximum (§4.6). safeSearch threads the request's §6.3
// safe_search flag through to the upstream unchanged.
func (a *ImageAdapter) Execute(ctx context.Context, query string, maxResults int, safeSearch bool) ([]ImageResult, error) {
	if maxResults > maxImageResults {
		maxResults = maxImageResults
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	var body imageSearchResponseBody
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(imageSearchRequestBody{
			APIKey:          a.apiKey,
			Query:           query,
			IncludeImages:   true,
			MaxImageResults: maxResults,
			SafeSearch:      safeSearch,
		}).
		SetResult(&body).
		Post("/search")

	if err != nil {
		a.logger.Error("image search request failed", zap.Error(err))
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "image search upstream unreachable").WithCause(err)
	}
	if resp.IsError() {
		return nil, classifyUpstreamError(resp.StatusCode(), truncate(resp.String(), 500))
	}

	results := make([]ImageResult, 0, len(body.Images))
	for _, r := range body.Images {
		results = append(results, ImageResult{
			Title:        r.Title,
			URL:          r.URL,
			ThumbnailURL: r.Thumbnail,
			SourceURL:    r.Source,
			Width:        r.Width,
			Height:       r.Height,
		})
	}
	return results, nil
}
