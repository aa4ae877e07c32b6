// Package search implements the web and image search adapters (C6): each
// translates a normalized request into an upstream POST and normalizes the
// response, independent of the upstream's own shape (§4.6).
package search

// Result is a normalized web search result (§3). Missing optional fields
// map to nil, never to empty strings.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Snippet       string  `json:"snippet"`
	PublishedDate *string `json:"published_date"`
}

// ImageResult is a normalized image search result (§3).
type ImageResult struct {
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	SourceURL    string  `json:"source_url"`
	Width        *int    `json:"width"`
	Height       *int    `json:"height"`
}

// Depth is the web search's quality/cost tier (§6.2).
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)
