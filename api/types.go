// Package api defines the gateway's wire-level request/response DTOs (§3,
// §6): the OpenAI-compatible chat completion shape, the search endpoints,
// the model listing, and the shared error envelope.
package api

import "encoding/json"

// =============================================================================
// Chat completions (§6.4)
// =============================================================================

// Message is one entry in a ChatRequest's conversation (§3).
type Message struct {
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	Name       string          `json:"name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
}

// ChatRequest is the normalized OpenAI-style request shape (§3). SessionID
// is consumed by the gateway for billing attribution and never forwarded
// upstream.
type ChatRequest struct {
	Model            string          `json:"model"`
	Messages         []Message       `json:"messages"`
	Temperature      *float32        `json:"temperature,omitempty"`
	TopP             *float32        `json:"top_p,omitempty"`
	MaxTokens        int             `json:"max_tokens,omitempty"`
	Stream           bool            `json:"stream,omitempty"`
	Stop             []string        `json:"stop,omitempty"`
	Tools            json.RawMessage `json:"tools,omitempty"`
	ToolChoice       json.RawMessage `json:"tool_choice,omitempty"`
	PresencePenalty  *float32        `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float32        `json:"frequency_penalty,omitempty"`
	User             string          `json:"user,omitempty"`
	SessionID        *string         `json:"session_id,omitempty"`
}

// ChatResponseUsage mirrors llmproxy.TokenUsage for the wire response.
type ChatResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatChoice is a single completion choice (§6.4).
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// ChatResponse is the OpenAI-compatible non-streaming response body.
// Provider is also surfaced out-of-band via the X-Kortix-Provider header
// (§6.4).
type ChatResponse struct {
	ID      string            `json:"id"`
	Model   string            `json:"model"`
	Choices []ChatChoice      `json:"choices"`
	Usage   ChatResponseUsage `json:"usage"`
}

// =============================================================================
// Web / image search (§6.2, §6.3)
// =============================================================================

// WebSearchRequest is the /web-search request body.
type WebSearchRequest struct {
	Query       string  `json:"query"`
	MaxResults  int     `json:"max_results,omitempty"`
	SearchDepth string  `json:"search_depth,omitempty"`
	SessionID   *string `json:"session_id,omitempty"`
}

// WebSearchResult is one normalized web search hit (§3).
type WebSearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Snippet       string  `json:"snippet"`
	PublishedDate *string `json:"published_date"`
}

// WebSearchResponse is the /web-search response body.
type WebSearchResponse struct {
	Results []WebSearchResult `json:"results"`
	Query   string            `json:"query"`
	Cost    float64           `json:"cost"`
}

// ImageSearchRequest is the /image-search request body.
type ImageSearchRequest struct {
	Query      string  `json:"query"`
	MaxResults int     `json:"max_results,omitempty"`
	SafeSearch *bool   `json:"safe_search,omitempty"`
	SessionID  *string `json:"session_id,omitempty"`
}

// ImageSearchResult is one normalized image search hit (§3).
type ImageSearchResult struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail_url"`
	SourceURL string `json:"source_url"`
	Width     *int   `json:"width"`
	Height    *int   `json:"height"`
}

// ImageSearchResponse is the /image-search response body.
type ImageSearchResponse struct {
	Results []ImageSearchResult `json:"results"`
	Query   string              `json:"query"`
	Cost    float64             `json:"cost"`
}

// =============================================================================
// Model catalog (§6.1)
// =============================================================================

// ModelEntry describes one catalog entry returned by /v1/models and
// /v1/models/:id.
type ModelEntry struct {
	ID                string  `json:"id"`
	Provider          string  `json:"provider"`
	Tier              string  `json:"tier"`
	InputPer1MTokens  float64 `json:"input_per_1m_tokens"`
	OutputPer1MTokens float64 `json:"output_per_1m_tokens"`
	ContextWindow     int     `json:"context_window"`
}

// ModelListResponse is the /v1/models response body.
type ModelListResponse struct {
	Models []ModelEntry `json:"models"`
}

// =============================================================================
// Health (§6.1)
// =============================================================================

// HealthResponse is the unauthenticated /health response body.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Env       string `json:"env"`
}

// =============================================================================
// Error envelope (§6.6)
// =============================================================================

// ErrorEnvelope is the uniform shape of every non-streaming error
// response.
type ErrorEnvelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}
