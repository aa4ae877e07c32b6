// Package llmproxy implements the chat completions proxy (C7): request
// normalization, provider dispatch (OpenAI passthrough or Anthropic
// Messages API translation), streaming SSE forwarding, usage extraction,
// and cost calculation (§4.7).
package llmproxy

import "encoding/json"

// Message is one normalized chat message (§3). Only the fields the
// gateway actually inspects are typed; tool-call fields are opaque and
// pass through to the provider untouched (§1: "pass-through of tool-call
// fields" is in scope, orchestration is not).
type Message struct {
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	Name       string          `json:"name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
}

// ChatRequest is the gateway's normalized, OpenAI-shaped inbound request
// (§3, §4.7.1). It is the wire shape clients submit regardless of which
// upstream provider eventually serves it.
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
}

// TokenUsage is the normalized usage block returned with every completion
// (§3, §4.7.4).
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one normalized completion choice (§3).
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse is the gateway's normalized, OpenAI-shaped outbound
// response, regardless of which upstream dialect produced it (§3, §4.7.2).
type ChatResponse struct {
	ID      string     `json:"id"`
	Model   string     `json:"model"`
	Choices []Choice   `json:"choices"`
	Usage   TokenUsage `json:"usage"`

	// cost and provider never round-trip to the client verbatim; they
	// drive billing and are logged separately by the caller.
	Cost     float64 `json:"-"`
	Provider string  `json:"-"`
}

// StreamEvent is one item of a normalized SSE stream: either a content
// delta, a final usage/cost summary, or a terminal error (§4.7.3).
type StreamEvent struct {
	ID           string
	Model        string
	DeltaContent string
	FinishReason string
	Done         bool
	Usage        *TokenUsage
	Cost         float64
	Err          error
}
