package llmproxy

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/kortix/gateway/gatewayerr"
	"github.com/kortix/gateway/internal/providers"
)

// openAIRequestBody is the provider-local wire shape for the aggregator
// and every OpenAI-family/xAI/groq/gemini binding (§4.7.1). Gateway-private
// fields (session_id) are never included; model is rewritten to the
// provider-local id before marshalling.
type openAIRequestBody struct {
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

type openAIUsage struct {
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	TotalTokens      int      `json:"total_tokens"`
	TotalCost        *float64 `json:"total_cost,omitempty"`
}

type openAIChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
	Delta        *struct {
		Content string `json:"content"`
	} `json:"delta,omitempty"`
}

type openAIResponseBody struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   *openAIUsage   `json:"usage,omitempty"`
}

func buildOpenAIRequestBody(req ChatRequest, modelID string) openAIRequestBody {
	return openAIRequestBody{
		Model:            modelID,
		Messages:         req.Messages,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		MaxTokens:        req.MaxTokens,
		Stream:           req.Stream,
		Stop:             req.Stop,
		Tools:            req.Tools,
		ToolChoice:       req.ToolChoice,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		User:             req.User,
	}
}

// openAINonStreaming implements the non-streaming half of §4.7.2 for any
// OpenAI-dialect provider.
func openAINonStreaming(ctx context.Context, client *http.Client, resolved *providers.Resolved, req ChatRequest) (*ChatResponse, error) {
	body := buildOpenAIRequestBody(req, resolved.ModelID)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.Internal, "marshal request").WithCause(err)
	}

	httpReq, err := newUpstreamRequest(ctx, resolved, "/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "provider unreachable").WithCause(err).WithRetryable(true).WithProvider(string(resolved.Provider.Name))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, providerHTTPError(resp, resolved.Provider.Name)
	}

	var oa openAIResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&oa); err != nil {
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "decode provider response").WithCause(err).WithProvider(string(resolved.Provider.Name))
	}

	choices := make([]Choice, 0, len(oa.Choices))
	for _, c := range oa.Choices {
		choices = append(choices, Choice{Index: c.Index, Message: c.Message, FinishReason: c.FinishReason})
	}

	usage := TokenUsage{}
	var reportedCost *float64
	if oa.Usage != nil {
		usage = TokenUsage{
			PromptTokens:     oa.Usage.PromptTokens,
			CompletionTokens: oa.Usage.CompletionTokens,
			TotalTokens:      oa.Usage.TotalTokens,
		}
		reportedCost = oa.Usage.TotalCost
	}

	cost := calculateLLMCost(resolved, usage.PromptTokens, usage.CompletionTokens, reportedCost)

	return &ChatResponse{
		ID:       oa.ID,
		Model:    oa.Model,
		Choices:  choices,
		Usage:    usage,
		Cost:     cost.InexactFloat64(),
		Provider: string(resolved.Provider.Name),
	}, nil
}

// openAIStreaming implements the Aggregator/OpenAI-family sub-machine of
// §4.7.3: forward each SSE record verbatim, inspecting usage along the way.
func openAIStreaming(ctx context.Context, client *http.Client, resolved *providers.Resolved, req ChatRequest) (<-chan StreamEvent, error) {
	body := buildOpenAIRequestBody(req, resolved.ModelID)
	body.Stream = true
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.Internal, "marshal request").WithCause(err)
	}

	httpReq, err := newUpstreamRequest(ctx, resolved, "/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "provider unreachable").WithCause(err).WithRetryable(true).WithProvider(string(resolved.Provider.Name))
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, providerHTTPError(resp, resolved.Provider.Name)
	}

	ch := make(chan StreamEvent)
	go streamOpenAISSE(ctx, resp.Body, resolved, ch)
	return ch, nil
}

// streamOpenAISSE reads upstream body split on the SSE record separator
// and forwards each event, tracking the last-seen usage block for
// post-stream billing.
func streamOpenAISSE(ctx context.Context, body io.ReadCloser, resolved *providers.Resolved, ch chan<- StreamEvent) {
	defer body.Close()
	defer close(ch)

	reader := bufio.NewReader(body)
	var lastUsage *TokenUsage
	var reportedCost *float64
	var model, id string

	emit := func(ev StreamEvent) bool {
		select {
		case <-ctx.Done():
			return false
		case ch <- ev:
			return true
		}
	}

	for {
		line, readErr := reader.ReadString('\n')
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}
			if data != "" {
				var chunk openAIResponseBody
				if err := json.Unmarshal([]byte(data), &chunk); err == nil {
					if chunk.ID != "" {
						id = chunk.ID
					}
					if chunk.Model != "" {
						model = chunk.Model
					}
					if chunk.Usage != nil {
						lastUsage = &TokenUsage{
							PromptTokens:     chunk.Usage.PromptTokens,
							CompletionTokens: chunk.Usage.CompletionTokens,
							TotalTokens:      chunk.Usage.TotalTokens,
						}
						reportedCost = chunk.Usage.TotalCost
					}
					for _, c := range chunk.Choices {
						delta := ""
						if c.Delta != nil {
							delta = c.Delta.Content
						}
						if !emit(StreamEvent{ID: chunk.ID, Model: chunk.Model, DeltaContent: delta, FinishReason: c.FinishReason}) {
							return
						}
					}
				}
			}
		}

		if readErr != nil {
			if readErr != io.EOF {
				emit(StreamEvent{Err: gatewayerr.New(gatewayerr.UpstreamError, "stream read failed").WithCause(readErr).WithProvider(string(resolved.Provider.Name))})
				return
			}
			break
		}
	}

	cost := calculateLLMCost(resolved, usagePromptTokens(lastUsage), usageCompletionTokens(lastUsage), reportedCost)
	emit(StreamEvent{ID: id, Model: model, Done: true, Usage: lastUsage, Cost: cost.InexactFloat64()})
}

func usagePromptTokens(u *TokenUsage) int {
	if u == nil {
		return 0
	}
	return u.PromptTokens
}

func usageCompletionTokens(u *TokenUsage) int {
	if u == nil {
		return 0
	}
	return u.CompletionTokens
}

// newUpstreamRequest builds the HTTP request for an OpenAI-dialect
// provider, applying its auth style and extra headers.
func newUpstreamRequest(ctx context.Context, resolved *providers.Resolved, path string, payload []byte) (*http.Request, error) {
	url := strings.TrimRight(resolved.Provider.BaseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.Internal, "build upstream request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	switch resolved.Provider.AuthStyle {
	case providers.AuthBearer:
		httpReq.Header.Set("Authorization", "Bearer "+resolved.Provider.APIKey)
	case providers.AuthAPIKeyHeader:
		httpReq.Header.Set("x-api-key", resolved.Provider.APIKey)
	}
	for k, v := range resolved.Provider.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// providerHTTPError maps a non-2xx upstream response to a gatewayerr,
// capturing status and a truncated body snippet (§4.7.2, §6).
func providerHTTPError(resp *http.Response, provider providers.Name) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	return gatewayerr.Newf(gatewayerr.UpstreamError, "provider %s returned %d: %s", provider, resp.StatusCode, string(data)).
		WithHTTPStatus(http.StatusBadGateway).
		WithProvider(string(provider)).
		WithRetryable(resp.StatusCode >= 500)
}
