package llmproxy

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kortix/gateway/gatewayerr"
	"github.com/kortix/gateway/internal/providers"
)

// defaultAnthropicMaxTokens is supplied when the OpenAI-shape request
// carries none, since Anthropic's Messages API requires it (§4.7.1).
const defaultAnthropicMaxTokens = 4096

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequestBody struct {
	Model         string             `json:"model"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	MaxTokens     int                `json:"max_tokens"`
	Temperature   *float32           `json:"temperature,omitempty"`
	TopP          *float32           `json:"top_p,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Stream        bool               `json:"stream,omitempty"`
	Tools         json.RawMessage    `json:"tools,omitempty"`
	ToolChoice    json.RawMessage    `json:"tool_choice,omitempty"`
}

// toAnthropicRequest implements §4.7.1's Anthropic transform: system
// messages are joined and lifted out, everything else folds to user or
// assistant with tool-role content treated as user content.
func toAnthropicRequest(req ChatRequest, modelID string) anthropicRequestBody {
	var systemParts []string
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "system" {
			systemParts = append(systemParts, m.Content)
			continue
		}
		role := m.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, anthropicMessage{Role: role, Content: m.Content})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	var stopSequences []string
	if len(req.Stop) > 0 {
		stopSequences = req.Stop
	}

	return anthropicRequestBody{
		Model:         modelID,
		System:        strings.Join(systemParts, "\n"),
		Messages:      messages,
		MaxTokens:     maxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: stopSequences,
		Tools:         req.Tools,
		ToolChoice:    req.ToolChoice,
	}
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponseBody struct {
	ID         string                  `json:"id"`
	Model      string                  `json:"model"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

// translateStopReason maps Anthropic's stop_reason onto OpenAI's
// finish_reason vocabulary (§4.7.2): end_turn becomes "stop"; anything
// else passes through unchanged.
func translateStopReason(reason string) string {
	if reason == "end_turn" {
		return "stop"
	}
	return reason
}

// fromAnthropicResponse implements the non-streaming half of the §8
// Anthropic translation round-trip.
func fromAnthropicResponse(resp anthropicResponseBody) ChatResponse {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: "assistant", Content: text.String()},
			FinishReason: translateStopReason(resp.StopReason),
		}},
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

// anthropicNonStreaming implements §4.7.2 for the Anthropic dialect.
func anthropicNonStreaming(ctx context.Context, client *http.Client, resolved *providers.Resolved, req ChatRequest) (*ChatResponse, error) {
	body := toAnthropicRequest(req, resolved.ModelID)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.Internal, "marshal request").WithCause(err)
	}

	httpReq, err := newUpstreamRequest(ctx, resolved, "/messages", payload)
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

	var ar anthropicResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, gatewayerr.New(gatewayerr.UpstreamError, "decode provider response").WithCause(err).WithProvider(string(resolved.Provider.Name))
	}

	out := fromAnthropicResponse(ar)
	cost := calculateLLMCost(resolved, out.Usage.PromptTokens, out.Usage.CompletionTokens, nil)
	out.Cost = cost.InexactFloat64()
	out.Provider = string(resolved.Provider.Name)
	return &out, nil
}

// anthropicStreaming implements the Anthropic sub-machine of §4.7.3.
func anthropicStreaming(ctx context.Context, client *http.Client, resolved *providers.Resolved, req ChatRequest) (<-chan StreamEvent, error) {
	body := toAnthropicRequest(req, resolved.ModelID)
	body.Stream = true
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, gatewayerr.New(gatewayerr.Internal, "marshal request").WithCause(err)
	}

	httpReq, err := newUpstreamRequest(ctx, resolved, "/messages", payload)
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
	go streamAnthropicSSE(ctx, resp.Body, resolved, ch)
	return ch, nil
}

// anthropicEvent is the envelope every Anthropic SSE record carries: a
// named event type plus a data payload whose shape depends on that type.
type anthropicEvent struct {
	Type  string          `json:"type"`
	Delta json.RawMessage `json:"delta"`
	Usage json.RawMessage `json:"usage"`
	// message_start nests the message object one level deeper.
	Message *struct {
		ID    string         `json:"id"`
		Model string         `json:"model"`
		Usage anthropicUsage `json:"usage"`
	} `json:"message,omitempty"`
}

type anthropicDelta struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	StopReason string `json:"stop_reason"`
}

// streamAnthropicSSE implements the Idle→Open→Done state machine
// described in §4.7.3, synthesizing OpenAI-shaped chunks from Anthropic's
// named event stream. Chunks are emitted in the exact order the upstream
// events arrive; no reordering or coalescing.
func streamAnthropicSSE(ctx context.Context, body io.ReadCloser, resolved *providers.Resolved, ch chan<- StreamEvent) {
	defer body.Close()
	defer close(ch)

	reader := bufio.NewReader(body)
	id := "chatcmpl-" + uuid.NewString()
	var model string
	var inputTokens, outputTokens int

	emit := func(ev StreamEvent) bool {
		ev.ID = id
		ev.Model = model
		select {
		case <-ctx.Done():
			return false
		case ch <- ev:
			return true
		}
	}

	var currentEventType string
	for {
		line, readErr := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		switch {
		case strings.HasPrefix(line, "event:"):
			currentEventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data != "" {
				var ev anthropicEvent
				if err := json.Unmarshal([]byte(data), &ev); err == nil {
					eventType := ev.Type
					if eventType == "" {
						eventType = currentEventType
					}
					cont := handleAnthropicEvent(eventType, ev, &model, &inputTokens, &outputTokens, emit)
					if !cont {
						return
					}
					if eventType == "message_stop" {
						readErr = io.EOF
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

	cost := calculateLLMCost(resolved, inputTokens, outputTokens, nil)
	emit(StreamEvent{
		Done:  true,
		Usage: &TokenUsage{PromptTokens: inputTokens, CompletionTokens: outputTokens, TotalTokens: inputTokens + outputTokens},
		Cost:  cost.InexactFloat64(),
	})
}

// handleAnthropicEvent dispatches one named SSE event per the §4.7.3
// transition table. It returns false when the caller should stop
// reading (client disconnected, or an upstream "error" event arrived).
func handleAnthropicEvent(eventType string, ev anthropicEvent, model *string, inputTokens, outputTokens *int, emit func(StreamEvent) bool) bool {
	switch eventType {
	case "message_start":
		if ev.Message != nil {
			*model = ev.Message.Model
			*inputTokens = ev.Message.Usage.InputTokens
		}
		return true

	case "content_block_delta":
		var delta anthropicDelta
		if err := json.Unmarshal(ev.Delta, &delta); err != nil || delta.Type != "text_delta" {
			return true
		}
		return emit(StreamEvent{DeltaContent: delta.Text})

	case "message_delta":
		var usage anthropicUsage
		if len(ev.Usage) > 0 {
			_ = json.Unmarshal(ev.Usage, &usage)
			*outputTokens = usage.OutputTokens
		}
		var delta anthropicDelta
		if len(ev.Delta) > 0 {
			_ = json.Unmarshal(ev.Delta, &delta)
		}
		if delta.StopReason != "" {
			return emit(StreamEvent{FinishReason: translateStopReason(delta.StopReason)})
		}
		return true

	case "message_stop":
		return true

	case "error":
		return false

	default:
		return true
	}
}
