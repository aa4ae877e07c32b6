package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kortix/gateway/api"
	"github.com/kortix/gateway/gatewayerr"
	"github.com/kortix/gateway/internal/auth"
	"github.com/kortix/gateway/internal/billing"
	"github.com/kortix/gateway/internal/llmproxy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ChatHandler serves /v1/chat/completions (§6.4): OpenAI-compatible
// non-streaming and SSE-streaming chat completion, gated by a credit
// pre-check ahead of the upstream call.
type ChatHandler struct {
	proxy   *llmproxy.Proxy
	billing *billing.Service
	logger  *zap.Logger
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(proxy *llmproxy.Proxy, billingSvc *billing.Service, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{proxy: proxy, billing: billingSvc, logger: logger.With(zap.String("component", "chat_handler"))}
}

// Handle is the route-level entry point for POST /v1/chat/completions
// (§6.1, §6.4): both the streaming and non-streaming shapes share one
// route, distinguished only by the request body's "stream" field, so the
// body is peeked for that field and the request re-buffered before
// dispatching to the matching handler.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		WriteErrorMessage(w, gatewayerr.BadRequest, "failed to read request body", h.logger)
		return
	}
	r.Body.Close()

	var peek struct {
		Stream bool `json:"stream"`
	}
	_ = json.Unmarshal(body, &peek)

	r.Body = io.NopCloser(bytes.NewReader(body))
	if peek.Stream {
		h.HandleStream(w, r)
		return
	}
	h.HandleCompletion(w, r)
}

// HandleCompletion serves the non-streaming path (§4.7.2, §6.4).
func (h *ChatHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := validateChatRequest(&req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	accountID, _ := auth.AccountID(r.Context())
	if err := h.checkCredits(r, accountID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	resp, err := h.proxy.Complete(r.Context(), toProxyRequest(req), accountID, req.SessionID)
	if err != nil {
		WriteError(w, toGatewayErr(err), h.logger)
		return
	}

	w.Header().Set("X-Kortix-Provider", resp.Provider)
	WriteSuccess(w, fromProxyResponse(resp))
}

// HandleStream serves the streaming path (§4.7.3, §6.4): forwards each
// upstream chunk as an SSE event in arrival order, then debits whatever
// usage the stream captured once it ends — cleanly or via client
// disconnect.
func (h *ChatHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := validateChatRequest(&req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	accountID, _ := auth.AccountID(r.Context())
	if err := h.checkCredits(r, accountID); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	proxyReq := toProxyRequest(req)
	proxyReq.Stream = true
	resolved, ch, err := h.proxy.Stream(r.Context(), proxyReq)
	if err != nil {
		WriteError(w, toGatewayErr(err), h.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, gatewayerr.New(gatewayerr.Internal, "streaming not supported"), h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Kortix-Provider", string(resolved.Provider.Name))
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var usage llmproxy.TokenUsage
	for ev := range ch {
		if ev.Err != nil {
			h.logger.Error("stream error", zap.Error(ev.Err))
			return
		}
		if ev.Done {
			if ev.Usage != nil {
				usage = *ev.Usage
			}
			break
		}

		chunk := streamChunkFromEvent(ev, resolved.ModelID)
		w.Write([]byte("data: "))
		if err := json.NewEncoder(w).Encode(chunk); err != nil {
			h.logger.Error("failed to write chunk", zap.Error(err))
			return
		}
		w.Write([]byte("\n"))
		flusher.Flush()
	}

	w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()

	h.proxy.BillStreamUsage(r.Context(), resolved, accountID, resolved.ModelID, usage, req.SessionID)
}

// checkCredits runs the §4.4 credit pre-check; a test-token request
// always passes without a ledger round-trip.
func (h *ChatHandler) checkCredits(r *http.Request, accountID string) *gatewayerr.Error {
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

// validateChatRequest enforces the minimal request-shape invariants
// (§3): a model, at least one message, and parameter ranges matching the
// OpenAI contract.
func validateChatRequest(req *api.ChatRequest) *gatewayerr.Error {
	if req.Model == "" {
		return gatewayerr.New(gatewayerr.BadRequest, "model is required")
	}
	if len(req.Messages) == 0 {
		return gatewayerr.New(gatewayerr.BadRequest, "messages cannot be empty")
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return gatewayerr.New(gatewayerr.BadRequest, "temperature must be between 0 and 2")
	}
	if req.TopP != nil && (*req.TopP < 0 || *req.TopP > 1) {
		return gatewayerr.New(gatewayerr.BadRequest, "top_p must be between 0 and 1")
	}
	return nil
}

func toProxyRequest(req api.ChatRequest) llmproxy.ChatRequest {
	messages := make([]llmproxy.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = llmproxy.Message{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
			ToolCalls:  m.ToolCalls,
		}
	}
	return llmproxy.ChatRequest{
		Model:            req.Model,
		Messages:         messages,
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

func fromProxyResponse(resp *llmproxy.ChatResponse) api.ChatResponse {
	choices := make([]api.ChatChoice, len(resp.Choices))
	for i, c := range resp.Choices {
		choices[i] = api.ChatChoice{
			Index:        c.Index,
			FinishReason: c.FinishReason,
			Message: api.Message{
				Role:       c.Message.Role,
				Content:    c.Message.Content,
				Name:       c.Message.Name,
				ToolCallID: c.Message.ToolCallID,
				ToolCalls:  c.Message.ToolCalls,
			},
		}
	}
	return api.ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: choices,
		Usage: api.ChatResponseUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

// streamChunkFromEvent builds the SSE wire shape for one non-terminal
// StreamEvent, matching the OpenAI streaming chunk convention.
func streamChunkFromEvent(ev llmproxy.StreamEvent, model string) map[string]any {
	delta := map[string]any{}
	if ev.DeltaContent != "" {
		delta["content"] = ev.DeltaContent
	}
	choice := map[string]any{"index": 0, "delta": delta}
	if ev.FinishReason != "" {
		choice["finish_reason"] = ev.FinishReason
	}
	return map[string]any{
		"id":      ev.ID,
		"model":   model,
		"choices": []any{choice},
	}
}

// toGatewayErr normalizes any error returned by the llmproxy/billing
// layers into a *gatewayerr.Error, wrapping anything unrecognized as
// Internal.
func toGatewayErr(err error) *gatewayerr.Error {
	if gwErr, ok := gatewayerr.As(err); ok {
		return gwErr
	}
	return gatewayerr.New(gatewayerr.Internal, "internal error").WithCause(err)
}
