package llmproxy

import (
	"context"
	"net/http"
	"time"

	"github.com/kortix/gateway/internal/billing"
	"github.com/kortix/gateway/internal/metrics"
	"github.com/kortix/gateway/internal/providers"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Proxy is the C7 entry point: resolve the request's model to a provider,
// dispatch to the matching dialect, and — for the non-streaming path —
// debit the computed cost before returning (§4.7).
type Proxy struct {
	registry *providers.Registry
	billing  *billing.Service
	client   *http.Client
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewProxy builds a Proxy. The HTTP client carries no timeout: LLM calls
// may legitimately stream for minutes and are bounded only by the
// caller's context (§5 "no gateway-imposed timeout").
func NewProxy(registry *providers.Registry, billingSvc *billing.Service, logger *zap.Logger) *Proxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{
		registry: registry,
		billing:  billingSvc,
		client:   &http.Client{Timeout: 0},
		logger:   logger.With(zap.String("component", "llmproxy")),
	}
}

// SetMetrics attaches a metrics.Collector so completed requests are
// recorded. Optional: a Proxy with no collector attached simply skips
// recording.
func (p *Proxy) SetMetrics(c *metrics.Collector) {
	p.metrics = c
}

// Complete runs the non-streaming path (§4.7.2): dispatch by dialect,
// then debit regardless of the debit outcome — a failing debit never
// fails an already-successful completion.
func (p *Proxy) Complete(ctx context.Context, req ChatRequest, accountID string, sessionID *string) (*ChatResponse, error) {
	start := time.Now()
	resolved, err := p.registry.Resolve(req.Model)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("dispatching completion",
		zap.String("provider", string(resolved.Provider.Name)),
		zap.String("model", resolved.ModelID),
		zap.Int("estimated_prompt_tokens", estimatePromptTokens(req)),
	)

	var resp *ChatResponse
	switch resolved.Provider.Dialect {
	case providers.DialectAnthropic:
		resp, err = anthropicNonStreaming(ctx, p.client, resolved, req)
	default:
		resp, err = openAINonStreaming(ctx, p.client, resolved, req)
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordLLMRequest(string(resolved.Provider.Name), resolved.ModelID, "error", time.Since(start), 0, 0, 0)
		}
		return nil, err
	}

	outcome := p.billing.DeductLLMCredits(ctx, accountID, decimal.NewFromFloat(resp.Cost), resolved.ModelID, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, sessionID)
	if !outcome.Success {
		p.logger.Warn("llm debit failed, returning response anyway",
			zap.String("account", accountID),
			zap.String("reason", outcome.Reason),
		)
	}

	if p.metrics != nil {
		p.metrics.RecordLLMRequest(string(resolved.Provider.Name), resolved.ModelID, "ok", time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Cost)
	}

	return resp, nil
}

// Stream runs the streaming path (§4.7.3): dispatch by dialect and
// return a channel of StreamEvents. The caller (the HTTP handler) is
// responsible for writing SSE bytes to the client and for invoking
// DeductLLMCredits when it observes the terminal Done event — streaming
// responses are billed after the wire format is fully flushed, not here,
// since the handler alone knows whether the client disconnected first.
func (p *Proxy) Stream(ctx context.Context, req ChatRequest) (*providers.Resolved, <-chan StreamEvent, error) {
	resolved, err := p.registry.Resolve(req.Model)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Debug("dispatching stream",
		zap.String("provider", string(resolved.Provider.Name)),
		zap.String("model", resolved.ModelID),
		zap.Int("estimated_prompt_tokens", estimatePromptTokens(req)),
	)

	var ch <-chan StreamEvent
	switch resolved.Provider.Dialect {
	case providers.DialectAnthropic:
		ch, err = anthropicStreaming(ctx, p.client, resolved, req)
	default:
		ch, err = openAIStreaming(ctx, p.client, resolved, req)
	}
	if err != nil {
		return nil, nil, err
	}
	return resolved, ch, nil
}

// BillStreamUsage debits the cost computed from a stream's captured
// usage. Called by the handler once the stream ends (cleanly or via
// cancellation) with whatever TokenUsage was captured — best-effort
// billing for cancelled streams per §4.7.3 / §9. The caller's context is
// detached from cancellation before the debit call, since a client
// disconnect must not also abort the billing attempt it triggered.
func (p *Proxy) BillStreamUsage(ctx context.Context, resolved *providers.Resolved, accountID, modelID string, usage TokenUsage, sessionID *string) {
	cost := calculateLLMCost(resolved, usage.PromptTokens, usage.CompletionTokens, nil)
	outcome := p.billing.DeductLLMCredits(detachedContext(ctx), accountID, cost, modelID, usage.PromptTokens, usage.CompletionTokens, sessionID)
	if !outcome.Success {
		p.logger.Warn("stream llm debit failed",
			zap.String("account", accountID),
			zap.String("reason", outcome.Reason),
		)
	}
	if p.metrics != nil {
		costFloat, _ := cost.Float64()
		p.metrics.RecordLLMRequest(string(resolved.Provider.Name), modelID, "stream", 0, usage.PromptTokens, usage.CompletionTokens, costFloat)
	}
}

// detachedContext strips the parent's cancellation while keeping its
// values, for the best-effort billing call made after a client
// disconnects the stream mid-flight.
func detachedContext(parent context.Context) context.Context {
	return detached{parent}
}

type detached struct{ context.Context }

func (detached) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detached) Done() <-chan struct{}       { return nil }
func (detached) Err() error                  { return nil }
