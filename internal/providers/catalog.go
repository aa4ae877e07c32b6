// Package providers implements the static provider/model catalog and the
// model-id resolution rules that pick an upstream provider for a chat
// request (C5, §4.5).
package providers

import "github.com/kortix/gateway/config"

// Name identifies an upstream provider. It is a closed set — representing
// a provider as a tagged variant rather than a free-form string, per §9's
// design note.
type Name string

const (
	Aggregator Name = "openrouter"
	OpenAI     Name = "openai"
	Anthropic  Name = "anthropic"
	XAI        Name = "xai"
	Groq       Name = "groq"
	Gemini     Name = "gemini"
	Bedrock    Name = "bedrock"
)

// AuthStyle is how a provider expects its API key presented.
type AuthStyle string

const (
	AuthBearer       AuthStyle = "bearer"
	AuthAPIKeyHeader AuthStyle = "apiKeyHeader"
	AuthNone         AuthStyle = "none"
)

// Dialect is the wire shape a provider's chat-completions endpoint speaks.
// Only two dialects exist in this catalog: the OpenAI-compatible chunk
// shape (aggregator, OpenAI-family, xAI, groq, gemini via its OpenAI
// compatibility layer) and Anthropic's Messages API.
type Dialect string

const (
	DialectOpenAI    Dialect = "openai"
	DialectAnthropic Dialect = "anthropic"
)

// Tier classifies a model for client-facing display (§3).
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// ProviderBinding is the constant, process-wide description of one
// upstream provider (§3). BaseURL/APIKey are supplied at startup from
// config.ProviderConfig; everything else is fixed.
type ProviderBinding struct {
	Name          Name
	BaseURL       string
	APIKey        string
	AuthStyle     AuthStyle
	Dialect       Dialect
	ExtraHeaders  map[string]string
	Markup        float64 // §4.7.5 default markup multiplier, 1.20 unless overridden
}

// IsConfigured reports whether this binding has an API key set (§3).
func (b ProviderBinding) IsConfigured() bool {
	return b.APIKey != ""
}

// ModelConfig is the constant per-model pricing/routing entry (§3).
type ModelConfig struct {
	ProviderBinding   Name
	InputPer1MTokens  float64
	OutputPer1MTokens float64
	ContextWindow     int
	Tier              Tier
}

const defaultMarkup = 1.20

// defaultExtraHeaders returns the per-provider headers required beyond the
// auth header itself (§4.7.1: "a referrer/title header for the
// aggregator").
func defaultExtraHeaders(name Name) map[string]string {
	switch name {
	case Aggregator:
		return map[string]string{
			"HTTP-Referer": "https://kortix.ai",
			"X-Title":      "Kortix Gateway",
		}
	case Anthropic:
		return map[string]string{"anthropic-version": "2023-06-01"}
	default:
		return nil
	}
}

// bindingDefaults is the fixed, non-runtime half of each catalog entry:
// auth style, wire dialect, and base URL fallback when config doesn't
// supply one.
var bindingDefaults = map[Name]struct {
	authStyle      AuthStyle
	dialect        Dialect
	defaultBaseURL string
}{
	Aggregator: {AuthBearer, DialectOpenAI, "https://openrouter.ai/api/v1"},
	OpenAI:     {AuthBearer, DialectOpenAI, "https://api.openai.com/v1"},
	Anthropic:  {AuthAPIKeyHeader, DialectAnthropic, "https://api.anthropic.com/v1"},
	XAI:        {AuthBearer, DialectOpenAI, "https://api.x.ai/v1"},
	Groq:       {AuthBearer, DialectOpenAI, "https://api.groq.com/openai/v1"},
	Gemini:     {AuthBearer, DialectOpenAI, "https://generativelanguage.googleapis.com/v1beta/openai"},
	Bedrock:    {AuthBearer, DialectOpenAI, ""},
}

// BuildBindings turns runtime ProvidersConfig into the full set of
// ProviderBindings the registry resolves against.
func BuildBindings(cfg config.ProvidersConfig) map[Name]ProviderBinding {
	raw := map[Name]config.ProviderConfig{
		Aggregator: cfg.OpenRouter,
		OpenAI:     cfg.OpenAI,
		Anthropic:  cfg.Anthropic,
		XAI:        cfg.XAI,
		Groq:       cfg.Groq,
		Gemini:     cfg.Gemini,
		Bedrock:    cfg.Bedrock,
	}

	bindings := make(map[Name]ProviderBinding, len(raw))
	for name, pc := range raw {
		defaults := bindingDefaults[name]
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = defaults.defaultBaseURL
		}
		bindings[name] = ProviderBinding{
			Name:         name,
			BaseURL:      baseURL,
			APIKey:       pc.APIKey,
			AuthStyle:    defaults.authStyle,
			Dialect:      defaults.dialect,
			ExtraHeaders: defaultExtraHeaders(name),
			Markup:       defaultMarkup,
		}
	}
	return bindings
}

// ModelCatalog is the process-wide constant model table (§3). Entries are
// representative of the catalog's shape; operators extend it without
// touching resolution logic.
var ModelCatalog = map[string]ModelConfig{
	"gpt-4o": {
		ProviderBinding:   OpenAI,
		InputPer1MTokens:  2.5,
		OutputPer1MTokens: 10.0,
		ContextWindow:     128000,
		Tier:              TierPaid,
	},
	"gpt-4o-mini": {
		ProviderBinding:   OpenAI,
		InputPer1MTokens:  0.15,
		OutputPer1MTokens: 0.60,
		ContextWindow:     128000,
		Tier:              TierPaid,
	},
	"o1": {
		ProviderBinding:   OpenAI,
		InputPer1MTokens:  15.0,
		OutputPer1MTokens: 60.0,
		ContextWindow:     200000,
		Tier:              TierPaid,
	},
	"claude-3-5-sonnet": {
		ProviderBinding:   Anthropic,
		InputPer1MTokens:  3.0,
		OutputPer1MTokens: 15.0,
		ContextWindow:     200000,
		Tier:              TierPaid,
	},
	"claude-3-haiku": {
		ProviderBinding:   Anthropic,
		InputPer1MTokens:  0.25,
		OutputPer1MTokens: 1.25,
		ContextWindow:     200000,
		Tier:              TierFree,
	},
	"grok-2": {
		ProviderBinding:   XAI,
		InputPer1MTokens:  2.0,
		OutputPer1MTokens: 10.0,
		ContextWindow:     131072,
		Tier:              TierPaid,
	},
	"llama-3.1-70b": {
		ProviderBinding:   Groq,
		InputPer1MTokens:  0.59,
		OutputPer1MTokens: 0.79,
		ContextWindow:     131072,
		Tier:              TierFree,
	},
	"gemini-1.5-pro": {
		ProviderBinding:   Gemini,
		InputPer1MTokens:  1.25,
		OutputPer1MTokens: 5.0,
		ContextWindow:     2000000,
		Tier:              TierPaid,
	},
}

// aggregatorZeroRate is the catalog entry unknown/aggregator-routed models
// fall back to (§4.7.5): a zero input/output rate forces the
// "providerReportedCost" cost branch.
var aggregatorZeroRate = ModelConfig{
	ProviderBinding:   Aggregator,
	InputPer1MTokens:  0,
	OutputPer1MTokens: 0,
	ContextWindow:     0,
	Tier:              TierPaid,
}
