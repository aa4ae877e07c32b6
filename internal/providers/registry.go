package providers

import (
	"strings"

	"github.com/kortix/gateway/gatewayerr"
)

// prefixMap lists the explicit-provider prefixes recognized in step 2 of
// resolution (§4.5). Longer/more specific prefixes are not needed here
// since every prefix is checked against "prefix/" exactly.
var prefixMap = map[string]Name{
	"openrouter": Aggregator,
	"anthropic":  Anthropic,
	"openai":     OpenAI,
	"xai":        XAI,
	"x-ai":       XAI,
	"groq":       Groq,
	"gemini":     Gemini,
	"google":     Gemini,
	"bedrock":    Bedrock,
	"aws":        Bedrock,
}

// inferenceRules is step 3's substring-based inference (§4.5), checked in
// order so the first matching prefix wins.
var inferenceRules = []struct {
	prefix string
	name   Name
}{
	{"claude", Anthropic},
	{"gpt", OpenAI},
	{"o1", OpenAI},
	{"o3", OpenAI},
	{"grok", XAI},
	{"gemini", Gemini},
	{"llama", Groq},
	{"mixtral", Groq},
	{"groq", Groq},
}

// Resolved is what Resolve returns: the provider binding to call, the
// provider-local model id to send upstream, and the ModelConfig used for
// cost calculation.
type Resolved struct {
	Provider ProviderBinding
	ModelID  string
	Model    ModelConfig
}

// Registry resolves a request's model id to an upstream provider (C5).
type Registry struct {
	bindings map[Name]ProviderBinding
	catalog  map[string]ModelConfig
}

// NewRegistry builds a Registry from runtime bindings and the constant
// model catalog.
func NewRegistry(bindings map[Name]ProviderBinding) *Registry {
	return &Registry{bindings: bindings, catalog: ModelCatalog}
}

// Resolve implements §4.5's four-step resolution plus the unconfigured-
// provider fallback reroute to the aggregator.
func (r *Registry) Resolve(requestedModel string) (*Resolved, error) {
	provider, modelID, model := r.classify(requestedModel)

	binding, ok := r.bindings[provider]
	if !ok || !binding.IsConfigured() {
		agg, aggOK := r.bindings[Aggregator]
		if !aggOK || !agg.IsConfigured() {
			return nil, gatewayerr.New(gatewayerr.ConfigError, "no provider configured: aggregator is unconfigured").
				WithHTTPStatus(502)
		}
		return &Resolved{
			Provider: agg,
			ModelID:  string(provider) + "/" + modelID,
			Model:    aggregatorZeroRate,
		}, nil
	}

	return &Resolved{Provider: binding, ModelID: modelID, Model: model}, nil
}

// classify runs steps 1-3 of §4.5 and returns the provider the model
// would resolve to absent any configuration concerns, without checking
// IsConfigured — that's left to Resolve's fallback step.
func (r *Registry) classify(requestedModel string) (Name, string, ModelConfig) {
	// Step 1: exact catalog lookup.
	if model, ok := r.catalog[requestedModel]; ok {
		return model.ProviderBinding, requestedModel, model
	}

	// Step 2: explicit provider prefix.
	if idx := strings.IndexByte(requestedModel, '/'); idx > 0 {
		prefix := requestedModel[:idx]
		if name, ok := prefixMap[prefix]; ok {
			remainder := requestedModel[idx+1:]
			if model, ok := r.catalog[remainder]; ok {
				return name, remainder, model
			}
			return name, remainder, aggregatorZeroRate
		}
	}

	// Step 3: inferred by substring.
	lower := strings.ToLower(requestedModel)
	for _, rule := range inferenceRules {
		if strings.HasPrefix(lower, rule.prefix) {
			return rule.name, requestedModel, aggregatorZeroRate
		}
	}

	// Step 4: default to the aggregator.
	return Aggregator, requestedModel, aggregatorZeroRate
}
