package llmproxy

import (
	"github.com/kortix/gateway/internal/providers"
	"github.com/shopspring/decimal"
)

// calculateLLMCost implements §4.7.5. When the resolved provider is the
// aggregator and a provider-reported cost is present, that reported cost
// is trusted (times markup) over the catalog rate — the aggregator's
// billing is usage-based and its own number is authoritative. Otherwise
// cost is computed from the catalog's per-token rates. An unknown model
// routed through the aggregator carries a zero-rate catalog entry, so
// absent a reported cost the result is 0 rather than an error.
func calculateLLMCost(resolved *providers.Resolved, inputTokens, outputTokens int, reportedCost *float64) decimal.Decimal {
	markup := decimal.NewFromFloat(resolved.Provider.Markup)
	if markup.IsZero() {
		markup = decimal.NewFromFloat(1.20)
	}

	if resolved.Provider.Name == providers.Aggregator && reportedCost != nil {
		return decimal.NewFromFloat(*reportedCost).Mul(markup)
	}

	million := decimal.NewFromInt(1_000_000)
	inputCost := decimal.NewFromInt(int64(inputTokens)).
		Div(million).
		Mul(decimal.NewFromFloat(resolved.Model.InputPer1MTokens))
	outputCost := decimal.NewFromInt(int64(outputTokens)).
		Div(million).
		Mul(decimal.NewFromFloat(resolved.Model.OutputPer1MTokens))

	return inputCost.Add(outputCost).Mul(markup)
}
