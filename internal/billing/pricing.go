package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToolPricing is the process-wide constant pricing for a named billable
// tool (§3). Cost = (base + perResult * resultCount) * markup.
type ToolPricing struct {
	BaseCost         decimal.Decimal
	PerResultCost    decimal.Decimal
	MarkupMultiplier decimal.Decimal
}

// Tool names, matching the ledger's public contract (§3, §6.2, §6.3).
const (
	ToolWebSearchBasic    = "web_search_basic"
	ToolWebSearchAdvanced = "web_search_advanced"
	ToolImageSearch       = "image_search"
)

// toolPricingTable is the process-wide constant pricing table; its values
// are part of the public contract with the ledger (§3) and are never
// mutated at runtime.
var toolPricingTable = map[string]ToolPricing{
	ToolWebSearchBasic: {
		BaseCost:         decimal.NewFromFloat(0.001),
		PerResultCost:    decimal.NewFromFloat(0.0002),
		MarkupMultiplier: decimal.NewFromFloat(1.20),
	},
	ToolWebSearchAdvanced: {
		BaseCost:         decimal.NewFromFloat(0.004),
		PerResultCost:    decimal.NewFromFloat(0.0005),
		MarkupMultiplier: decimal.NewFromFloat(1.20),
	},
	ToolImageSearch: {
		BaseCost:         decimal.NewFromFloat(0.002),
		PerResultCost:    decimal.NewFromFloat(0.0003),
		MarkupMultiplier: decimal.NewFromFloat(1.20),
	},
}

// ToolCost computes the billed amount for tool over resultCount results.
// An unknown tool name is a programming error, not a runtime condition —
// every call site passes a constant from §6.2/§6.3.
func ToolCost(tool string, resultCount int) (decimal.Decimal, error) {
	pricing, ok := toolPricingTable[tool]
	if !ok {
		return decimal.Zero, fmt.Errorf("billing: unknown tool %q", tool)
	}
	count := decimal.NewFromInt(int64(resultCount))
	subtotal := pricing.BaseCost.Add(pricing.PerResultCost.Mul(count))
	return subtotal.Mul(pricing.MarkupMultiplier), nil
}

// HumanizeToolName turns a tool constant into the default debit
// description used when the caller doesn't supply one (§4.4).
func HumanizeToolName(tool string) string {
	switch tool {
	case ToolWebSearchBasic:
		return "Web search (basic)"
	case ToolWebSearchAdvanced:
		return "Web search (advanced)"
	case ToolImageSearch:
		return "Image search"
	default:
		return tool
	}
}
