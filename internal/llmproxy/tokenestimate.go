package llmproxy

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// cl100k is lazily initialized since GetEncoding may need to fetch its BPE
// ranks on first use — matching the tokenizer package's own init-once
// pattern elsewhere in this codebase.
var (
	cl100kOnce sync.Once
	cl100k     *tiktoken.Tiktoken
)

// estimatePromptTokens returns a local, best-effort token count for the
// request's messages, attached to request logs before the upstream call
// returns (§4.7.4 supplement). Billing always uses the provider-reported
// TokenUsage instead; this number never reaches calculateLLMCost.
func estimatePromptTokens(req ChatRequest) int {
	cl100kOnce.Do(func() {
		cl100k, _ = tiktoken.GetEncoding("cl100k_base")
	})
	if cl100k == nil {
		return 0
	}
	total := 0
	for _, m := range req.Messages {
		total += len(cl100k.Encode(m.Content, nil, nil))
	}
	return total
}
