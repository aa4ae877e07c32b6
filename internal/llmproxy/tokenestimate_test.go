package llmproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimatePromptTokens_NonEmptyForNonEmptyMessages(t *testing.T) {
	req := ChatRequest{Messages: []Message{
		{Role: "user", Content: "hello there, how are you today?"},
	}}
	assert.Positive(t, estimatePromptTokens(req))
}

func TestEstimatePromptTokens_ZeroForNoMessages(t *testing.T) {
	assert.Zero(t, estimatePromptTokens(ChatRequest{}))
}
