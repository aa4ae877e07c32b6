package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasher_HashIsDeterministic(t *testing.T) {
	h := NewHasher("process-secret")

	a := h.Hash("sk_live_abc123")
	b := h.Hash("sk_live_abc123")
	assert.Equal(t, a, b)
}

func TestHasher_HashDiffersByKey(t *testing.T) {
	a := NewHasher("secret-a").Hash("sk_live_abc123")
	b := NewHasher("secret-b").Hash("sk_live_abc123")
	assert.NotEqual(t, a, b)
}

func TestHasher_VerifyRoundTrip(t *testing.T) {
	h := NewHasher("process-secret")
	hash := h.Hash("sk_live_abc123")

	assert.True(t, h.Verify("sk_live_abc123", hash))
	assert.False(t, h.Verify("sk_live_wrong", hash))
}

func TestHasher_VerifyRejectsMalformedHash(t *testing.T) {
	h := NewHasher("process-secret")

	assert.False(t, h.Verify("sk_live_abc123", "not-hex!!"))
	assert.False(t, h.Verify("sk_live_abc123", ""))
	assert.False(t, h.Verify("sk_live_abc123", "ab")) // valid hex, wrong length
}

func TestHasher_HashPanicsWithoutSecret(t *testing.T) {
	h := NewHasher("")
	assert.Panics(t, func() {
		h.Hash("anything")
	})
}

func TestHasher_VerifyPanicsWithoutSecret(t *testing.T) {
	h := NewHasher("")
	assert.Panics(t, func() {
		h.Verify("anything", "deadbeef")
	})
}
