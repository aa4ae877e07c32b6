// Package crypto provides the gateway's single cryptographic primitive:
// HMAC-SHA256 hashing of presented secret keys, and a constant-time
// comparison against the stored hash.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hasher hashes secrets under a process-wide HMAC key (§4.1). It holds no
// other state and is safe for concurrent use.
type Hasher struct {
	key []byte
}

// NewHasher builds a Hasher from the configured API_KEY_SECRET. Calling
// Hash or Verify on a Hasher built from an empty secret panics — an unset
// secret is a startup configuration error, never a request-time one.
func NewHasher(secret string) *Hasher {
	return &Hasher{key: []byte(secret)}
}

// Hash returns the lowercase hex-encoded HMAC-SHA256 of secret keyed by the
// hasher's process secret.
func (h *Hasher) Hash(secret string) string {
	if len(h.key) == 0 {
		panic("crypto: Hash called with no API_KEY_SECRET configured")
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether secret's HMAC matches storedHash, using a
// constant-time comparison. Any hex-decode failure or length mismatch
// returns false rather than erroring.
func (h *Hasher) Verify(secret, storedHash string) bool {
	if len(h.key) == 0 {
		panic("crypto: Verify called with no API_KEY_SECRET configured")
	}
	want, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(secret))
	got := mac.Sum(nil)
	if len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}
