// Package credentials implements the credential registry (C3): structural
// validation of presented secret keys, HMAC lookup, status/expiry checks,
// and throttled last-used-at tracking.
package credentials

import "time"

// Status is a Credential's lifecycle state (§3). It may only progress
// active -> revoked or active -> expired; the registry never writes this
// field, only reads it.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// Credential is the persisted record the registry validates against. The
// gateway never issues or deletes credentials — they are provisioned
// externally — and only reads, validates, and updates LastUsedAt.
type Credential struct {
	KeyID        string
	PublicPrefix string
	SecretHash   string
	AccountID    string
	Status       Status
	ExpiresAt    *time.Time
	LastUsedAt   *time.Time
}

// Identity is what a successful Validate call resolves a presented secret
// to (§4.3).
type Identity struct {
	AccountID string
	KeyID     string
}

// InvalidReason explains why Validate rejected a presented secret.
type InvalidReason string

const (
	ReasonFormat    InvalidReason = "format"
	ReasonNotFound  InvalidReason = "not_found"
	ReasonRevoked   InvalidReason = "revoked"
	ReasonExpired   InvalidReason = "expired"
	ReasonStoreError InvalidReason = "store_error"
)
