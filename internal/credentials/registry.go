package credentials

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/kortix/gateway/internal/crypto"
	"github.com/kortix/gateway/internal/metrics"
	"go.uber.org/zap"
)

// SecretPrefix is the documented public prefix every issued credential
// carries. The auth middleware uses it to decide whether a presented
// bearer token should be routed through credential-store validation at
// all (§4.8 step 3) before the full shape is checked here.
const SecretPrefix = "sk_live_"

// secretShape matches the fixed public shape a presented credential must
// have: a documented prefix followed by a fixed-length random suffix
// (§4.3 step 1). The suffix alphabet matches the teacher repo's own
// generated-token convention (base62).
var secretShape = regexp.MustCompile(`^sk_live_[A-Za-z0-9]{32}$`)

// HasSecretPrefix reports whether presented begins with the documented
// public prefix, without validating the full shape or existence of the
// credential.
func HasSecretPrefix(presented string) bool {
	return strings.HasPrefix(presented, SecretPrefix)
}

// Store is the persistence boundary the registry reads and writes through
// (§6.5: a relational table indexed on secret_key_hash).
type Store interface {
	// FindBySecretHash returns the credential whose SecretHash matches
	// hash, or (nil, nil) if none exists.
	FindBySecretHash(ctx context.Context, hash string) (*Credential, error)
	// UpdateLastUsedAt persists a new LastUsedAt for keyID. Callers only
	// invoke this when Throttle.TryRecordUse returns true.
	UpdateLastUsedAt(ctx context.Context, keyID string, at time.Time) error
}

// Registry validates presented secret keys and resolves them to an
// account (C3).
type Registry struct {
	store    Store
	hasher   *crypto.Hasher
	throttle Throttle
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewRegistry builds a Registry. throttle may be nil, in which case every
// successful validation attempts a last-used-at persist (acceptable for
// tests; production wiring always supplies a Throttle from NewThrottle).
func NewRegistry(store Store, hasher *crypto.Hasher, throttle Throttle, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{store: store, hasher: hasher, throttle: throttle, logger: logger.With(zap.String("component", "credential_registry"))}
}

// SetMetrics attaches a metrics.Collector so throttle hits and skips are
// recorded. Optional: a Registry with no collector attached simply skips
// recording.
func (r *Registry) SetMetrics(c *metrics.Collector) {
	r.metrics = c
}

// Invalid is returned by Validate when a presented secret is rejected.
type Invalid struct {
	Reason InvalidReason
}

func (i *Invalid) Error() string {
	return "invalid credential: " + string(i.Reason)
}

// Validate runs the four-step check in §4.3: structural shape, hash
// lookup + active status, expiry, then a throttled last-used-at update.
func (r *Registry) Validate(ctx context.Context, presented string) (*Identity, error) {
	if !secretShape.MatchString(presented) {
		return nil, &Invalid{Reason: ReasonFormat}
	}

	hash := r.hasher.Hash(presented)

	cred, err := r.store.FindBySecretHash(ctx, hash)
	if err != nil {
		r.logger.Error("credential store lookup failed", zap.Error(err))
		return nil, &Invalid{Reason: ReasonStoreError}
	}
	if cred == nil {
		return nil, &Invalid{Reason: ReasonNotFound}
	}
	if cred.Status != StatusActive {
		if cred.Status == StatusRevoked {
			return nil, &Invalid{Reason: ReasonRevoked}
		}
		return nil, &Invalid{Reason: ReasonExpired}
	}
	if cred.ExpiresAt != nil && cred.ExpiresAt.Before(time.Now()) {
		return nil, &Invalid{Reason: ReasonExpired}
	}

	r.recordUse(ctx, cred.KeyID)

	return &Identity{AccountID: cred.AccountID, KeyID: cred.KeyID}, nil
}

// recordUse fires a best-effort, throttled last-used-at update. A failure
// here never fails the caller's request — it only means the credential's
// usage timestamp is stale, not that the credential is invalid.
func (r *Registry) recordUse(ctx context.Context, keyID string) {
	if r.throttle != nil && !r.throttle.TryRecordUse(keyID) {
		if r.metrics != nil {
			r.metrics.RecordThrottleSkip()
		}
		return
	}
	if r.metrics != nil {
		r.metrics.RecordThrottleHit()
	}
	if err := r.store.UpdateLastUsedAt(ctx, keyID, time.Now()); err != nil {
		r.logger.Warn("failed to persist last-used-at", zap.String("key_id", keyID), zap.Error(err))
	}
}

// IsInvalid reports whether err is an *Invalid and returns its reason.
func IsInvalid(err error) (InvalidReason, bool) {
	var inv *Invalid
	if errors.As(err, &inv) {
		return inv.Reason, true
	}
	return "", false
}
