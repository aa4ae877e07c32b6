// Package auth implements the bearer-token authentication middleware (C8):
// test-token bypass, credential-store validation, and the legacy
// treat-token-as-account-id bootstrap fallback (§4.8).
package auth

import "context"

type contextKey struct{ name string }

var (
	accountIDKey = &contextKey{"account_id"}
	keyIDKey     = &contextKey{"key_id"}
	isTestKey    = &contextKey{"is_test"}
)

// WithIdentity attaches the resolved account id, credential key id (empty
// for the test-token and legacy paths), and test-token flag to ctx.
func WithIdentity(ctx context.Context, accountID, keyID string, isTest bool) context.Context {
	ctx = context.WithValue(ctx, accountIDKey, accountID)
	ctx = context.WithValue(ctx, keyIDKey, keyID)
	ctx = context.WithValue(ctx, isTestKey, isTest)
	return ctx
}

// AccountID returns the authenticated account id, or ("", false) if the
// context carries none.
func AccountID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountIDKey).(string)
	return v, ok
}

// KeyID returns the credential key id that authenticated the request, or
// ("", false) if the request authenticated via the test-token or legacy
// fallback path (neither of which resolves a stored credential).
func KeyID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// IsTest reports whether the request authenticated via the test-token
// bypass (§4.4: test-token requests skip billing entirely).
func IsTest(ctx context.Context) bool {
	v, _ := ctx.Value(isTestKey).(bool)
	return v
}
