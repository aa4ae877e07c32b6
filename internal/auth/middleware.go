package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kortix/gateway/gatewayerr"
	"github.com/kortix/gateway/internal/billing"
	"github.com/kortix/gateway/internal/credentials"
	"go.uber.org/zap"
)

// Middleware wraps an http.Handler with another http.Handler, matching the
// gateway's existing middleware chaining convention.
type Middleware func(http.Handler) http.Handler

// Bearer builds the §4.8 auth middleware. credReg may be nil, in which
// case step 3 is skipped and any sk_live_-prefixed token falls through to
// the legacy step 4 fallback — matching "AND a credential store is
// configured" in the spec.
func Bearer(credReg *credentials.Registry, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "auth"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, gatewayerr.New(gatewayerr.AuthMissing, "missing or malformed Authorization header"))
				return
			}

			switch {
			case token == billing.TestAccountID:
				ctx := WithIdentity(r.Context(), billing.TestAccountID, "", true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return

			case credReg != nil && credentials.HasSecretPrefix(token):
				identity, err := credReg.Validate(r.Context(), token)
				if err != nil {
					reason, _ := credentials.IsInvalid(err)
					logger.Debug("credential validation failed", zap.String("reason", string(reason)))
					writeAuthError(w, invalidCredentialError(reason))
					return
				}
				ctx := WithIdentity(r.Context(), identity.AccountID, identity.KeyID, false)
				next.ServeHTTP(w, r.WithContext(ctx))
				return

			default:
				// Legacy/bootstrap fallback (§4.8 step 4): the token itself
				// is the account id. A production deployment should disable
				// this path once a credential store is configured.
				ctx := WithIdentity(r.Context(), token, "", false)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// bearerToken extracts the token from a well-formed "Authorization:
// Bearer <token>" header. A missing header, wrong scheme, or empty token
// all report ok = false.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// invalidCredentialError maps a credentials.InvalidReason onto the
// gatewayerr.Kind vocabulary the §6.6 error envelope surfaces.
func invalidCredentialError(reason credentials.InvalidReason) *gatewayerr.Error {
	switch reason {
	case credentials.ReasonExpired:
		return gatewayerr.New(gatewayerr.AuthExpired, "credential expired")
	case credentials.ReasonStoreError:
		return gatewayerr.New(gatewayerr.Internal, "credential store unavailable")
	default:
		return gatewayerr.New(gatewayerr.AuthInvalid, "invalid credential")
	}
}

// writeAuthError writes the §6.6 error envelope directly, ahead of any
// global error-handling middleware, since an auth failure must short
// circuit before the request reaches a handler.
func writeAuthError(w http.ResponseWriter, err *gatewayerr.Error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}{
		Error:   true,
		Message: err.Message,
		Status:  err.Status(),
	})
}
