package ledger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kortix/gateway/gatewayerr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPLedger_GetBalance_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/balance", r.URL.Path)
		assert.Equal(t, "acct_1", r.URL.Query().Get("account"))
		assert.Equal(t, "Bearer backend-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"balance": "4.20"})
	}))
	defer srv.Close()

	l := NewHTTPLedger(srv.URL, "backend-key", zap.NewNop())
	balance, err := l.GetBalance(t.Context(), "acct_1")
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.True(t, decimal.RequireFromString("4.20").Equal(balance.Balance))
}

func TestHTTPLedger_GetBalance_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	l := NewHTTPLedger(srv.URL, "backend-key", zap.NewNop())
	balance, err := l.GetBalance(t.Context(), "acct_missing")
	require.NoError(t, err)
	assert.Nil(t, balance)
}

func TestHTTPLedger_GetBalance_FailsOpenOnNetworkError(t *testing.T) {
	l := NewHTTPLedger("http://127.0.0.1:1", "backend-key", zap.NewNop())
	balance, err := l.GetBalance(t.Context(), "acct_1")
	require.NoError(t, err, "balance checks must fail open, never error, on network failure")
	require.NotNil(t, balance)
	assert.True(t, balance.Balance.IsZero())
}

func TestHTTPLedger_GetBalance_FailsOpenOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewHTTPLedger(srv.URL, "backend-key", zap.NewNop())
	balance, err := l.GetBalance(t.Context(), "acct_1")
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.True(t, balance.Balance.IsZero())
}

func TestHTTPLedger_AtomicDebit_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/debit", r.URL.Path)
		var body debitRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acct_1", body.Account)

		json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"cost":           "0.01",
			"new_balance":    "9.99",
			"transaction_id": "txn_http_1",
		})
	}))
	defer srv.Close()

	l := NewHTTPLedger(srv.URL, "backend-key", zap.NewNop())
	result, err := l.AtomicDebit(t.Context(), DebitRequest{
		Account:     "acct_1",
		Amount:      decimal.RequireFromString("0.01"),
		Description: "LLM: gpt-4o (12/34 tokens)",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "txn_http_1", result.TransactionID)
}

func TestHTTPLedger_AtomicDebit_Insufficient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "insufficient_credits",
		})
	}))
	defer srv.Close()

	l := NewHTTPLedger(srv.URL, "backend-key", zap.NewNop())
	_, err := l.AtomicDebit(t.Context(), DebitRequest{Account: "acct_broke", Amount: decimal.NewFromInt(5)})
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.InsufficientCredits, gwErr.Kind)
}

func TestHTTPLedger_AtomicDebit_NetworkErrorIsNotFailedOpen(t *testing.T) {
	l := NewHTTPLedger("http://127.0.0.1:1", "backend-key", zap.NewNop())
	_, err := l.AtomicDebit(t.Context(), DebitRequest{Account: "acct_1", Amount: decimal.NewFromInt(1)})
	require.Error(t, err, "debit failures must surface, unlike balance checks")
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.UpstreamError, gwErr.Kind)
}

func TestHTTPLedger_AtomicDebit_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	l := NewHTTPLedger(srv.URL, "backend-key", zap.NewNop())
	_, err := l.AtomicDebit(t.Context(), DebitRequest{Account: "acct_1", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.UpstreamError, gwErr.Kind)
}
