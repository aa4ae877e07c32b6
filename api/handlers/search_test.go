package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kortix/gateway/api"
	"github.com/kortix/gateway/config"
	"github.com/kortix/gateway/internal/auth"
	"github.com/kortix/gateway/internal/billing"
	"github.com/kortix/gateway/internal/search"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWebSearchHandler(t *testing.T, baseURL string, ledgerBalance decimal.Decimal) (*WebSearchHandler, *fakeLedger) {
	t.Helper()
	fl := &fakeLedger{balance: ledgerBalance}
	svc := billing.NewService(fl, config.EnvProduction, zap.NewNop())
	adapter := search.NewWebAdapter(baseURL, "tavily-key", zap.NewNop())
	return NewWebSearchHandler(adapter, svc, zap.NewNop()), fl
}

func newTestImageSearchHandler(t *testing.T, baseURL string, ledgerBalance decimal.Decimal) (*ImageSearchHandler, *fakeLedger) {
	t.Helper()
	fl := &fakeLedger{balance: ledgerBalance}
	svc := billing.NewService(fl, config.EnvProduction, zap.NewNop())
	adapter := search.NewImageAdapter(baseURL, "tavily-key", zap.NewNop())
	return NewImageSearchHandler(adapter, svc, zap.NewNop()), fl
}

func TestWebSearchHandler_HandleSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Gophers", "url": "https://example.com", "content": "all about gophers"},
			},
		})
	}))
	defer srv.Close()

	handler, fl := newTestWebSearchHandler(t, srv.URL, decimal.NewFromInt(100))

	body, _ := json.Marshal(api.WebSearchRequest{Query: "gophers", MaxResults: 3})
	r := httptest.NewRequest(http.MethodPost, "/web-search", bytes.NewBuffer(body))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithIdentity(r.Context(), "acct_1", "", false))
	w := httptest.NewRecorder()

	handler.HandleSearch(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.WebSearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Gophers", resp.Results[0].Title)
	assert.Equal(t, "gophers", resp.Query)
	require.Len(t, fl.debits, 1)
}

func TestWebSearchHandler_HandleSearch_TestTokenSkipsDebit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{
			{"title": "Cats", "url": "https://example.com/cats", "content": "feline facts"},
		}})
	}))
	defer srv.Close()

	handler, fl := newTestWebSearchHandler(t, srv.URL, decimal.Zero)

	body, _ := json.Marshal(api.WebSearchRequest{Query: "cats", MaxResults: 3})
	r := httptest.NewRequest(http.MethodPost, "/web-search", bytes.NewBuffer(body))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithIdentity(r.Context(), billing.TestAccountID, "", true))
	w := httptest.NewRecorder()

	handler.HandleSearch(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.WebSearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.LessOrEqual(t, len(resp.Results), 3)
	assert.Zero(t, resp.Cost)
	assert.Empty(t, fl.debits)
}

func TestWebSearchHandler_HandleSearch_MissingQueryReturns400(t *testing.T) {
	handler, _ := newTestWebSearchHandler(t, "http://127.0.0.1:1", decimal.NewFromInt(100))

	body, _ := json.Marshal(api.WebSearchRequest{MaxResults: 3})
	r := httptest.NewRequest(http.MethodPost, "/web-search", bytes.NewBuffer(body))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithIdentity(r.Context(), "acct_1", "", false))
	w := httptest.NewRecorder()

	handler.HandleSearch(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebSearchHandler_HandleSearch_InvalidDepthReturns400(t *testing.T) {
	handler, _ := newTestWebSearchHandler(t, "http://127.0.0.1:1", decimal.NewFromInt(100))

	body, _ := json.Marshal(api.WebSearchRequest{Query: "cats", SearchDepth: "deep"})
	r := httptest.NewRequest(http.MethodPost, "/web-search", bytes.NewBuffer(body))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithIdentity(r.Context(), "acct_1", "", false))
	w := httptest.NewRecorder()

	handler.HandleSearch(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebSearchHandler_HandleSearch_InsufficientCreditsReturns402(t *testing.T) {
	handler, _ := newTestWebSearchHandler(t, "http://127.0.0.1:1", decimal.Zero)

	body, _ := json.Marshal(api.WebSearchRequest{Query: "cats"})
	r := httptest.NewRequest(http.MethodPost, "/web-search", bytes.NewBuffer(body))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithIdentity(r.Context(), "acct_1", "", false))
	w := httptest.NewRecorder()

	handler.HandleSearch(w, r)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestImageSearchHandler_HandleSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		width, height := 640, 480
		json.NewEncoder(w).Encode(map[string]any{
			"images": []map[string]any{
				{"title": "Gopher", "url": "https://example.com/g.png", "thumbnail": "https://example.com/g_t.png", "source_url": "https://example.com", "width": width, "height": height},
			},
		})
	}))
	defer srv.Close()

	handler, fl := newTestImageSearchHandler(t, srv.URL, decimal.NewFromInt(100))

	body, _ := json.Marshal(api.ImageSearchRequest{Query: "gopher", MaxResults: 5})
	r := httptest.NewRequest(http.MethodPost, "/image-search", bytes.NewBuffer(body))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithIdentity(r.Context(), "acct_1", "", false))
	w := httptest.NewRecorder()

	handler.HandleSearch(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.ImageSearchResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Gopher", resp.Results[0].Title)
	require.Len(t, fl.debits, 1)
}

func TestImageSearchHandler_HandleSearch_MaxResultsOutOfRangeReturns400(t *testing.T) {
	handler, _ := newTestImageSearchHandler(t, "http://127.0.0.1:1", decimal.NewFromInt(100))

	body, _ := json.Marshal(api.ImageSearchRequest{Query: "gopher", MaxResults: 21})
	r := httptest.NewRequest(http.MethodPost, "/image-search", bytes.NewBuffer(body))
	r.Header.Set("Content-Type", "application/json")
	r = r.WithContext(auth.WithIdentity(r.Context(), "acct_1", "", false))
	w := httptest.NewRecorder()

	handler.HandleSearch(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImageSearchHandler_HandleSearch_WrongContentTypeReturns400(t *testing.T) {
	handler, _ := newTestImageSearchHandler(t, "http://127.0.0.1:1", decimal.NewFromInt(100))

	body, _ := json.Marshal(api.ImageSearchRequest{Query: "gopher"})
	r := httptest.NewRequest(http.MethodPost, "/image-search", bytes.NewBuffer(body))
	r.Header.Set("Content-Type", "text/plain")
	r = r.WithContext(auth.WithIdentity(r.Context(), "acct_1", "", false))
	w := httptest.NewRecorder()

	handler.HandleSearch(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
