package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kortix/gateway/gatewayerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebAdapter_Execute_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var body webSearchRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tavily-key", body.APIKey)
		assert.Equal(t, "golang generics", body.Query)
		assert.Equal(t, "advanced", body.SearchDepth)
		assert.Equal(t, 3, body.MaxResults)

		published := "2024-01-02"
		json.NewEncoder(w).Encode(webSearchResponseBody{
			Results: []webSearchUpstreamResult{
				{Title: "Go Generics", URL: "https://go.dev/generics", Content: "intro", PublishedDate: &published},
				{Title: "No Date", URL: "https://example.com", Content: "snippet"},
			},
		})
	}))
	defer srv.Close()

	a := NewWebAdapter(srv.URL, "tavily-key", zap.NewNop())
	results, err := a.Execute(t.Context(), "golang generics", 3, DepthAdvanced)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Go Generics", results[0].Title)
	require.NotNil(t, results[0].PublishedDate)
	assert.Equal(t, "2024-01-02", *results[0].PublishedDate)
	assert.Nil(t, results[1].PublishedDate)
}

func TestWebAdapter_Execute_ClampsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body webSearchRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, maxWebResults, body.MaxResults)
		json.NewEncoder(w).Encode(webSearchResponseBody{})
	}))
	defer srv.Close()

	a := NewWebAdapter(srv.URL, "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", 9000, DepthBasic)
	require.NoError(t, err)
}

func TestWebAdapter_Execute_DefaultsNonPositiveMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body webSearchRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 5, body.MaxResults)
		json.NewEncoder(w).Encode(webSearchResponseBody{})
	}))
	defer srv.Close()

	a := NewWebAdapter(srv.URL, "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", 0, DepthBasic)
	require.NoError(t, err)
}

func TestWebAdapter_Execute_UpstreamAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	a := NewWebAdapter(srv.URL, "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", 5, DepthBasic)
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.AuthInvalid, gwErr.Kind)
}

func TestWebAdapter_Execute_UpstreamServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewWebAdapter(srv.URL, "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", 5, DepthBasic)
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.UpstreamError, gwErr.Kind)
}

func TestWebAdapter_Execute_NetworkError(t *testing.T) {
	a := NewWebAdapter("http://127.0.0.1:1", "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", 5, DepthBasic)
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.UpstreamError, gwErr.Kind)
}
