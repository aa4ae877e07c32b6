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

func TestImageAdapter_Execute_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var body imageSearchRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tavily-key", body.APIKey)
		assert.True(t, body.IncludeImages)
		assert.Equal(t, 4, body.MaxImageResults)
		assert.True(t, body.SafeSearch)

		width, height := 800, 600
		json.NewEncoder(w).Encode(imageSearchResponseBody{
			Images: []imageSearchUpstreamResult{
				{Title: "Gopher", URL: "https://example.com/gopher.png", Thumbnail: "https://example.com/gopher_t.png", Source: "https://example.com", Width: &width, Height: &height},
				{Title: "No Size", URL: "https://example.com/x.png"},
			},
		})
	}))
	defer srv.Close()

	a := NewImageAdapter(srv.URL, "tavily-key", zap.NewNop())
	results, err := a.Execute(t.Context(), "gopher mascot", 4, true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Gopher", results[0].Title)
	require.NotNil(t, results[0].Width)
	assert.Equal(t, 800, *results[0].Width)
	assert.Nil(t, results[1].Width)
}

func TestImageAdapter_Execute_ClampsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body imageSearchRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, maxImageResults, body.MaxImageResults)
		json.NewEncoder(w).Encode(imageSearchResponseBody{})
	}))
	defer srv.Close()

	a := NewImageAdapter(srv.URL, "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", 500, true)
	require.NoError(t, err)
}

func TestImageAdapter_Execute_DefaultsNonPositiveMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body imageSearchRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 5, body.MaxImageResults)
		json.NewEncoder(w).Encode(imageSearchResponseBody{})
	}))
	defer srv.Close()

	a := NewImageAdapter(srv.URL, "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", -1, true)
	require.NoError(t, err)
}

func TestImageAdapter_Execute_UpstreamNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewImageAdapter(srv.URL, "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", 5, true)
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.NotFound, gwErr.Kind)
}

func TestImageAdapter_Execute_NetworkError(t *testing.T) {
	a := NewImageAdapter("http://127.0.0.1:1", "key", zap.NewNop())
	_, err := a.Execute(t.Context(), "q", 5, true)
	require.Error(t, err)
	gwErr, ok := gatewayerr.As(err)
	require.True(t, ok)
	assert.Equal(t, gatewayerr.UpstreamError, gwErr.Kind)
}
