package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Summarize(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"))
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text

		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "  Likely a connection pool exhaustion, see excerpt 1.\n"},
				}}},
			},
		}))
	}))
	t.Cleanup(server.Close)

	provider := NewProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	summary, err := provider.Summarize(context.Background(), "checkout 500s", []string{
		"DB connection pool exhausted after deploy.",
		"Cache stampede on search cluster.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Likely a connection pool exhaustion, see excerpt 1.", summary)

	assert.Contains(t, gotPrompt, "checkout 500s")
	assert.Contains(t, gotPrompt, "Excerpt 1:\nDB connection pool exhausted after deploy.")
	assert.Contains(t, gotPrompt, "Excerpt 2:\nCache stampede on search cluster.")
}

func TestProvider_Summarize_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}}))
	}))
	t.Cleanup(server.Close)

	provider := NewProvider(Config{APIKey: "k", BaseURL: server.URL})
	_, err := provider.Summarize(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestProvider_Summarize_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	provider := NewProvider(Config{APIKey: "k", BaseURL: server.URL})
	_, err := provider.Summarize(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
