package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{0.5, -0.25},
		}))
	}))
	t.Cleanup(server.Close)

	provider := NewProvider(Config{BaseURL: server.URL})
	vector, err := provider.Embed(context.Background(), "db outage")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25}, vector)
}

func TestProvider_EmbedBatch_EmptyVectorOnItemFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Prompt == "poison" {
			http.Error(w, "model choked", http.StatusInternalServerError)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{1},
		}))
	}))
	t.Cleanup(server.Close)

	provider := NewProvider(Config{BaseURL: server.URL})
	vectors, err := provider.EmbedBatch(context.Background(), []string{"ok", "poison", "ok"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1}, vectors[0])
	assert.Empty(t, vectors[1])
	assert.Equal(t, []float32{1}, vectors[2])
}

func TestProvider_Defaults(t *testing.T) {
	provider := NewProvider(Config{})
	assert.Equal(t, DefaultModel, provider.ModelName())
	assert.Equal(t, DefaultDimensions, provider.Dimensions())
}

func TestProvider_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	provider := NewProvider(Config{BaseURL: server.URL})
	assert.NoError(t, provider.Ping(context.Background()))
}
