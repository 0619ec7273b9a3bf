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

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *EmbeddingService) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc := NewEmbeddingService(Config{BaseURL: server.URL, Model: "test-model", Dimensions: 3})
	return server, svc
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultModel, svc.model)
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestEmbed(t *testing.T) {
	var gotReq embedRequest
	_, svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{0.1, 0.2, 0.3}}})
	})

	embedding, err := svc.Embed(context.Background(), "tariff order text")
	require.NoError(t, err)

	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, []string{"tariff order text"}, gotReq.Input)
	require.Len(t, embedding, 3)
	assert.InDelta(t, 0.1, embedding[0], 1e-6)
}

func TestEmbedBatch(t *testing.T) {
	var gotReq embedRequest
	_, svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{
			{1, 0, 0},
			{0, 1, 0},
		}})
	})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
	require.Len(t, embeddings, 2)
	assert.Equal(t, float32(1), embeddings[0][0])
	assert.Equal(t, float32(1), embeddings[1][1])
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	embeddings, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	_, svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{1, 0, 0}}})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings")
}

func TestEmbed_ServerError(t *testing.T) {
	_, svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestEmbed_Unreachable(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := svc.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	_, svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestPing_Failure(t *testing.T) {
	_, svc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	err := svc.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestClose(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.NoError(t, svc.Close())
}
