package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
)

func TestEmbedBatch(t *testing.T) {
	var gotReq EmbeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := EmbeddingResponse{Model: "all-MiniLM-L6-v2"}
		resp.Data = []struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}{
			{Index: 1, Embedding: []float32{0.4, 0.5}},
			{Index: 0, Embedding: []float32{0.1, 0.2}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewEmbeddingService("", server.URL+"/v1", "all-MiniLM-L6-v2", 384)
	vectors, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	// Responses are ordered by the index field, not arrival order.
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.4, 0.5}, vectors[1])
	assert.Equal(t, "all-MiniLM-L6-v2", gotReq.Model)
}

func TestEmbedSingle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := EmbeddingResponse{}
		resp.Data = []struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}{
			{Index: 0, Embedding: []float32{1, 2, 3}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewEmbeddingService("", server.URL, "m", 3)
	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewEmbeddingService("", server.URL, "m", 3)
	_, err := svc.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, rag.ErrEmbeddingUnavailable)
}

func TestEmbedConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	svc := NewEmbeddingService("", server.URL, "m", 3)
	_, err := svc.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, rag.ErrEmbeddingUnavailable)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	svc := NewEmbeddingService("", "http://localhost:1", "m", 3)
	vectors, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedAuthorizationHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(EmbeddingResponse{})
	}))
	defer server.Close()

	svc := NewEmbeddingService("secret", server.URL, "m", 3)
	svc.EmbedBatch(context.Background(), []string{"x"})
	assert.Equal(t, "Bearer secret", gotAuth)

	svc = NewEmbeddingService("", server.URL, "m", 3)
	svc.EmbedBatch(context.Background(), []string{"x"})
	assert.Empty(t, gotAuth)
}
