// Package rag implements the retrieval-and-answer pipeline: chunking,
// query expansion, multi-pass vector retrieval, relevance filtering, and
// answer synthesis with post-processing.
package rag

import (
	"context"
	"errors"
)

// Pipeline failure conditions. Handlers map these to user-facing outcomes
// with errors.Is; none of them is retried inside this package.
var (
	// ErrEmbeddingUnavailable means the embedding backend could not be
	// reached. The current question or ingestion item is aborted.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrGenerationUnavailable means the generation backend could not be
	// reached or timed out. The current answer is aborted.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")

	// ErrNoRelevantContext means no retrieved chunk cleared the fallback
	// distance threshold. This is a terminal refuse-to-answer outcome,
	// not an internal error.
	ErrNoRelevantContext = errors.New("no relevant context found")

	// ErrEmptyContext means the synthesizer was invoked with zero context
	// chunks, which correct wiring never does.
	ErrEmptyContext = errors.New("empty context")
)

// RetrievedChunk is a read-only projection returned by the vector index at
// query time. Distance is a dissimilarity score: 0 means identical, larger
// means less similar, typically in the 0-2 range for cosine distance.
type RetrievedChunk struct {
	ChunkID    string  `json:"chunk_id"`
	ChunkText  string  `json:"chunk_text"`
	DocName    string  `json:"doc_name"`
	ChunkIndex int     `json:"chunk_index"`
	PageNumber int     `json:"page_number"`
	Distance   float64 `json:"distance"`
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message in a chat session. The session layer owns
// the sequence; the expander only reads it.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Embedder produces a fixed-dimensionality vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher returns the nearest chunks to a query vector, best match first.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]RetrievedChunk, error)
}

// GenerateOptions controls decoding on the generation backend.
type GenerateOptions struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	Stop          []string
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	IsReachable(ctx context.Context) bool
}
