package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// DefaultTopK is the per-query search size before filtering.
const DefaultTopK = 30

// Retriever issues two nearest-neighbor searches per question, one for the
// original query and one for the expanded query, then merges the results.
type Retriever struct {
	embedder Embedder
	searcher Searcher
	topK     int
	logger   *logrus.Logger
}

// NewRetriever creates a retriever. topK <= 0 selects DefaultTopK.
func NewRetriever(embedder Embedder, searcher Searcher, topK int, logger *logrus.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Retriever{embedder: embedder, searcher: searcher, topK: topK, logger: logger}
}

// Retrieve embeds both queries, searches the index with each, and returns
// the deduplicated union sorted ascending by distance. The two searches are
// independent and run concurrently; merge order is fixed (expanded results
// first) so the output does not depend on completion order. If either
// embedding call fails the retrieval fails with ErrEmbeddingUnavailable and
// no search is issued.
func (r *Retriever) Retrieve(ctx context.Context, question, expandedQuery string) ([]RetrievedChunk, error) {
	originalVec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed original query: %v", ErrEmbeddingUnavailable, err)
	}
	expandedVec, err := r.embedder.Embed(ctx, expandedQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embed expanded query: %v", ErrEmbeddingUnavailable, err)
	}

	type searchResult struct {
		chunks []RetrievedChunk
		err    error
	}

	expandedCh := make(chan searchResult, 1)
	go func() {
		chunks, err := r.searcher.Search(ctx, expandedVec, r.topK)
		expandedCh <- searchResult{chunks, err}
	}()

	originalChunks, originalErr := r.searcher.Search(ctx, originalVec, r.topK)
	expanded := <-expandedCh

	if expanded.err != nil {
		return nil, fmt.Errorf("search expanded query: %w", expanded.err)
	}
	if originalErr != nil {
		return nil, fmt.Errorf("search original query: %w", originalErr)
	}

	merged := mergeChunks(expanded.chunks, originalChunks)

	r.logger.WithFields(logrus.Fields{
		"expanded_hits": len(expanded.chunks),
		"original_hits": len(originalChunks),
		"merged":        len(merged),
	}).Debug("retrieval complete")

	return merged, nil
}

// mergeChunks concatenates the result lists, expanded-query hits first,
// drops duplicate chunk ids keeping the first occurrence, and sorts the
// survivors ascending by distance.
func mergeChunks(expanded, original []RetrievedChunk) []RetrievedChunk {
	seen := make(map[string]bool, len(expanded)+len(original))
	merged := make([]RetrievedChunk, 0, len(expanded)+len(original))

	for _, list := range [][]RetrievedChunk{expanded, original} {
		for _, chunk := range list {
			if seen[chunk.ChunkID] {
				continue
			}
			seen[chunk.ChunkID] = true
			merged = append(merged, chunk)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	return merged
}
