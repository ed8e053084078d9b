package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err   error
	calls []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, text)
	return []float32{float32(len(text))}, nil
}

type fakeSearcher struct {
	byQueryLen map[int][]RetrievedChunk
	err        error
}

func (f *fakeSearcher) Search(_ context.Context, vector []float32, _ int) ([]RetrievedChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byQueryLen[int(vector[0])], nil
}

func chunk(id string, distance float64) RetrievedChunk {
	return RetrievedChunk{
		ChunkID:   id,
		ChunkText: "content of " + id,
		Distance:  distance,
	}
}

func TestRetrieveMergesAndSorts(t *testing.T) {
	question := "q"
	expanded := "q plus hints"

	searcher := &fakeSearcher{byQueryLen: map[int][]RetrievedChunk{
		len(question): {chunk("a", 0.8), chunk("b", 0.3)},
		len(expanded): {chunk("c", 0.5), chunk("a", 0.8)},
	}}

	r := NewRetriever(&fakeEmbedder{}, searcher, 0, testLogger())
	got, err := r.Retrieve(context.Background(), question, expanded)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ChunkID)
	assert.Equal(t, "c", got[1].ChunkID)
	assert.Equal(t, "a", got[2].ChunkID)
}

func TestRetrieveDeduplicatesByChunkID(t *testing.T) {
	question := "q"
	expanded := "q expanded"

	searcher := &fakeSearcher{byQueryLen: map[int][]RetrievedChunk{
		len(question): {chunk("dup", 0.4)},
		len(expanded): {chunk("dup", 0.4)},
	}}

	r := NewRetriever(&fakeEmbedder{}, searcher, 0, testLogger())
	got, err := r.Retrieve(context.Background(), question, expanded)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewRetriever(&fakeEmbedder{err: boom}, &fakeSearcher{}, 0, testLogger())

	_, err := r.Retrieve(context.Background(), "q", "q expanded")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestRetrieveSearchFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("index down")}
	r := NewRetriever(&fakeEmbedder{}, searcher, 0, testLogger())

	_, err := r.Retrieve(context.Background(), "q", "q expanded")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	searcher := &fakeSearcher{byQueryLen: map[int][]RetrievedChunk{}}
	r := NewRetriever(&fakeEmbedder{}, searcher, 0, testLogger())

	got, err := r.Retrieve(context.Background(), "q", "q expanded")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveDeterministicOrdering(t *testing.T) {
	question := "q"
	expanded := "q x"

	searcher := &fakeSearcher{byQueryLen: map[int][]RetrievedChunk{
		len(question): {chunk("orig", 0.5)},
		len(expanded): {chunk("exp", 0.5)},
	}}

	r := NewRetriever(&fakeEmbedder{}, searcher, 0, testLogger())
	for i := 0; i < 10; i++ {
		got, err := r.Retrieve(context.Background(), question, expanded)
		require.NoError(t, err)
		require.Len(t, got, 2)
		// Equal distances: expanded-query hit keeps its first-occurrence rank.
		assert.Equal(t, "exp", got[0].ChunkID)
		assert.Equal(t, "orig", got[1].ChunkID)
	}
}
