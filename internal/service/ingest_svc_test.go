package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/extract"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/model"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
)

type recordingEmbedder struct {
	batches [][]string
}

func (r *recordingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	r.batches = append(r.batches, texts)
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text))}
	}
	return vectors, nil
}

func TestSafeDocName(t *testing.T) {
	assert.Equal(t, "admin_guide_pdf", SafeDocName("admin guide.pdf"))
	assert.Equal(t, "r_l_ase-notes_2024", SafeDocName("r€l€ase-notes 2024"))
	assert.Equal(t, "already_safe-name", SafeDocName("already_safe-name"))
}

func TestDocNameFromURL(t *testing.T) {
	assert.Equal(t, "example.com/docs/setup", docNameFromURL("https://example.com/docs/setup"))
	assert.Equal(t, "example.com", docNameFromURL("https://example.com/"))
}

func TestIngestFileHonoursConfiguredUploadLimit(t *testing.T) {
	embedder := &recordingEmbedder{}
	svc := NewIngestService(nil, nil, embedder, rag.NewChunker(), 64, quietLogger())

	_, err := svc.IngestFile(context.Background(), "report.pdf", make([]byte, 128))
	assert.ErrorIs(t, err, extract.ErrFileTooLarge)
	assert.Empty(t, embedder.batches)
}

func TestBuildChunksAssignsGlobalIndexes(t *testing.T) {
	embedder := &recordingEmbedder{}
	svc := NewIngestService(nil, nil, embedder, rag.NewChunker(), 0, quietLogger())

	doc := &model.Document{Name: "guide_pdf"}
	pages := []extract.Page{
		{Number: 1, Text: strings.Repeat("First page sentence. ", 120)},
		{Number: 2, Text: strings.Repeat("Second page sentence. ", 120)},
	}

	chunks, err := svc.buildChunks(context.Background(), doc, pages)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	seen := make(map[string]bool)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "guide_pdf", chunk.DocName)
		assert.Contains(t, chunk.ChunkKey, fmt.Sprintf("_chunk_%d", i))
		assert.True(t, strings.HasPrefix(chunk.ChunkKey, "guide_pdf_"))
		assert.False(t, seen[chunk.ChunkKey])
		seen[chunk.ChunkKey] = true
	}

	// Page numbers carry through to the chunks from each page.
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 2, chunks[len(chunks)-1].PageNumber)
}

func TestBuildChunksEmbedsEveryChunk(t *testing.T) {
	embedder := &recordingEmbedder{}
	svc := NewIngestService(nil, nil, embedder, rag.NewChunker(), 0, quietLogger())

	doc := &model.Document{Name: "doc"}
	pages := []extract.Page{{Number: 1, Text: strings.Repeat("Some content here. ", 300)}}

	chunks, err := svc.buildChunks(context.Background(), doc, pages)
	require.NoError(t, err)

	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Embedding.Slice())
	}

	embedded := 0
	for _, batch := range embedder.batches {
		assert.LessOrEqual(t, len(batch), embedBatchSize)
		embedded += len(batch)
	}
	assert.Equal(t, len(chunks), embedded)
}

func TestBuildChunksMetadata(t *testing.T) {
	embedder := &recordingEmbedder{}
	svc := NewIngestService(nil, nil, embedder, rag.NewChunker(), 0, quietLogger())

	doc := &model.Document{Name: "doc"}
	pages := []extract.Page{{Number: 4, Text: strings.Repeat("content ", 50)}}

	chunks, err := svc.buildChunks(context.Background(), doc, pages)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	meta := chunks[0].Metadata
	assert.Equal(t, "doc", meta["doc_name"])
	assert.Equal(t, 0, meta["chunk_index"])
	assert.Equal(t, 4, meta["page_number"])
	assert.NotEmpty(t, meta["created_at"])
}
