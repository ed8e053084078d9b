package service

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/model"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/repository"
)

// VectorIndexService exposes the chunk store as a similarity index.
// It implements the retriever's search contract.
type VectorIndexService struct {
	chunks *repository.ChunkRepository
	logger *logrus.Logger
}

func NewVectorIndexService(chunks *repository.ChunkRepository, logger *logrus.Logger) *VectorIndexService {
	if logger == nil {
		logger = logrus.New()
	}
	return &VectorIndexService{chunks: chunks, logger: logger}
}

// Search returns the topK nearest chunks by cosine distance.
func (s *VectorIndexService) Search(ctx context.Context, vector []float32, topK int) ([]rag.RetrievedChunk, error) {
	rows, err := s.chunks.SearchNearest(ctx, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, err
	}

	results := make([]rag.RetrievedChunk, 0, len(rows))
	for _, row := range rows {
		results = append(results, rag.RetrievedChunk{
			ChunkID:    row.ChunkKey,
			ChunkText:  row.Content,
			DocName:    row.DocName,
			ChunkIndex: row.ChunkIndex,
			PageNumber: row.PageNumber,
			Distance:   row.Distance,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"top_k":   topK,
		"results": len(results),
	}).Debug("vector search completed")

	return results, nil
}

// Store persists a batch of embedded chunks.
func (s *VectorIndexService) Store(ctx context.Context, chunks []model.Chunk) error {
	return s.chunks.CreateBatch(ctx, chunks)
}

// ListDocuments returns per-document chunk counts for the corpus.
func (s *VectorIndexService) ListDocuments(ctx context.Context) (map[string]int64, error) {
	return s.chunks.ListDocNames(ctx)
}

// DeleteDocument removes every chunk belonging to a document.
func (s *VectorIndexService) DeleteDocument(ctx context.Context, docName string) error {
	return s.chunks.DeleteByDocName(ctx, docName)
}
