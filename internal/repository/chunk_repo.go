package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&chunks).Error
}

// ChunkWithDistance is a chunk row annotated with its cosine distance
// to a query vector.
type ChunkWithDistance struct {
	model.Chunk
	Distance float64 `gorm:"column:distance"`
}

// SearchNearest returns the topK chunks closest to the query vector,
// ordered by ascending cosine distance.
func (r *ChunkRepository) SearchNearest(ctx context.Context, vector pgvector.Vector, topK int) ([]ChunkWithDistance, error) {
	var results []ChunkWithDistance

	err := r.db.WithContext(ctx).
		Table("rag_chunks").
		Select("*, embedding <=> ? as distance", vector).
		Where("embedding IS NOT NULL").
		Where("deleted_at IS NULL").
		Order("distance ASC").
		Limit(topK).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ChunkRepository) FindByDocumentID(ctx context.Context, documentID uuid.UUID, limit, offset int) ([]model.Chunk, int64, error) {
	var chunks []model.Chunk
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Chunk{}).
		Where("document_id = ?", documentID)

	query.Count(&total)
	err := query.Order("chunk_index ASC").Limit(limit).Offset(offset).Find(&chunks).Error
	return chunks, total, err
}

func (r *ChunkRepository) CountByDocName(ctx context.Context, docName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Chunk{}).
		Where("doc_name = ?", docName).
		Count(&count).Error
	return count, err
}

// ListDocNames returns the distinct document names that currently have
// chunks stored, with per-document chunk counts.
func (r *ChunkRepository) ListDocNames(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		DocName string
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&model.Chunk{}).
		Select("doc_name, count(*) as count").
		Where("deleted_at IS NULL").
		Group("doc_name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	names := make(map[string]int64, len(rows))
	for _, row := range rows {
		names[row.DocName] = row.Count
	}
	return names, nil
}

func (r *ChunkRepository) DeleteByDocName(ctx context.Context, docName string) error {
	return r.db.WithContext(ctx).Where("doc_name = ?", docName).Delete(&model.Chunk{}).Error
}

func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error
}
