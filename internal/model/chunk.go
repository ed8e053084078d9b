package model

import (
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Chunk is one retrievable unit of a document, stored with its embedding.
// ChunkKey is the stable external id (<doc>_<short-uuid>_chunk_<n>) used at
// query time; ChunkIndex is unique and contiguous within a document.
type Chunk struct {
	BaseModel
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	DocName    string          `gorm:"size:500;not null;index" json:"doc_name"`
	ChunkKey   string          `gorm:"size:600;not null;uniqueIndex" json:"chunk_key"`
	ChunkIndex int             `gorm:"not null" json:"chunk_index"`
	PageNumber int             `gorm:"not null" json:"page_number"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Embedding  pgvector.Vector `gorm:"type:vector(384)" json:"-"` // all-MiniLM class models emit 384 dims
	Metadata   JSONMap         `gorm:"type:jsonb" json:"metadata"`

	// Relations
	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
}

func (Chunk) TableName() string {
	return "rag_chunks"
}
