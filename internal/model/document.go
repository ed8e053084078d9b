package model

import (
	"time"
)

type SourceType string

const (
	SourceTypeFile SourceType = "file"
	SourceTypeURL  SourceType = "url"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is an ingested source: an uploaded file or a scraped URL.
// Its chunks live in rag_chunks and carry the embeddings.
type Document struct {
	BaseModel
	Name         string         `gorm:"size:500;not null;uniqueIndex" json:"name"`
	OriginalName string         `gorm:"size:500" json:"original_name"`
	SourceType   SourceType     `gorm:"size:20;not null;default:'file'" json:"source_type"`
	SourceURL    string         `gorm:"size:1000" json:"source_url,omitempty"`
	ContentType  string         `gorm:"size:100" json:"content_type"`
	Size         int64          `json:"size"`
	PageCount    int            `gorm:"default:0" json:"page_count"`
	ChunkCount   int            `gorm:"default:0" json:"chunk_count"`
	Status       DocumentStatus `gorm:"size:50;default:'pending'" json:"status"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
	Metadata     JSONMap        `gorm:"type:jsonb" json:"metadata"`
}

func (Document) TableName() string {
	return "rag_documents"
}
