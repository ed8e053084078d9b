package service

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/extract"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/model"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/repository"
)

// embedBatchSize bounds how many chunk texts go to the embedding
// backend in one request.
const embedBatchSize = 32

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// BatchEmbedder is the embedding capability ingestion needs.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestService runs the document ingestion pipeline: extract pages,
// chunk, embed, and store.
type IngestService struct {
	docs          *repository.DocumentRepository
	index         *VectorIndexService
	embedder      BatchEmbedder
	chunker       *rag.Chunker
	maxUploadSize int64
	pdf           *extract.PDFExtractor
	docx          *extract.DOCXExtractor
	scraper       *extract.Scraper
	logger        *logrus.Logger
}

func NewIngestService(
	docs *repository.DocumentRepository,
	index *VectorIndexService,
	embedder BatchEmbedder,
	chunker *rag.Chunker,
	maxUploadSize int64,
	logger *logrus.Logger,
) *IngestService {
	if chunker == nil {
		chunker = rag.NewChunker()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &IngestService{
		docs:          docs,
		index:         index,
		embedder:      embedder,
		chunker:       chunker,
		maxUploadSize: maxUploadSize,
		pdf:           extract.NewPDFExtractor(),
		docx:          extract.NewDOCXExtractor(),
		scraper:       extract.NewScraper(),
		logger:        logger,
	}
}

// IngestFile validates and ingests an uploaded file. Re-uploading a
// file with the same name replaces its previous chunks.
func (s *IngestService) IngestFile(ctx context.Context, filename string, content []byte) (*model.Document, error) {
	if err := extract.ValidateUpload(filename, int64(len(content)), s.maxUploadSize); err != nil {
		return nil, err
	}

	var pages []extract.Page
	var err error
	contentType := ""

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		contentType = "application/pdf"
		pages, err = s.pdf.Extract(ctx, content)
	case ".docx":
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		pages, err = s.docx.Extract(content)
	default:
		return nil, extract.ErrUnsupportedSource
	}
	if err != nil {
		return nil, err
	}
	if err := extract.ValidateText(pages); err != nil {
		return nil, err
	}

	doc := &model.Document{
		Name:         SafeDocName(filename),
		OriginalName: filename,
		SourceType:   model.SourceTypeFile,
		ContentType:  contentType,
		Size:         int64(len(content)),
	}
	return s.ingestPages(ctx, doc, pages)
}

// IngestURL scrapes a web page and ingests its readable text.
func (s *IngestService) IngestURL(ctx context.Context, pageURL string) (*model.Document, error) {
	pages, err := s.scraper.Scrape(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Name:         SafeDocName(docNameFromURL(pageURL)),
		OriginalName: pageURL,
		SourceType:   model.SourceTypeURL,
		SourceURL:    pageURL,
		ContentType:  "text/html",
	}
	return s.ingestPages(ctx, doc, pages)
}

func (s *IngestService) ingestPages(ctx context.Context, doc *model.Document, pages []extract.Page) (*model.Document, error) {
	// Same-name re-ingestion replaces the previous version.
	if err := s.index.DeleteDocument(ctx, doc.Name); err != nil {
		return nil, fmt.Errorf("replace existing chunks: %w", err)
	}
	if err := s.docs.DeleteByName(ctx, doc.Name); err != nil {
		return nil, fmt.Errorf("replace existing document: %w", err)
	}

	doc.Status = model.DocumentStatusProcessing
	doc.PageCount = len(pages)
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	chunks, err := s.buildChunks(ctx, doc, pages)
	if err != nil {
		s.markFailed(ctx, doc, err)
		return nil, err
	}

	if err := s.index.Store(ctx, chunks); err != nil {
		s.markFailed(ctx, doc, err)
		return nil, err
	}

	now := time.Now()
	doc.Status = model.DocumentStatusCompleted
	doc.ChunkCount = len(chunks)
	doc.ProcessedAt = &now
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"doc_name": doc.Name,
		"pages":    doc.PageCount,
		"chunks":   doc.ChunkCount,
	}).Info("document ingested")

	return doc, nil
}

// buildChunks splits each page and embeds the chunk texts. The chunk
// index runs across the whole document, not per page.
func (s *IngestService) buildChunks(ctx context.Context, doc *model.Document, pages []extract.Page) ([]model.Chunk, error) {
	ingestID := uuid.New().String()[:8]

	var chunks []model.Chunk
	var texts []string
	index := 0

	for _, page := range pages {
		for _, text := range s.chunker.Split(page.Text) {
			chunks = append(chunks, model.Chunk{
				DocumentID: doc.ID,
				DocName:    doc.Name,
				ChunkKey:   fmt.Sprintf("%s_%s_chunk_%d", doc.Name, ingestID, index),
				ChunkIndex: index,
				PageNumber: page.Number,
				Content:    text,
				Metadata: model.JSONMap{
					"doc_name":    doc.Name,
					"chunk_index": index,
					"page_number": page.Number,
					"created_at":  time.Now().UTC().Format(time.RFC3339),
				},
			})
			texts = append(texts, text)
			index++
		}
	}

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		vectors, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for i, vec := range vectors {
			chunks[start+i].Embedding = pgvector.NewVector(vec)
		}
	}

	return chunks, nil
}

func (s *IngestService) markFailed(ctx context.Context, doc *model.Document, cause error) {
	doc.Status = model.DocumentStatusFailed
	doc.ErrorMessage = cause.Error()
	if err := s.docs.Update(ctx, doc); err != nil {
		s.logger.WithError(err).Warn("failed to record ingestion failure")
	}
}

// SafeDocName normalises a document name to the characters allowed in
// chunk keys.
func SafeDocName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

func docNameFromURL(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	name := parsed.Host + parsed.Path
	name = strings.TrimSuffix(name, "/")
	if name == "" {
		name = pageURL
	}
	return name
}
