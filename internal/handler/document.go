package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/extract"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/repository"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/service"
)

type DocumentHandler struct {
	ingestSvc *service.IngestService
	docs      *repository.DocumentRepository
	index     *service.VectorIndexService
}

func NewDocumentHandler(ingestSvc *service.IngestService, docs *repository.DocumentRepository, index *service.VectorIndexService) *DocumentHandler {
	return &DocumentHandler{ingestSvc: ingestSvc, docs: docs, index: index}
}

// Upload ingests a multipart file upload.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}

	doc, err := h.ingestSvc.IngestFile(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		c.JSON(ingestErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, doc)
}

type AddURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// AddURL scrapes a web page and adds it to the corpus.
func (h *DocumentHandler) AddURL(c *gin.Context) {
	var req AddURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return
	}

	doc, err := h.ingestSvc.IngestURL(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(ingestErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// List returns documents with their stored chunk counts.
func (h *DocumentHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, total, err := h.docs.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     total,
	})
}

// Delete removes a document and all its chunks.
func (h *DocumentHandler) Delete(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.docs.FindByName(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	if err := h.index.DeleteDocument(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.docs.DeleteByName(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

func ingestErrorStatus(err error) int {
	switch {
	case errors.Is(err, extract.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, extract.ErrUnsupportedSource):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrTooLittleText),
		errors.Is(err, extract.ErrExtractionFailed):
		return http.StatusBadRequest
	case errors.Is(err, rag.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
