package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/extract"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
)

func TestIngestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, ingestErrorStatus(extract.ErrFileTooLarge))
	assert.Equal(t, http.StatusUnsupportedMediaType, ingestErrorStatus(extract.ErrUnsupportedSource))
	assert.Equal(t, http.StatusBadRequest, ingestErrorStatus(extract.ErrTooLittleText))
	assert.Equal(t, http.StatusBadRequest, ingestErrorStatus(extract.ErrExtractionFailed))
	assert.Equal(t, http.StatusServiceUnavailable, ingestErrorStatus(rag.ErrEmbeddingUnavailable))
	assert.Equal(t, http.StatusInternalServerError, ingestErrorStatus(assert.AnError))
}

func TestAddURLRejectsInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil, nil, nil)

	r := gin.New()
	r.POST("/v1/documents/url", handler.AddURL)

	rec := doJSON(t, r, http.MethodPost, "/v1/documents/url", gin.H{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(nil, nil, nil)

	r := gin.New()
	r.POST("/v1/documents", handler.Upload)

	rec := doJSON(t, r, http.MethodPost, "/v1/documents", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
