package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/service"
)

type ChatHandler struct {
	chatSvc *service.ChatService
}

func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

type AskRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question" binding:"required"`
}

type AskResponse struct {
	SessionID string `json:"session_id"`
	service.AnswerResult
}

// Ask answers a question within a chat session. A missing session_id
// starts a new session.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	if req.SessionID == "" {
		// New sessions refuse to start against a down answer backend.
		if !h.chatSvc.GenerationReady(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": rag.ErrGenerationUnavailable.Error()})
			return
		}
		req.SessionID = uuid.New().String()
	}

	result, err := h.chatSvc.Ask(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		c.JSON(pipelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, AskResponse{
		SessionID:    req.SessionID,
		AnswerResult: *result,
	})
}

// History returns the stored turns for a session.
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	turns, err := h.chatSvc.HistoryFor(c.Request.Context(), sessionID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"turns":      turns,
	})
}

// ClearSession drops a session's conversation history.
func (h *ChatHandler) ClearSession(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.chatSvc.ClearSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": sessionID})
}

type RetrieveRequest struct {
	Query string `json:"query" binding:"required"`
}

type RetrieveResponse struct {
	Chunks []rag.RetrievedChunk `json:"chunks"`
}

// Retrieve runs retrieval and filtering without answer synthesis.
func (h *ChatHandler) Retrieve(c *gin.Context) {
	var req RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	chunks, err := h.chatSvc.Retrieve(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, rag.ErrNoRelevantContext) {
			c.JSON(http.StatusOK, RetrieveResponse{Chunks: []rag.RetrievedChunk{}})
			return
		}
		c.JSON(pipelineErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, RetrieveResponse{Chunks: chunks})
}

func pipelineErrorStatus(err error) int {
	switch {
	case errors.Is(err, rag.ErrEmbeddingUnavailable),
		errors.Is(err, rag.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
