package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/service"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

type fakeSearcher struct {
	results []rag.RetrievedChunk
}

func (f *fakeSearcher) Search(context.Context, []float32, int) ([]rag.RetrievedChunk, error) {
	return f.results, nil
}

type fakeGenerator struct {
	answer string
	down   bool
}

func (f *fakeGenerator) Generate(context.Context, string, rag.GenerateOptions) (string, error) {
	return f.answer, nil
}

func (f *fakeGenerator) IsReachable(context.Context) bool { return !f.down }

type fakeHistory struct {
	turns map[string][]rag.ConversationTurn
}

func (f *fakeHistory) Append(_ context.Context, sessionID string, turn rag.ConversationTurn) error {
	f.turns[sessionID] = append(f.turns[sessionID], turn)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, sessionID string, _ int) ([]rag.ConversationTurn, error) {
	return f.turns[sessionID], nil
}

func (f *fakeHistory) Clear(_ context.Context, sessionID string) error {
	delete(f.turns, sessionID)
	return nil
}

func newTestRouter(searcher *fakeSearcher, generator *fakeGenerator, history *fakeHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	chatSvc := service.NewChatService(
		rag.NewExpander(nil, logger),
		rag.NewRetriever(fakeEmbedder{}, searcher, 30, logger),
		rag.NewFilter(nil, logger),
		rag.NewSynthesizer(generator, 1500, logger),
		generator,
		history,
		logger,
	)
	chatHandler := NewChatHandler(chatSvc)

	r := gin.New()
	r.POST("/v1/chat/ask", chatHandler.Ask)
	r.GET("/v1/chat/sessions/:id/history", chatHandler.History)
	r.DELETE("/v1/chat/sessions/:id", chatHandler.ClearSession)
	r.POST("/retrieve", chatHandler.Retrieve)
	return r
}

func answerableChunk() rag.RetrievedChunk {
	return rag.RetrievedChunk{
		ChunkID:    "c1",
		ChunkText:  "To configure the database connection, edit the settings file and restart the service.",
		DocName:    "admin_guide",
		PageNumber: 3,
		Distance:   0.5,
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAskEndpoint(t *testing.T) {
	history := &fakeHistory{turns: map[string][]rag.ConversationTurn{}}
	router := newTestRouter(
		&fakeSearcher{results: []rag.RetrievedChunk{answerableChunk()}},
		&fakeGenerator{answer: "Edit the settings file."},
		history,
	)

	rec := doJSON(t, router, http.MethodPost, "/v1/chat/ask", gin.H{
		"session_id": "s1",
		"question":   "How do I configure the database?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "Edit the settings file.", resp.Answer)
	assert.True(t, resp.Grounded)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "admin_guide", resp.Sources[0].DocName)
}

func TestAskEndpointGeneratesSessionID(t *testing.T) {
	history := &fakeHistory{turns: map[string][]rag.ConversationTurn{}}
	router := newTestRouter(
		&fakeSearcher{results: []rag.RetrievedChunk{answerableChunk()}},
		&fakeGenerator{answer: "ok"},
		history,
	)

	rec := doJSON(t, router, http.MethodPost, "/v1/chat/ask", gin.H{
		"question": "How do I configure the database?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
}

func TestAskEndpointNewSessionRequiresReachableBackend(t *testing.T) {
	history := &fakeHistory{turns: map[string][]rag.ConversationTurn{}}
	router := newTestRouter(
		&fakeSearcher{results: []rag.RetrievedChunk{answerableChunk()}},
		&fakeGenerator{answer: "ok", down: true},
		history,
	)

	// Starting a session against a down backend fails up front.
	rec := doJSON(t, router, http.MethodPost, "/v1/chat/ask", gin.H{
		"question": "How do I configure the database?",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, history.turns)

	// An established session is not re-gated on reachability.
	rec = doJSON(t, router, http.MethodPost, "/v1/chat/ask", gin.H{
		"session_id": "s1",
		"question":   "How do I configure the database?",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAskEndpointMissingQuestion(t *testing.T) {
	router := newTestRouter(
		&fakeSearcher{},
		&fakeGenerator{},
		&fakeHistory{turns: map[string][]rag.ConversationTurn{}},
	)

	rec := doJSON(t, router, http.MethodPost, "/v1/chat/ask", gin.H{"session_id": "s1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	history := &fakeHistory{turns: map[string][]rag.ConversationTurn{
		"s1": {
			{Role: rag.RoleUser, Content: "question"},
			{Role: rag.RoleAssistant, Content: "answer"},
		},
	}}
	router := newTestRouter(&fakeSearcher{}, &fakeGenerator{}, history)

	rec := doJSON(t, router, http.MethodGet, "/v1/chat/sessions/s1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string                 `json:"session_id"`
		Turns     []rag.ConversationTurn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.Turns, 2)
	assert.Equal(t, "question", resp.Turns[0].Content)
}

func TestClearSessionEndpoint(t *testing.T) {
	history := &fakeHistory{turns: map[string][]rag.ConversationTurn{
		"s1": {{Role: rag.RoleUser, Content: "q"}},
	}}
	router := newTestRouter(&fakeSearcher{}, &fakeGenerator{}, history)

	rec := doJSON(t, router, http.MethodDelete, "/v1/chat/sessions/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, history.turns["s1"])
}

func TestRetrieveEndpoint(t *testing.T) {
	router := newTestRouter(
		&fakeSearcher{results: []rag.RetrievedChunk{answerableChunk()}},
		&fakeGenerator{},
		&fakeHistory{turns: map[string][]rag.ConversationTurn{}},
	)

	rec := doJSON(t, router, http.MethodPost, "/retrieve", gin.H{
		"query": "How do I configure the database?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RetrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Chunks, 1)
	assert.Equal(t, "c1", resp.Chunks[0].ChunkID)
}

func TestRetrieveEndpointNoMatches(t *testing.T) {
	router := newTestRouter(
		&fakeSearcher{results: nil},
		&fakeGenerator{},
		&fakeHistory{turns: map[string][]rag.ConversationTurn{}},
	)

	rec := doJSON(t, router, http.MethodPost, "/retrieve", gin.H{"query": "anything at all?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RetrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Chunks)
}
