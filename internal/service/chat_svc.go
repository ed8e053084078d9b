package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
)

// historyWindow is how many recent turns feed query expansion.
const historyWindow = 8

const (
	feedbackReply = "Sorry the previous answer missed the mark. Try asking again with more specific wording, " +
		"for example naming the feature or section you are interested in."

	noContextReply = "I could not find relevant information in the document library to answer that. " +
		"Try rephrasing the question or uploading a related document."
)

// History is the conversation persistence the chat service needs.
type History interface {
	Append(ctx context.Context, sessionID string, turn rag.ConversationTurn) error
	Recent(ctx context.Context, sessionID string, n int) ([]rag.ConversationTurn, error)
	Clear(ctx context.Context, sessionID string) error
}

// Source describes where a piece of answer context came from.
type Source struct {
	DocName    string  `json:"doc_name"`
	PageNumber int     `json:"page_number"`
	ChunkIndex int     `json:"chunk_index"`
	Distance   float64 `json:"distance"`
}

// AnswerResult is the outcome of one chat turn.
type AnswerResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`

	// Grounded is false for canned replies that never touched the index.
	Grounded bool `json:"grounded"`
}

// ChatService orchestrates the question answering pipeline.
type ChatService struct {
	expander    *rag.Expander
	retriever   *rag.Retriever
	filter      *rag.Filter
	synthesizer *rag.Synthesizer
	generator   rag.Generator
	history     History
	logger      *logrus.Logger
}

func NewChatService(
	expander *rag.Expander,
	retriever *rag.Retriever,
	filter *rag.Filter,
	synthesizer *rag.Synthesizer,
	generator rag.Generator,
	history History,
	logger *logrus.Logger,
) *ChatService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ChatService{
		expander:    expander,
		retriever:   retriever,
		filter:      filter,
		synthesizer: synthesizer,
		generator:   generator,
		history:     history,
		logger:      logger,
	}
}

// GenerationReady reports whether the answer backend can take on a new
// session. Checked before a session starts so the user learns about a
// down backend up front, not after retrieval has run.
func (s *ChatService) GenerationReady(ctx context.Context) bool {
	return s.generator.IsReachable(ctx)
}

// Ask answers one user prompt within a session. Feedback prompts get a
// canned acknowledgement; everything else runs the full pipeline. A
// prompt with no relevant context gets a refusal rather than an error.
func (s *ChatService) Ask(ctx context.Context, sessionID, prompt string) (*AnswerResult, error) {
	if rag.ClassifyPrompt(prompt) == rag.PromptFeedback {
		result := &AnswerResult{Answer: feedbackReply}
		s.record(ctx, sessionID, prompt, result.Answer)
		return result, nil
	}

	turns, err := s.history.Recent(ctx, sessionID, historyWindow)
	if err != nil {
		s.logger.WithError(err).Warn("could not load conversation history")
		turns = nil
	}

	expanded, hints := s.expander.Expand(prompt, turns)
	if len(hints) > 0 {
		s.logger.WithField("hints", hints).Debug("query expanded")
	}

	candidates, err := s.retriever.Retrieve(ctx, prompt, expanded)
	if err != nil {
		return nil, err
	}

	kept, err := s.filter.Apply(prompt, candidates)
	if err != nil {
		if errors.Is(err, rag.ErrNoRelevantContext) {
			result := &AnswerResult{Answer: noContextReply}
			s.record(ctx, sessionID, prompt, result.Answer)
			return result, nil
		}
		return nil, err
	}

	answer, err := s.synthesizer.Synthesize(ctx, prompt, kept)
	if err != nil {
		return nil, err
	}

	result := &AnswerResult{
		Answer:   answer,
		Sources:  sourcesFrom(kept),
		Grounded: true,
	}
	s.record(ctx, sessionID, prompt, result.Answer)
	return result, nil
}

// HistoryFor returns the stored turns for a session, oldest first.
func (s *ChatService) HistoryFor(ctx context.Context, sessionID string, n int) ([]rag.ConversationTurn, error) {
	return s.history.Recent(ctx, sessionID, n)
}

// ClearSession drops a session's conversation.
func (s *ChatService) ClearSession(ctx context.Context, sessionID string) error {
	return s.history.Clear(ctx, sessionID)
}

// Retrieve exposes the retrieve-and-filter stages without synthesis.
// Used by the debugging endpoint.
func (s *ChatService) Retrieve(ctx context.Context, prompt string) ([]rag.RetrievedChunk, error) {
	expanded, _ := s.expander.Expand(prompt, nil)
	candidates, err := s.retriever.Retrieve(ctx, prompt, expanded)
	if err != nil {
		return nil, err
	}
	return s.filter.Apply(prompt, candidates)
}

func (s *ChatService) record(ctx context.Context, sessionID, prompt, answer string) {
	if err := s.history.Append(ctx, sessionID, rag.ConversationTurn{Role: rag.RoleUser, Content: prompt}); err != nil {
		s.logger.WithError(err).Warn("could not persist user turn")
		return
	}
	if err := s.history.Append(ctx, sessionID, rag.ConversationTurn{Role: rag.RoleAssistant, Content: answer}); err != nil {
		s.logger.WithError(err).Warn("could not persist assistant turn")
	}
}

func sourcesFrom(chunks []rag.RetrievedChunk) []Source {
	sources := make([]Source, 0, len(chunks))
	for _, chunk := range chunks {
		sources = append(sources, Source{
			DocName:    chunk.DocName,
			PageNumber: chunk.PageNumber,
			ChunkIndex: chunk.ChunkIndex,
			Distance:   chunk.Distance,
		})
	}
	return sources
}
