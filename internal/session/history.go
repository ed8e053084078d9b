package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/rag"
)

const (
	// historyKeyPrefix is the prefix for chat history keys
	historyKeyPrefix = "chat_history:"

	// DefaultHistoryTTL is how long an idle conversation survives
	DefaultHistoryTTL = 12 * time.Hour
)

// historyStore is the subset of the Redis client the history manager
// needs. Tests substitute an in-memory implementation.
type historyStore interface {
	RPush(ctx context.Context, key string, values ...interface{}) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// HistoryManager persists per-session conversation turns in Redis.
type HistoryManager struct {
	store historyStore
	ttl   time.Duration
}

func NewHistoryManager(store historyStore, ttl time.Duration) *HistoryManager {
	if ttl == 0 {
		ttl = DefaultHistoryTTL
	}
	return &HistoryManager{store: store, ttl: ttl}
}

// Append records a turn at the end of the session's history and
// refreshes the session TTL.
func (m *HistoryManager) Append(ctx context.Context, sessionID string, turn rag.ConversationTurn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	key := m.getKey(sessionID)
	if err := m.store.RPush(ctx, key, payload); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return m.store.Expire(ctx, key, m.ttl)
}

// Recent returns the last n turns for a session, oldest first.
// n <= 0 returns the full history.
func (m *HistoryManager) Recent(ctx context.Context, sessionID string, n int) ([]rag.ConversationTurn, error) {
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}

	raw, err := m.store.LRange(ctx, m.getKey(sessionID), start, -1)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	turns := make([]rag.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn rag.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			// Skip entries written by an incompatible older format.
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear removes a session's history entirely.
func (m *HistoryManager) Clear(ctx context.Context, sessionID string) error {
	return m.store.Del(ctx, m.getKey(sessionID))
}

func (m *HistoryManager) getKey(sessionID string) string {
	return historyKeyPrefix + sessionID
}
