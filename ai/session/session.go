// Package session keeps the per-conversation sliding-window history the chat
// pipeline uses to resolve follow-up references. Histories live in the cache
// substrate under the session namespace and expire with its TTL, refreshed on
// every write.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/cache"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/internal/strutil"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxPairs is the sliding-window cap: 10 user/assistant pairs.
const DefaultMaxPairs = 10

// maxAssistantRunes bounds the stored assistant text so complex agent
// outputs do not bloat the enriched query.
const maxAssistantRunes = 2000

// ChatMessage is one stored turn half. Messages are immutable once appended.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Memory stores conversation histories in the shared cache substrate.
// Concurrent appends to the same session race read-modify-write; the later
// writer keeps the whole history. One user per session makes the worst case
// a single dropped turn, which is accepted.
type Memory struct {
	cache    cache.Cache
	ttl      time.Duration
	maxPairs int
}

// NewMemory creates a session memory over the given cache handle.
func NewMemory(c cache.Cache, ttl time.Duration, maxPairs int) *Memory {
	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}
	return &Memory{cache: c, ttl: ttl, maxPairs: maxPairs}
}

// CreateSession generates a fresh session id and initializes empty history.
func (m *Memory) CreateSession(ctx context.Context) string {
	id := uuid.NewString()
	m.write(ctx, id, []ChatMessage{})
	slog.Debug("session created", "session_id", id)
	return id
}

// History returns the stored messages for a session, oldest first. A missing
// session or a corrupted payload reads as empty history.
func (m *Memory) History(ctx context.Context, id string) []ChatMessage {
	raw, ok := m.cache.Get(ctx, id)
	if !ok {
		return []ChatMessage{}
	}
	var messages []ChatMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		slog.Warn("session history corrupted, starting empty", "session_id", id, "error", err)
		return []ChatMessage{}
	}
	return messages
}

// AppendTurn appends one user/assistant pair, trims the window from the
// front, and refreshes the TTL.
func (m *Memory) AppendTurn(ctx context.Context, id, userText, assistantText string) {
	now := time.Now().Unix()
	messages := m.History(ctx, id)
	messages = append(messages,
		ChatMessage{Role: RoleUser, Content: userText, Timestamp: now},
		ChatMessage{Role: RoleAssistant, Content: strutil.Truncate(assistantText, maxAssistantRunes), Timestamp: now},
	)

	// Oldest pairs go first so the window stays even-aligned.
	if max := m.maxPairs * 2; len(messages) > max {
		messages = messages[len(messages)-max:]
	}

	m.write(ctx, id, messages)
}

// Clear replaces a session with empty history and reports whether it
// previously existed.
func (m *Memory) Clear(ctx context.Context, id string) bool {
	existed := m.cache.Delete(ctx, id)
	m.write(ctx, id, []ChatMessage{})
	return existed
}

func (m *Memory) write(ctx context.Context, id string, messages []ChatMessage) {
	raw, err := json.Marshal(messages)
	if err != nil {
		slog.Warn("failed to marshal session history", "session_id", id, "error", err)
		return
	}
	m.cache.Set(ctx, id, raw, m.ttl)
}

// BuildEnrichedQuery prefixes the current query with the conversation so the
// LLM can resolve references like "the second one". An empty history returns
// the query verbatim.
func BuildEnrichedQuery(query string, history []ChatMessage) string {
	if len(history) == 0 {
		return query
	}

	var b strings.Builder
	b.WriteString("[CONVERSATION HISTORY]\n")
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	b.WriteString("\n[CURRENT QUERY]\n")
	fmt.Fprintf(&b, "user: %s", query)
	return b.String()
}
