package chatbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/dharmendra-verma/smartshop-ai-sub000/server/router/api/v1"
)

type stubRunner struct {
	turns   []*v1.TurnResult
	queries []string
	ids     []string
	cleared []string
}

func (r *stubRunner) RunTurn(_ context.Context, sessionID, message string, _ int) *v1.TurnResult {
	r.queries = append(r.queries, message)
	r.ids = append(r.ids, sessionID)
	turn := r.turns[0]
	if len(r.turns) > 1 {
		r.turns = r.turns[1:]
	}
	return turn
}

func (r *stubRunner) ClearSession(_ context.Context, sessionID string) bool {
	r.cleared = append(r.cleared, sessionID)
	return true
}

func newTestBridge(runner *stubRunner) *Bridge {
	return &Bridge{chat: runner, sessions: map[int64]string{}}
}

func TestBridge_BindsChatToSession(t *testing.T) {
	runner := &stubRunner{turns: []*v1.TurnResult{{
		Success:   true,
		SessionID: "session-1",
		Response:  map[string]any{"answer": "Hello!"},
	}}}
	bridge := newTestBridge(runner)

	reply := bridge.HandleText(context.Background(), 42, "hi there")
	assert.Equal(t, "Hello!", reply)
	require.Len(t, runner.ids, 1)
	assert.Empty(t, runner.ids[0], "first message starts without a session")

	bridge.HandleText(context.Background(), 42, "and again")
	require.Len(t, runner.ids, 2)
	assert.Equal(t, "session-1", runner.ids[1], "follow-ups reuse the bound session")

	bridge.HandleText(context.Background(), 7, "different chat")
	assert.Empty(t, runner.ids[2], "each chat gets its own session")
}

func TestBridge_NewChatResetsSession(t *testing.T) {
	runner := &stubRunner{turns: []*v1.TurnResult{{
		Success:   true,
		SessionID: "session-1",
		Response:  map[string]any{"answer": "Hello!"},
	}}}
	bridge := newTestBridge(runner)

	bridge.HandleText(context.Background(), 42, "hi there")
	reply := bridge.HandleText(context.Background(), 42, "/newchat")
	assert.Contains(t, reply, "fresh conversation")
	assert.Equal(t, []string{"session-1"}, runner.cleared)

	bridge.HandleText(context.Background(), 42, "hello again")
	assert.Empty(t, runner.ids[1], "post-reset messages start a new session")
}

func TestBridge_FailedTurnApologizes(t *testing.T) {
	runner := &stubRunner{turns: []*v1.TurnResult{{
		Success: false,
		Error:   "recommendation error: model down",
	}}}
	bridge := newTestBridge(runner)

	reply := bridge.HandleText(context.Background(), 42, "recommend a phone")
	assert.Contains(t, reply, "Sorry")
	assert.NotContains(t, reply, "model down", "internal errors stay internal")
}

func TestRenderReply_Recommendations(t *testing.T) {
	reply := renderReply(&v1.TurnResult{
		Success: true,
		Response: map[string]any{
			"search_summary": "Two phones matched.",
			"recommendations": []map[string]any{
				{"name": "Nova X5 Smartphone", "price": 449.99, "reason": "best display"},
				{"name": "Pixelline 8 Lite", "price": 399.99, "reason": "best value"},
			},
		},
	})

	assert.Contains(t, reply, "Two phones matched.")
	assert.Contains(t, reply, "*Nova X5 Smartphone* — $449.99")
	assert.Contains(t, reply, "best value")
}

func TestRenderReply_EmptyData(t *testing.T) {
	reply := renderReply(&v1.TurnResult{Success: true, Response: map[string]any{}})
	assert.Equal(t, "Done.", reply)
}
