package v1

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/agents"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/orchestrator"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/routing"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/session"
)

// ChatService runs one conversational turn end to end. Both the HTTP handler
// and the Telegram bridge dispatch through it.
type ChatService struct {
	Orchestrator *orchestrator.Orchestrator
	Sessions     *session.Memory
	Deps         *agents.Dependencies
	Timeout      time.Duration
}

// TurnResult is the complete outcome of one turn, transport-agnostic.
type TurnResult struct {
	Message    string
	SessionID  string
	Intent     routing.Intent
	Confidence float64
	Entities   map[string]any
	AgentUsed  string
	Response   map[string]any
	Success    bool
	Error      string
}

// RunTurn resolves the session, enriches the query with conversation
// history, dispatches through the orchestrator, and persists the exchange.
// The turn is bounded by the configured agent timeout.
func (s *ChatService) RunTurn(ctx context.Context, sessionID, message string, maxResults int) *TurnResult {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	if sessionID == "" {
		sessionID = s.Sessions.CreateSession(ctx)
	}
	history := s.Sessions.History(ctx, sessionID)
	enriched := session.BuildEnrichedQuery(message, history)

	actx := &agents.Context{
		Deps:       s.Deps,
		SessionID:  sessionID,
		MaxResults: maxResults,
	}
	response, routed := s.Orchestrator.Handle(ctx, enriched, actx)

	result := &TurnResult{
		Message:    message,
		SessionID:  sessionID,
		Intent:     routed.Intent,
		Confidence: routed.Confidence,
		Entities:   entitiesOf(routed),
		Success:    response.Success,
		Error:      response.Error,
		Response:   response.Data,
	}
	if agent, ok := response.Metadata["agent_used"].(string); ok {
		result.AgentUsed = agent
	}

	if response.Success {
		s.Sessions.AppendTurn(ctx, sessionID, message, answerText(response.Data))
	}
	return result
}

// ClearSession drops a session's history and reports whether it existed.
func (s *ChatService) ClearSession(ctx context.Context, sessionID string) bool {
	return s.Sessions.Clear(ctx, sessionID)
}

// answerText flattens an agent's structured output into the prose stored in
// session history. Agents that answer in text expose it under a known key;
// structured-only outputs fall back to their JSON form.
func answerText(data map[string]any) string {
	for _, key := range []string{"answer", "summary", "search_summary"} {
		if text, ok := data[key].(string); ok && text != "" {
			return text
		}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// entitiesOf lifts the classifier's extracted entities into the response
// shape. Absent entities are omitted rather than nulled.
func entitiesOf(routed *routing.Result) map[string]any {
	entities := map[string]any{}
	if routed.ProductName != "" {
		entities["product_name"] = routed.ProductName
	}
	if routed.Category != "" {
		entities["category"] = routed.Category
	}
	if routed.MaxPrice != nil {
		entities["max_price"] = *routed.MaxPrice
	}
	if routed.MinPrice != nil {
		entities["min_price"] = *routed.MinPrice
	}
	return entities
}
