package routing

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
)

// slowClassifyThreshold is the latency target for one classification.
const slowClassifyThreshold = 500 * time.Millisecond

const classifierSystemPrompt = `You are an intent classifier for an e-commerce shopping assistant.
Classify the user's message into exactly one intent:
- "recommendation": the user wants product suggestions
- "comparison": the user wants specific named products compared
- "review": the user asks what reviewers or customers think of a product
- "policy": the user asks about store policies (returns, shipping, warranty, payment)
- "price": the user asks about the price of a product or where it is cheapest
- "general": greetings, small talk, or anything else

Respond with a single JSON object:
{"intent": "...", "confidence": 0.0-1.0, "product_name": "...", "category": "...", "max_price": null, "min_price": null, "reasoning": "..."}

Only include product_name, category, max_price, min_price when the message states them.`

// Classifier turns a free-form query into a Result. It never returns an
// error: every failure path degrades to the general intent with zero
// confidence so the orchestrator can still route the turn.
type Classifier struct {
	llm llm.Service
}

// NewClassifier creates an intent classifier over the given LLM.
func NewClassifier(service llm.Service) *Classifier {
	return &Classifier{llm: service}
}

// Classify routes one query. The zero-value degradation path means callers
// can rely on a non-nil result with a valid intent.
func (c *Classifier) Classify(ctx context.Context, query string) *Result {
	started := time.Now()
	result := c.classify(ctx, query)
	elapsed := time.Since(started)

	if elapsed > slowClassifyThreshold {
		slog.Warn("intent classification exceeded latency target",
			"intent", result.Intent,
			"duration_ms", elapsed.Milliseconds(),
		)
	} else {
		slog.Debug("intent classified",
			"intent", result.Intent,
			"confidence", result.Confidence,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return result
}

func (c *Classifier) classify(ctx context.Context, query string) *Result {
	if c.llm == nil {
		return GeneralResult("llm not configured")
	}

	content, _, err := c.llm.ChatJSON(ctx, []llm.Message{
		llm.SystemPrompt(classifierSystemPrompt),
		llm.UserMessage(query),
	})
	if err != nil {
		return GeneralResult("classification failed: " + err.Error())
	}

	var result Result
	if err := json.Unmarshal([]byte(stripFences(content)), &result); err != nil {
		return GeneralResult("classification returned malformed output: " + err.Error())
	}

	if !result.Intent.IsValid() {
		return GeneralResult("classifier returned unknown intent " + string(result.Intent))
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return &result
}

// stripFences removes a markdown code fence around a JSON payload. Some
// models wrap JSON-mode output anyway.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
