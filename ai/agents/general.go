package agents

import (
	"context"
	"time"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
)

const generalSystemPrompt = `You are SmartShop, a friendly shopping assistant.
The user's message is not a product, review, price, or policy question.
Reply in one or two sentences and gently steer the conversation back to shopping:
finding products, comparing prices, checking reviews, or store policies.`

// GeneralAgent is the fallback: no tools, a single LLM turn, and a concise
// redirect back to shopping topics.
type GeneralAgent struct {
	base
}

// NewGeneralAgent creates the fallback agent.
func NewGeneralAgent(service llm.Service) *GeneralAgent {
	return &GeneralAgent{base: base{
		name:         "general",
		llm:          service,
		systemPrompt: generalSystemPrompt,
	}}
}

func (a *GeneralAgent) Name() string { return a.name }

func (a *GeneralAgent) Process(ctx context.Context, query string, actx *Context) Response {
	if err := actx.Validate(); err != nil {
		return missingDepsResponse()
	}
	if a.llm == nil {
		return Fail(a.name, errLLMNotConfigured)
	}

	content, stats, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(a.systemPrompt),
		llm.UserMessage(query),
	})
	if err != nil {
		return Fail(a.name, err)
	}
	if stats != nil {
		actx.Deps.Metrics.RecordLLMCall(a.name, stats.PromptTokens, stats.CompletionTokens, time.Duration(stats.DurationMs)*time.Millisecond)
	}

	return Succeed(map[string]any{"answer": content})
}
