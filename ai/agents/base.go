package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/metrics"
)

// maxRounds bounds LLM/tool rounds per invocation so a confused model
// cannot loop forever. Exhaustion surfaces as a failed response.
const maxRounds = 15

// base carries what every concrete agent shares: a name, the LLM handle,
// and the agent's system prompt. Concrete agents embed it and implement
// Process on top of runLoop.
type base struct {
	name         string
	llm          llm.Service
	systemPrompt string
}

// errBudgetExhausted reports that the loop hit maxRounds without a final
// answer.
var errBudgetExhausted = fmt.Errorf("request budget exhausted after %d rounds", maxRounds)

var errLLMNotConfigured = fmt.Errorf("llm not configured")

// runLoop drives the LLM with the registered tools until it replies with
// content instead of a tool call, and returns that content. Tool results
// are fed back as user messages so the next round can reason over them.
func (b *base) runLoop(ctx context.Context, query string, tools []ToolWithSchema, exporter *metrics.Exporter) (string, error) {
	if b.llm == nil {
		return "", errLLMNotConfigured
	}

	descriptors := make([]llm.ToolDescriptor, len(tools))
	byName := make(map[string]ToolWithSchema, len(tools))
	for i, tool := range tools {
		params, err := json.Marshal(tool.Parameters())
		if err != nil {
			return "", fmt.Errorf("marshal parameters for tool %s: %w", tool.Name(), err)
		}
		descriptors[i] = llm.ToolDescriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  string(params),
		}
		byName[tool.Name()] = tool
	}

	messages := []llm.Message{
		llm.SystemPrompt(b.systemPrompt),
		llm.UserMessage(query),
	}

	for round := 0; round < maxRounds; round++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		var (
			content   string
			toolCalls []llm.ToolCall
			stats     *llm.CallStats
			err       error
		)
		if len(descriptors) == 0 {
			content, stats, err = b.llm.ChatJSON(ctx, messages)
		} else {
			var response *llm.ChatResponse
			response, stats, err = b.llm.ChatWithTools(ctx, messages, descriptors)
			if err == nil {
				content, toolCalls = response.Content, response.ToolCalls
			}
		}
		if err != nil {
			return "", err
		}
		if stats != nil {
			exporter.RecordLLMCall(b.name, stats.PromptTokens, stats.CompletionTokens, time.Duration(stats.DurationMs)*time.Millisecond)
		}

		if len(toolCalls) == 0 {
			slog.Debug("agent loop finished",
				"agent", b.name,
				"rounds", round+1,
				"content_length", len(content),
			)
			return content, nil
		}

		if content != "" {
			messages = append(messages, llm.AssistantMessage(content))
		}

		for _, call := range toolCalls {
			result := b.invokeTool(ctx, byName, call, exporter)
			messages = append(messages, llm.UserMessage(fmt.Sprintf("[Result from %s]: %s", call.Function.Name, result)))
		}
	}

	return "", errBudgetExhausted
}

func (b *base) invokeTool(ctx context.Context, byName map[string]ToolWithSchema, call llm.ToolCall, exporter *metrics.Exporter) string {
	name := call.Function.Name
	tool, ok := byName[name]
	if !ok {
		slog.Warn("agent requested unknown tool", "agent", b.name, "tool", name)
		return fmt.Sprintf(`{"error": "unknown tool %s"}`, name)
	}

	started := time.Now()
	result, err := tool.Run(ctx, call.Function.Arguments)
	exporter.RecordToolCall(name, time.Since(started), err == nil)
	if err != nil {
		slog.Warn("tool call failed",
			"agent", b.name,
			"tool", name,
			"error", err,
		)
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}

	slog.Debug("tool call completed",
		"agent", b.name,
		"tool", name,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result
}

// decodeOutput parses the loop's final content into the agent's typed
// output, tolerating a markdown fence around the JSON object.
func decodeOutput(content string, out any) error {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return fmt.Errorf("malformed structured output: %w", err)
	}
	return nil
}

// toJSON marshals a tool result; marshal failures become an error payload
// rather than a loop abort.
func toJSON(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(raw)
}
