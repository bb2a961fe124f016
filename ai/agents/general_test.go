package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm/llmtest"
)

func TestGeneralAgent_SingleTurnAnswer(t *testing.T) {
	deps := newTestDeps(t)

	script := llmtest.NewScript(llmtest.Step{
		Content: "Hi! I can help you find products, compare prices, or check reviews.",
	})
	agent := NewGeneralAgent(script)

	response := agent.Process(context.Background(), "hello there", &Context{Deps: deps})
	require.True(t, response.Success, response.Error)
	assert.Contains(t, response.Data["answer"], "help you find products")
	assert.Equal(t, 1, script.Calls())
}

func TestGeneralAgent_LLMErrorBecomesFailure(t *testing.T) {
	deps := newTestDeps(t)

	agent := NewGeneralAgent(llmtest.NewScript(llmtest.Step{Err: errors.New("rate limited")}))
	response := agent.Process(context.Background(), "hello", &Context{Deps: deps})
	assert.False(t, response.Success)
	assert.Contains(t, response.Error, "general error:")
	assert.Empty(t, response.Data)
}
