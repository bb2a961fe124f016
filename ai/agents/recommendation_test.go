package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm/llmtest"
)

func TestRecommendationAgent_RehydratesAndSorts(t *testing.T) {
	deps := newTestDeps(t)
	seedCatalog(t, deps.Store)

	script := llmtest.NewScript(
		llmtest.ToolCallStep("search_products_by_filters", `{"category": "Electronics", "max_price": 500}`),
		llmtest.Step{Content: `{
			"recommendations": [
				{"product_id": "P002", "name": "WRONG NAME", "price": 1, "relevance_score": 0.7, "reason": "cheaper"},
				{"product_id": "P001", "name": "Nova X5 Smartphone", "price": 449.99, "relevance_score": 1.8, "reason": "best screen"},
				{"product_id": "GHOST", "name": "Invented Phone", "price": 99, "relevance_score": 0.9, "reason": "hallucinated"}
			],
			"total_found": 3,
			"search_summary": "searched electronics under $500"
		}`},
	)
	agent := NewRecommendationAgent(script)

	response := agent.Process(context.Background(), "budget smartphones under $500", &Context{Deps: deps, MaxResults: 5})
	require.True(t, response.Success, response.Error)

	recommendations := response.Data["recommendations"].([]map[string]any)
	require.Len(t, recommendations, 2, "hallucinated ids must be dropped")
	assert.Equal(t, 2, response.Data["total_found"])

	// Sorted by relevance descending, score clamped to 1, catalog values
	// restored over whatever the model wrote.
	assert.Equal(t, "P001", recommendations[0]["product_id"])
	assert.Equal(t, 1.0, recommendations[0]["relevance_score"])
	assert.Equal(t, "P002", recommendations[1]["product_id"])
	assert.Equal(t, "Pixelline 8 Lite", recommendations[1]["name"])
	assert.Equal(t, 399.99, recommendations[1]["price"])
}

func TestRecommendationAgent_EmptyCatalog(t *testing.T) {
	deps := newTestDeps(t)

	script := llmtest.NewScript(
		llmtest.ToolCallStep("search_products_by_filters", `{}`),
		llmtest.Step{Content: `{"recommendations": [], "total_found": 0, "search_summary": "nothing in catalog"}`},
	)
	agent := NewRecommendationAgent(script)

	response := agent.Process(context.Background(), "recommend me anything", &Context{Deps: deps, MaxResults: 5})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, 0, response.Data["total_found"])
}

func TestRecommendationAgent_CompareModeMetadata(t *testing.T) {
	deps := newTestDeps(t)
	seedCatalog(t, deps.Store)

	script := llmtest.NewScript(llmtest.Step{
		Content: `{"recommendations": [{"product_id": "P001", "relevance_score": 0.9, "reason": "better camera than the Pixelline"}], "total_found": 1, "search_summary": "compared the two phones"}`,
	})
	agent := NewRecommendationAgent(script)

	response := agent.Process(context.Background(), "compare the Nova X5 and the Pixelline 8", &Context{
		Deps:        deps,
		MaxResults:  5,
		CompareMode: true,
	})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, true, response.Metadata["compare_mode"])

	// The compare instruction reaches the model's system prompt.
	firstRequest := script.Requests[0]
	assert.Contains(t, firstRequest[0].Content, "side by side")
}

func TestRecommendationAgent_StructuredHintsReachQuery(t *testing.T) {
	deps := newTestDeps(t)
	seedCatalog(t, deps.Store)

	script := llmtest.NewScript(llmtest.Step{
		Content: `{"recommendations": [], "total_found": 0, "search_summary": "none"}`,
	})
	agent := NewRecommendationAgent(script)

	agent.Process(context.Background(), "cheap phones", &Context{
		Deps:       deps,
		MaxResults: 5,
		StructuredHints: map[string]any{
			"category":  "Electronics",
			"max_price": 500.0,
		},
	})

	firstRequest := script.Requests[0]
	userMessage := firstRequest[1].Content
	assert.Contains(t, userMessage, "category=Electronics")
	assert.Contains(t, userMessage, "max_price=500")
}

func TestRecommendationAgent_LLMErrorBecomesFailure(t *testing.T) {
	deps := newTestDeps(t)

	script := llmtest.NewScript() // exhausted immediately
	agent := NewRecommendationAgent(script)

	response := agent.Process(context.Background(), "anything", &Context{Deps: deps})
	assert.False(t, response.Success)
	assert.Contains(t, response.Error, "recommendation error:")
	assert.Empty(t, response.Data)
}
