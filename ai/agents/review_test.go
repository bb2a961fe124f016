package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm/llmtest"
)

const reviewOutput = `{
	"product_id": "P001", "product_name": "Nova X5 Smartphone",
	"summary": "Reviewers love the screen; low-light camera draws complaints.",
	"positive_highlights": ["Fantastic screen", "Great value"],
	"negative_highlights": ["Weak low-light camera"],
	"total_reviews": 3, "average_rating": 3.7
}`

func TestReviewAgent_SummarizesThroughTools(t *testing.T) {
	deps := newTestDeps(t)
	seedCatalog(t, deps.Store)

	script := llmtest.NewScript(
		llmtest.ToolCallStep("find_product", `{"name": "Obscure Gadget 9000"}`),
		llmtest.ToolCallStep("get_review_stats", `{"product_id": "P001"}`),
		llmtest.ToolCallStep("get_review_samples", `{"product_id": "P001"}`),
		llmtest.Step{Content: reviewOutput},
	)
	agent := NewReviewAgent(script)

	response := agent.Process(context.Background(), "what do people think of the Obscure Gadget 9000?", &Context{Deps: deps})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, "P001", response.Data["product_id"])
	assert.Equal(t, false, response.Metadata["cached"])
	assert.Equal(t, 4, script.Calls())
}

func TestReviewAgent_CacheHitShortCircuitsLLM(t *testing.T) {
	deps := newTestDeps(t)
	seedCatalog(t, deps.Store)

	first := llmtest.NewScript(
		llmtest.ToolCallStep("get_review_stats", `{"product_id": "P001"}`),
		llmtest.Step{Content: reviewOutput},
	)
	agent := NewReviewAgent(first)

	// First turn populates the cache under the resolved product id.
	response := agent.Process(context.Background(), "reviews for the Nova X5 Smartphone", &Context{Deps: deps})
	require.True(t, response.Success, response.Error)
	require.Equal(t, false, response.Metadata["cached"])

	// Second turn resolves the same product and must not touch the LLM.
	second := llmtest.NewScript()
	agent.llm = second

	cachedResponse := agent.Process(context.Background(), "reviews for the Nova X5 Smartphone", &Context{Deps: deps})
	require.True(t, cachedResponse.Success, cachedResponse.Error)
	assert.Equal(t, true, cachedResponse.Metadata["cached"])
	assert.Equal(t, "P001", cachedResponse.Data["product_id"])
	assert.Equal(t, 0, second.Calls())
}

func TestReviewAgent_ExplicitProductIDCache(t *testing.T) {
	deps := newTestDeps(t)
	seedCatalog(t, deps.Store)

	agent := NewReviewAgent(llmtest.NewScript(llmtest.Step{Content: reviewOutput}))

	response := agent.Process(context.Background(), "summarize the reviews", &Context{Deps: deps, ProductID: "P001"})
	require.True(t, response.Success, response.Error)

	cached := agent.Process(context.Background(), "summarize the reviews", &Context{Deps: deps, ProductID: "P001"})
	require.True(t, cached.Success, cached.Error)
	assert.Equal(t, true, cached.Metadata["cached"])
}

func TestReviewAgent_NoReviewsIsSuccess(t *testing.T) {
	deps := newTestDeps(t)
	seedCatalog(t, deps.Store)

	script := llmtest.NewScript(
		llmtest.ToolCallStep("get_review_stats", `{"product_id": "P003"}`),
		llmtest.Step{Content: `{"product_id": "P003", "product_name": "AquaBrew Kettle", "summary": "No reviews yet for this product.", "positive_highlights": [], "negative_highlights": [], "total_reviews": 0, "average_rating": 0}`},
	)
	agent := NewReviewAgent(script)

	response := agent.Process(context.Background(), "reviews for the AquaBrew Kettle", &Context{Deps: deps})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, float64(0), response.Data["total_reviews"])
}
