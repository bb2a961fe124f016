package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm/llmtest"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/vector"
)

// stubRetriever serves a fixed chunk set without an embedding service.
type stubRetriever struct {
	chunks    []vector.SearchResult
	retrieved int
}

func (r *stubRetriever) EnsureReady(context.Context) error { return nil }

func (r *stubRetriever) Retrieve(_ context.Context, _ string, k int) ([]vector.SearchResult, error) {
	r.retrieved++
	if k > len(r.chunks) {
		k = len(r.chunks)
	}
	return r.chunks[:k], nil
}

func (r *stubRetriever) Count(context.Context) int { return len(r.chunks) }

func TestPolicyAgent_AnswersFromRetrievedSections(t *testing.T) {
	deps := newTestDeps(t)

	retriever := &stubRetriever{chunks: []vector.SearchResult{
		{Chunk: vector.Chunk{PolicyID: 1, PolicyType: "returns", Text: "returns: 30 day window.\nUnopened items only."}, Score: 0.91},
		{Chunk: vector.Chunk{PolicyID: 2, PolicyType: "shipping", Text: "shipping: 5 business days."}, Score: 0.42},
	}}

	script := llmtest.NewScript(
		llmtest.ToolCallStep("retrieve_policy_sections", `{"query": "return policy", "k": 3}`),
		llmtest.Step{Content: `{"answer": "You can return unopened items within 30 days.", "sources": ["returns"], "confidence": "high"}`},
	)
	agent := NewPolicyAgent(script, retriever)

	response := agent.Process(context.Background(), "what is the return policy?", &Context{Deps: deps})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, "You can return unopened items within 30 days.", response.Data["answer"])
	assert.Equal(t, []string{"returns"}, response.Data["sources"])
	assert.Equal(t, "high", response.Data["confidence"])
	assert.Equal(t, 1, retriever.retrieved)
}

func TestPolicyAgent_EmptyIndexShortCircuits(t *testing.T) {
	deps := newTestDeps(t)

	script := llmtest.NewScript() // must never be consulted
	agent := NewPolicyAgent(script, &stubRetriever{})

	response := agent.Process(context.Background(), "what is the return policy?", &Context{Deps: deps})
	require.True(t, response.Success, response.Error)
	assert.Contains(t, response.Data["answer"], "No store policies")
	assert.Equal(t, []string{}, response.Data["sources"])
	assert.Equal(t, 0, script.Calls())
}

func TestPolicyAgent_InvalidConfidenceNormalized(t *testing.T) {
	deps := newTestDeps(t)

	retriever := &stubRetriever{chunks: []vector.SearchResult{
		{Chunk: vector.Chunk{PolicyID: 1, PolicyType: "warranty", Text: "warranty: 1 year."}, Score: 0.8},
	}}
	script := llmtest.NewScript(llmtest.Step{
		Content: `{"answer": "One year warranty.", "sources": ["warranty"], "confidence": "certain"}`,
	})
	agent := NewPolicyAgent(script, retriever)

	response := agent.Process(context.Background(), "warranty?", &Context{Deps: deps})
	require.True(t, response.Success, response.Error)
	assert.Equal(t, "low", response.Data["confidence"])
}

func TestPolicyAgent_MissingRetrieverFails(t *testing.T) {
	deps := newTestDeps(t)

	agent := NewPolicyAgent(llmtest.NewScript(), nil)
	response := agent.Process(context.Background(), "returns?", &Context{Deps: deps})
	assert.False(t, response.Success)
	assert.Contains(t, response.Error, "policy error:")
}
