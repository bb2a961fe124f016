package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/vector"
)

const policySystemPrompt = `You answer questions about store policies (returns, shipping, warranty, payment).
Call retrieve_policy_sections to fetch the relevant policy text, then answer strictly from the retrieved sections.
If the sections do not cover the question, say the store has no policy on it. Never invent policy terms.
Respond with a single JSON object:
{"answer": "...", "sources": ["policy_type", ...], "confidence": "high" | "medium" | "low"}
List in sources the policy_type of every section you used.`

// defaultPolicyK is how many sections one retrieval returns.
const defaultPolicyK = 3

// PolicyAgent answers policy questions through retrieval-augmented
// generation over the policy vector index. The retriever handle is
// long-lived and shared across turns.
type PolicyAgent struct {
	base
	retriever vector.Retriever
}

// NewPolicyAgent creates the policy agent over a ready-to-build retriever.
func NewPolicyAgent(service llm.Service, retriever vector.Retriever) *PolicyAgent {
	return &PolicyAgent{
		base: base{
			name:         "policy",
			llm:          service,
			systemPrompt: policySystemPrompt,
		},
		retriever: retriever,
	}
}

func (a *PolicyAgent) Name() string { return a.name }

type policyOutput struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence string   `json:"confidence"`
}

func (a *PolicyAgent) Process(ctx context.Context, query string, actx *Context) Response {
	if err := actx.Validate(); err != nil {
		return missingDepsResponse()
	}
	if a.retriever == nil {
		return Fail(a.name, fmt.Errorf("policy retriever not configured"))
	}

	// An empty index cannot answer anything; skip the LLM and say so.
	if err := a.retriever.EnsureReady(ctx); err != nil {
		return Fail(a.name, err)
	}
	if a.retriever.Count(ctx) == 0 {
		return Succeed(map[string]any{
			"answer":     "No store policies are available right now, so I can't answer that. Please contact customer support.",
			"sources":    []string{},
			"confidence": "low",
		})
	}

	retrieveTool := NewNativeTool(
		"retrieve_policy_sections",
		"Retrieve the store policy sections most relevant to a question.",
		objectSchema(map[string]any{
			"query": stringParam("The policy question to search for"),
			"k":     integerParam("How many sections to retrieve (default 3)"),
		}, []string{"query"}),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				Query string `json:"query"`
				K     int    `json:"k"`
			}
			if err := json.Unmarshal([]byte(input), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if args.K <= 0 {
				args.K = defaultPolicyK
			}

			results, err := a.retriever.Retrieve(ctx, args.Query, args.K)
			if err != nil {
				return "", err
			}

			sections := make([]map[string]any, 0, len(results))
			for _, result := range results {
				sections = append(sections, map[string]any{
					"policy_type": result.Chunk.PolicyType,
					"text":        result.Chunk.Text,
					"score":       result.Score,
				})
			}
			return toJSON(map[string]any{"sections": sections}), nil
		},
	)

	content, err := a.runLoop(ctx, query, []ToolWithSchema{retrieveTool}, actx.Deps.Metrics)
	if err != nil {
		return Fail(a.name, err)
	}

	var output policyOutput
	if err := decodeOutput(content, &output); err != nil {
		return Fail(a.name, err)
	}
	if output.Sources == nil {
		output.Sources = []string{}
	}
	switch output.Confidence {
	case "high", "medium", "low":
	default:
		output.Confidence = "low"
	}

	return Succeed(map[string]any{
		"answer":     output.Answer,
		"sources":    output.Sources,
		"confidence": output.Confidence,
	})
}
