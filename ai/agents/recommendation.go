package agents

import (
	"context"
	"fmt"
	"sort"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
)

const recommendationSystemPrompt = `You are a product recommendation expert for an online store.
Use the tools to search the catalog before answering. Never invent products.
When you have enough information, respond with a single JSON object:
{"recommendations": [{"product_id": "...", "name": "...", "price": 0, "relevance_score": 0.0-1.0, "reason": "..."}],
 "total_found": 0, "search_summary": "one sentence about how you searched"}
Recommend only products returned by the tools. If nothing matches, return an empty recommendations array.`

const compareModeInstruction = `

The user wants the named products compared side by side. Cover exactly the products the user mentioned, and make each reason a direct comparison against the others.`

// RecommendationAgent suggests catalog products matching the user's
// constraints. Output items are re-hydrated from the catalog so the reply
// never carries hallucinated ids or stale prices.
type RecommendationAgent struct {
	base
}

// NewRecommendationAgent creates the recommendation agent.
func NewRecommendationAgent(service llm.Service) *RecommendationAgent {
	return &RecommendationAgent{base: base{
		name:         "recommendation",
		llm:          service,
		systemPrompt: recommendationSystemPrompt,
	}}
}

func (a *RecommendationAgent) Name() string { return a.name }

type recommendationItem struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	RelevanceScore float64 `json:"relevance_score"`
	Reason         string  `json:"reason"`
}

type recommendationOutput struct {
	Recommendations []recommendationItem `json:"recommendations"`
	TotalFound      int                  `json:"total_found"`
	SearchSummary   string               `json:"search_summary"`
}

func (a *RecommendationAgent) Process(ctx context.Context, query string, actx *Context) Response {
	if err := actx.Validate(); err != nil {
		return missingDepsResponse()
	}
	deps := actx.Deps

	loop := a.base
	if actx.CompareMode {
		loop.systemPrompt += compareModeInstruction
	}
	if hints := formatHints(actx); hints != "" {
		query += hints
	}

	tools := []ToolWithSchema{
		searchProductsByFiltersTool(deps, actx.MaxResults),
		getProductDetailsTool(deps),
		getCategoriesTool(deps),
	}

	content, err := loop.runLoop(ctx, query, tools, deps.Metrics)
	if err != nil {
		return Fail(a.name, err)
	}

	var output recommendationOutput
	if err := decodeOutput(content, &output); err != nil {
		return Fail(a.name, err)
	}

	hydrated := a.rehydrate(ctx, actx, output.Recommendations)

	response := Succeed(map[string]any{
		"recommendations": hydrated,
		"total_found":     len(hydrated),
		"search_summary":  output.SearchSummary,
	})
	if actx.CompareMode {
		response.SetMeta("compare_mode", true)
	}
	return response
}

// rehydrate replaces every recommended item with its catalog record,
// dropping ids the model invented, clamping relevance into [0,1], and
// re-sorting by relevance descending.
func (a *RecommendationAgent) rehydrate(ctx context.Context, actx *Context, items []recommendationItem) []map[string]any {
	hydrated := make([]map[string]any, 0, len(items))
	for _, item := range items {
		product, err := actx.Deps.Store.GetProduct(ctx, item.ProductID)
		if err != nil || product == nil {
			continue
		}
		score := item.RelevanceScore
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		hydrated = append(hydrated, map[string]any{
			"product_id":      product.ID,
			"name":            product.Name,
			"price":           product.Price,
			"brand":           product.Brand,
			"category":        product.Category,
			"rating":          product.Rating,
			"relevance_score": score,
			"reason":          item.Reason,
		})
	}

	sort.SliceStable(hydrated, func(i, j int) bool {
		return hydrated[i]["relevance_score"].(float64) > hydrated[j]["relevance_score"].(float64)
	})

	if max := actx.MaxResults; max > 0 && len(hydrated) > max {
		hydrated = hydrated[:max]
	}
	return hydrated
}

// formatHints appends the classifier's structured entities to the query so
// the model does not need to re-extract them.
func formatHints(actx *Context) string {
	if actx == nil || len(actx.StructuredHints) == 0 {
		return ""
	}
	hints := "\n\n[Structured hints]"
	for _, key := range []string{"category", "max_price", "min_price", "product_name"} {
		if value := actx.StructuredHints[key]; value != nil {
			hints += fmt.Sprintf(" %s=%v", key, value)
		}
	}
	if hints == "\n\n[Structured hints]" {
		return ""
	}
	return hints
}
