package agents

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/cache"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
)

const reviewSystemPrompt = `You summarize customer reviews for an online store.
First resolve the product with find_product, then call get_review_stats, then get_review_samples.
Base the summary only on the fetched reviews. Respond with a single JSON object:
{"product_id": "...", "product_name": "...", "summary": "...",
 "positive_highlights": ["..."], "negative_highlights": ["..."],
 "total_reviews": 0, "average_rating": 0.0}
If the product has no reviews, say so in the summary and return total_reviews 0.`

// reviewCacheTTL is how long a summary stays valid. Reviews change slowly.
const reviewCacheTTL = time.Hour

// ReviewAgent summarizes review sentiment for one product. Summaries are
// cached per product id; a cache hit skips the LLM entirely.
type ReviewAgent struct {
	base
	cache cache.Cache
}

// NewReviewAgent creates the review summarization agent.
func NewReviewAgent(service llm.Service) *ReviewAgent {
	return &ReviewAgent{
		base: base{
			name:         "review",
			llm:          service,
			systemPrompt: reviewSystemPrompt,
		},
		cache: cache.For(cache.NamespaceReviewSummary),
	}
}

func (a *ReviewAgent) Name() string { return a.name }

func (a *ReviewAgent) Process(ctx context.Context, query string, actx *Context) Response {
	if err := actx.Validate(); err != nil {
		return missingDepsResponse()
	}
	deps := actx.Deps

	// A known product lets us serve straight from cache. When the turn
	// does not name one, try the fuzzy resolver before spending LLM calls.
	productID := actx.ProductID
	if productID == "" {
		if product, err := resolveProduct(ctx, deps.Store, query); err == nil && product != nil {
			productID = product.ID
		}
	}
	if productID != "" {
		if cached, ok := a.cache.Get(ctx, productID); ok {
			var data map[string]any
			if err := json.Unmarshal(cached, &data); err == nil {
				deps.Metrics.RecordCacheHit(cache.NamespaceReviewSummary)
				slog.Debug("review summary served from cache", "product_id", productID)
				response := Succeed(data)
				response.SetMeta("cached", true)
				return response
			}
		}
		deps.Metrics.RecordCacheMiss(cache.NamespaceReviewSummary)
	}

	tools := []ToolWithSchema{
		findProductTool(deps),
		getReviewStatsTool(deps),
		getReviewSamplesTool(deps),
	}

	content, err := a.runLoop(ctx, query, tools, deps.Metrics)
	if err != nil {
		return Fail(a.name, err)
	}

	var data map[string]any
	if err := decodeOutput(content, &data); err != nil {
		return Fail(a.name, err)
	}

	// Cache under the id the model actually resolved.
	if id, ok := data["product_id"].(string); ok && id != "" {
		if raw, err := json.Marshal(data); err == nil {
			a.cache.Set(ctx, id, raw, reviewCacheTTL)
		}
	}

	response := Succeed(data)
	response.SetMeta("cached", false)
	return response
}
