package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/cache"
	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/llm"
)

const priceSystemPrompt = `You compare prices for products across shopping sources.
First resolve the product with search_products_by_name, then call get_competitor_prices with its product_id.
Respond with a single JSON object:
{"product_id": "...", "product_name": "...",
 "comparison": [{"source": "...", "price": 0.0}],
 "best_deal": {"source": "...", "price": 0.0},
 "savings_pct": 0.0, "summary": "one or two sentences"}
Name exactly one best_deal: the lowest price. Use only prices returned by the tools.`

// priceCacheTTL keeps quotes stable for an hour per product.
const priceCacheTTL = time.Hour

// PriceAgent compares a product's price across the simulated competitor
// sources. Quotes are deterministic and cached per product id.
type PriceAgent struct {
	base
	cache cache.Cache
}

// NewPriceAgent creates the price comparison agent.
func NewPriceAgent(service llm.Service) *PriceAgent {
	return &PriceAgent{
		base: base{
			name:         "price",
			llm:          service,
			systemPrompt: priceSystemPrompt,
		},
		cache: cache.For(cache.NamespacePrice),
	}
}

func (a *PriceAgent) Name() string { return a.name }

func (a *PriceAgent) Process(ctx context.Context, query string, actx *Context) Response {
	if err := actx.Validate(); err != nil {
		return missingDepsResponse()
	}
	deps := actx.Deps

	// servedFromCache records whether any quote this turn came from the
	// price cache; the marker surfaces in the response metadata.
	servedFromCache := false

	quoteTool := NewNativeTool(
		"get_competitor_prices",
		"Get the current price of a product across all shopping sources.",
		objectSchema(map[string]any{
			"product_id": stringParam("Catalog product id"),
		}, []string{"product_id"}),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				ProductID string `json:"product_id"`
			}
			if err := json.Unmarshal([]byte(input), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}

			quote, cached, err := a.quoteFor(ctx, deps, args.ProductID)
			if err != nil {
				return "", err
			}
			if cached {
				servedFromCache = true
			}
			return toJSON(quote), nil
		},
	)

	tools := []ToolWithSchema{
		searchProductsByNameTool(deps),
		quoteTool,
	}

	content, err := a.runLoop(ctx, query, tools, deps.Metrics)
	if err != nil {
		return Fail(a.name, err)
	}

	var data map[string]any
	if err := decodeOutput(content, &data); err != nil {
		return Fail(a.name, err)
	}

	response := Succeed(data)
	response.SetMeta("cached", servedFromCache)
	return response
}

// quoteFor returns the quote for a product, serving from cache when a fresh
// entry exists. The bool reports a cache hit.
func (a *PriceAgent) quoteFor(ctx context.Context, deps *Dependencies, productID string) (*PriceQuote, bool, error) {
	if raw, ok := a.cache.Get(ctx, productID); ok {
		var quote PriceQuote
		if err := json.Unmarshal(raw, &quote); err == nil {
			deps.Metrics.RecordCacheHit(cache.NamespacePrice)
			return &quote, true, nil
		}
	}
	deps.Metrics.RecordCacheMiss(cache.NamespacePrice)

	product, err := deps.Store.GetProduct(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if product == nil {
		return nil, false, fmt.Errorf("product %s not found", productID)
	}

	quote := computeQuote(product.ID, product.Name, product.Price)
	if raw, err := json.Marshal(quote); err == nil {
		a.cache.Set(ctx, productID, raw, priceCacheTTL)
	}
	return quote, false, nil
}
