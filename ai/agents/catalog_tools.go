package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/internal/strutil"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

// Review sample caps: enough signal for a summary without flooding the
// context window.
const (
	maxPositiveSamples = 10
	maxNegativeSamples = 10
	maxNeutralSamples  = 5
	maxSampleRunes     = 200
)

// searchProductsByFiltersTool exposes catalog filtering to the LLM.
func searchProductsByFiltersTool(deps *Dependencies, maxResults int) ToolWithSchema {
	return NewNativeTool(
		"search_products_by_filters",
		"Search the product catalog. All filters are optional; omit a filter to leave it open.",
		objectSchema(map[string]any{
			"category":      stringParam("Product category, e.g. Electronics"),
			"brand":         stringParam("Brand name"),
			"max_price":     numberParam("Upper price bound in USD"),
			"min_price":     numberParam("Lower price bound in USD"),
			"min_rating":    numberParam("Minimum average rating, 0-5"),
			"in_stock_only": booleanParam("Only include products currently in stock"),
		}, nil),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				Category    string   `json:"category"`
				Brand       string   `json:"brand"`
				MaxPrice    *float64 `json:"max_price"`
				MinPrice    *float64 `json:"min_price"`
				MinRating   *float64 `json:"min_rating"`
				InStockOnly bool     `json:"in_stock_only"`
			}
			if err := json.Unmarshal([]byte(input), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}

			find := &store.FindProduct{
				MaxPrice:    args.MaxPrice,
				MinPrice:    args.MinPrice,
				MinRating:   args.MinRating,
				InStockOnly: args.InStockOnly,
			}
			if args.Category != "" {
				find.Category = &args.Category
			}
			if args.Brand != "" {
				find.Brand = &args.Brand
			}
			limit := maxResults
			if limit <= 0 {
				limit = 5
			}
			// Give the model a little slack beyond what the caller asked
			// for, so ranking has something to drop.
			limit *= 2
			find.Limit = &limit

			products, err := deps.Store.ListProducts(ctx, find)
			if err != nil {
				return "", err
			}
			return toJSON(map[string]any{"products": productSummaries(products), "count": len(products)}), nil
		},
	)
}

// searchProductsByNameTool resolves free-form product names.
func searchProductsByNameTool(deps *Dependencies) ToolWithSchema {
	return NewNativeTool(
		"search_products_by_name",
		"Find catalog products whose name contains the given text (case-insensitive).",
		objectSchema(map[string]any{
			"name": stringParam("Full or partial product name"),
		}, []string{"name"}),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal([]byte(input), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if strings.TrimSpace(args.Name) == "" {
				return "", fmt.Errorf("name is required")
			}

			limit := 5
			products, err := deps.Store.ListProducts(ctx, &store.FindProduct{NameLike: &args.Name, Limit: &limit})
			if err != nil {
				return "", err
			}
			return toJSON(map[string]any{"products": productSummaries(products), "count": len(products)}), nil
		},
	)
}

// getProductDetailsTool returns the full record for one product id.
func getProductDetailsTool(deps *Dependencies) ToolWithSchema {
	return NewNativeTool(
		"get_product_details",
		"Get the full catalog record for a product id.",
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

			product, err := deps.Store.GetProduct(ctx, args.ProductID)
			if err != nil {
				return "", err
			}
			if product == nil {
				return toJSON(map[string]any{"found": false}), nil
			}
			return toJSON(map[string]any{"found": true, "product": product}), nil
		},
	)
}

// getCategoriesTool lists the catalog's category names.
func getCategoriesTool(deps *Dependencies) ToolWithSchema {
	return NewNativeTool(
		"get_categories",
		"List every product category in the catalog.",
		nil,
		func(ctx context.Context, _ string) (string, error) {
			categories, err := deps.Store.ListCategories(ctx)
			if err != nil {
				return "", err
			}
			return toJSON(map[string]any{"categories": categories}), nil
		},
	)
}

// findProductTool fuzzily resolves a product reference to its id.
func findProductTool(deps *Dependencies) ToolWithSchema {
	return NewNativeTool(
		"find_product",
		"Resolve a product mentioned by the user to its catalog id. Returns the closest name matches.",
		objectSchema(map[string]any{
			"name": stringParam("Product name as the user said it"),
		}, []string{"name"}),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal([]byte(input), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}

			product, err := resolveProduct(ctx, deps.Store, args.Name)
			if err != nil {
				return "", err
			}
			if product == nil {
				return toJSON(map[string]any{"found": false}), nil
			}
			return toJSON(map[string]any{
				"found":      true,
				"product_id": product.ID,
				"name":       product.Name,
				"price":      product.Price,
			}), nil
		},
	)
}

// getReviewStatsTool returns the single-query review aggregate.
func getReviewStatsTool(deps *Dependencies) ToolWithSchema {
	return NewNativeTool(
		"get_review_stats",
		"Get review counts, sentiment split and average rating for a product id.",
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

			stats, err := deps.Store.GetReviewStats(ctx, args.ProductID)
			if err != nil {
				return "", err
			}
			return toJSON(stats), nil
		},
	)
}

// getReviewSamplesTool fetches capped, truncated review text per sentiment.
func getReviewSamplesTool(deps *Dependencies) ToolWithSchema {
	return NewNativeTool(
		"get_review_samples",
		"Get sample review texts for a product, split by sentiment.",
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

			samples := map[string][]string{}
			for sentiment, sampleCap := range map[string]int{
				store.SentimentPositive: maxPositiveSamples,
				store.SentimentNegative: maxNegativeSamples,
				store.SentimentNeutral:  maxNeutralSamples,
			} {
				sentiment := sentiment
				limit := sampleCap
				reviews, err := deps.Store.ListReviews(ctx, &store.FindReview{
					ProductID: &args.ProductID,
					Sentiment: &sentiment,
					Limit:     &limit,
				})
				if err != nil {
					return "", err
				}
				texts := make([]string, 0, len(reviews))
				for _, review := range reviews {
					texts = append(texts, strutil.Truncate(review.Text, maxSampleRunes))
				}
				samples[sentiment] = texts
			}
			return toJSON(samples), nil
		},
	)
}

// resolveProduct implements the fuzzy name match shared by find_product and
// the review cache probe: substring lookup first, then token overlap.
func resolveProduct(ctx context.Context, catalog *store.Store, name string) (*store.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	limit := 1
	matches, err := catalog.ListProducts(ctx, &store.FindProduct{NameLike: &name, Limit: &limit})
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return matches[0], nil
	}

	// Fall back to scoring every product by how many of its name tokens
	// appear in the reference. Catalogs are small enough for a scan.
	all, err := catalog.ListProducts(ctx, &store.FindProduct{})
	if err != nil {
		return nil, err
	}
	reference := strings.ToLower(name)
	var best *store.Product
	bestScore := 0
	for _, product := range all {
		score := 0
		for _, token := range strings.Fields(strings.ToLower(product.Name)) {
			if strings.Contains(reference, token) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = product, score
		}
	}
	return best, nil
}

func productSummaries(products []*store.Product) []map[string]any {
	summaries := make([]map[string]any, 0, len(products))
	for _, p := range products {
		summaries = append(summaries, map[string]any{
			"product_id": p.ID,
			"name":       p.Name,
			"price":      p.Price,
			"brand":      p.Brand,
			"category":   p.Category,
			"rating":     p.Rating,
			"in_stock":   p.Stock > 0,
		})
	}
	return summaries
}
