package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/profile"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store/db"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:               "demo",
		Driver:             "sqlite",
		DSN:                filepath.Join(t.TempDir(), "smartshop_test.db"),
		EmbeddingDimension: 1536,
	}

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func seedProducts(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	products := []*store.Product{
		{ID: "prod_001", Name: "Wireless Headphones", Description: "Over-ear, noise cancelling", Price: 199.99, Brand: "SoundMax", Category: "Electronics", Stock: 12, Rating: 4.6},
		{ID: "prod_002", Name: "USB-C Charger", Description: "65W fast charger", Price: 29.99, Brand: "VoltPro", Category: "Electronics", Stock: 0, Rating: 4.1},
		{ID: "prod_003", Name: "Trail Running Shoes", Description: "Lightweight with grip sole", Price: 89.99, Brand: "TrailFlex", Category: "Sports", Stock: 7, Rating: 4.8},
	}
	for _, product := range products {
		_, err := s.CreateProduct(ctx, product)
		require.NoError(t, err)
	}
}

func TestProductFilters(t *testing.T) {
	s := newTestStore(t)
	seedProducts(t, s)
	ctx := context.Background()

	t.Run("get by id", func(t *testing.T) {
		product, err := s.GetProduct(ctx, "prod_001")
		require.NoError(t, err)
		require.NotNil(t, product)
		assert.Equal(t, "Wireless Headphones", product.Name)
		assert.NotZero(t, product.CreatedTs)
	})

	t.Run("missing id returns nil", func(t *testing.T) {
		product, err := s.GetProduct(ctx, "prod_999")
		require.NoError(t, err)
		assert.Nil(t, product)
	})

	t.Run("name substring is case-insensitive", func(t *testing.T) {
		name := "headPHONES"
		list, err := s.ListProducts(ctx, &store.FindProduct{NameLike: &name})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "prod_001", list[0].ID)
	})

	t.Run("category is case-insensitive", func(t *testing.T) {
		category := "electronics"
		list, err := s.ListProducts(ctx, &store.FindProduct{Category: &category})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("max price", func(t *testing.T) {
		maxPrice := 100.0
		list, err := s.ListProducts(ctx, &store.FindProduct{MaxPrice: &maxPrice})
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, product := range list {
			assert.LessOrEqual(t, product.Price, maxPrice)
		}
	})

	t.Run("min rating", func(t *testing.T) {
		minRating := 4.5
		list, err := s.ListProducts(ctx, &store.FindProduct{MinRating: &minRating})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("in stock only", func(t *testing.T) {
		list, err := s.ListProducts(ctx, &store.FindProduct{InStockOnly: true})
		require.NoError(t, err)
		for _, product := range list {
			assert.Greater(t, product.Stock, int32(0))
		}
		assert.Len(t, list, 2)
	})

	t.Run("ordered by rating desc with limit", func(t *testing.T) {
		limit := 2
		list, err := s.ListProducts(ctx, &store.FindProduct{Limit: &limit})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "prod_003", list[0].ID)
		assert.Equal(t, "prod_001", list[1].ID)
	})
}

func TestListCategories(t *testing.T) {
	s := newTestStore(t)
	seedProducts(t, s)

	categories, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Sports"}, categories)
}

func TestReviewStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	reviews := []*store.Review{
		{ProductID: "prod_001", Rating: 5, Text: "Fantastic sound", Date: "2024-03-01", Sentiment: store.SentimentPositive},
		{ProductID: "prod_001", Rating: 4, Text: "Comfortable fit", Date: "2024-03-03", Sentiment: store.SentimentPositive},
		{ProductID: "prod_001", Rating: 2, Text: "Battery died fast", Date: "2024-03-05", Sentiment: store.SentimentNegative},
		{ProductID: "prod_001", Rating: 3, Text: "Does the job", Date: "2024-03-07", Sentiment: store.SentimentNeutral},
		{ProductID: "prod_002", Rating: 5, Text: "Charges quickly", Date: "2024-03-02", Sentiment: store.SentimentPositive},
	}
	for _, review := range reviews {
		created, err := s.CreateReview(ctx, review)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
	}

	t.Run("aggregates one product", func(t *testing.T) {
		stats, err := s.GetReviewStats(ctx, "prod_001")
		require.NoError(t, err)
		assert.Equal(t, int32(4), stats.TotalReviews)
		assert.InDelta(t, 3.5, stats.AverageRating, 0.001)
		assert.Equal(t, int32(2), stats.PositiveCount)
		assert.Equal(t, int32(1), stats.NegativeCount)
		assert.Equal(t, int32(1), stats.NeutralCount)
	})

	t.Run("no reviews yields zero stats", func(t *testing.T) {
		stats, err := s.GetReviewStats(ctx, "prod_999")
		require.NoError(t, err)
		assert.Equal(t, int32(0), stats.TotalReviews)
		assert.Zero(t, stats.AverageRating)
	})

	t.Run("filter by sentiment with limit", func(t *testing.T) {
		sentiment := store.SentimentPositive
		limit := 1
		list, err := s.ListReviews(ctx, &store.FindReview{ProductID: &reviews[0].ProductID, Sentiment: &sentiment, Limit: &limit})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, store.SentimentPositive, list[0].Sentiment)
	})
}

func TestPolicyStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	policies := []*store.Policy{
		{PolicyType: "return", Description: "30-day returns on unopened items", Conditions: "Original packaging required", Timeframe: "30 days"},
		{PolicyType: "shipping", Description: "Free shipping over $50", Conditions: "Domestic orders only", Timeframe: "3-5 business days"},
		{PolicyType: "warranty", Description: "1-year limited warranty", Conditions: "Manufacturing defects only", Timeframe: "1 year"},
	}
	for _, policy := range policies {
		created, err := s.CreatePolicy(ctx, policy)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
	}

	t.Run("count", func(t *testing.T) {
		count, err := s.CountPolicies(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("filter by type is case-insensitive", func(t *testing.T) {
		policyType := "RETURN"
		list, err := s.ListPolicies(ctx, &store.FindPolicy{PolicyType: &policyType})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "return", list[0].PolicyType)
	})

	t.Run("sqlite driver has no vector capability", func(t *testing.T) {
		_, ok := s.PolicyVectorStore()
		assert.False(t, ok)
	})
}
