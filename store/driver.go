package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Migrate(ctx context.Context) error

	// Product model related methods.
	CreateProduct(ctx context.Context, create *Product) (*Product, error)
	ListProducts(ctx context.Context, find *FindProduct) ([]*Product, error)
	ListCategories(ctx context.Context) ([]string, error)

	// Review model related methods.
	CreateReview(ctx context.Context, create *Review) (*Review, error)
	ListReviews(ctx context.Context, find *FindReview) ([]*Review, error)
	GetReviewStats(ctx context.Context, productID string) (*ReviewStats, error)

	// Policy model related methods.
	CreatePolicy(ctx context.Context, create *Policy) (*Policy, error)
	ListPolicies(ctx context.Context, find *FindPolicy) ([]*Policy, error)
	CountPolicies(ctx context.Context) (int, error)
}

// PolicyVectorStore is an optional driver capability: storing policy
// embeddings next to the rows and searching them by inner product.
// Only the postgres driver implements it (pgvector).
type PolicyVectorStore interface {
	UpsertPolicyEmbedding(ctx context.Context, policyID int32, embedding []float32) error
	SearchPoliciesByVector(ctx context.Context, embedding []float32, limit int) ([]*PolicyWithScore, error)
	CountPolicyEmbeddings(ctx context.Context) (int, error)
}
