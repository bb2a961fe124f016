// Package store provides read access to the product catalog: products,
// their reviews, and the seller policies the assistant answers from.
package store

import (
	"context"

	"github.com/dharmendra-verma/smartshop-ai-sub000/internal/profile"
)

// Store provides database access to all catalog objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate creates the catalog schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// PolicyVectorStore returns the driver's pgvector capability, if it has one.
// Drivers that expose the capability conditionally report readiness through
// an optional VectorEnabled method.
func (s *Store) PolicyVectorStore() (PolicyVectorStore, bool) {
	pvs, ok := s.driver.(PolicyVectorStore)
	if !ok {
		return nil, false
	}
	if probe, ok := s.driver.(interface{ VectorEnabled() bool }); ok && !probe.VectorEnabled() {
		return nil, false
	}
	return pvs, true
}

func (s *Store) CreateProduct(ctx context.Context, create *Product) (*Product, error) {
	return s.driver.CreateProduct(ctx, create)
}

// GetProduct returns the product with the given id, or nil when absent.
func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	list, err := s.driver.ListProducts(ctx, &FindProduct{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListProducts(ctx context.Context, find *FindProduct) ([]*Product, error) {
	return s.driver.ListProducts(ctx, find)
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	return s.driver.ListCategories(ctx)
}

func (s *Store) CreateReview(ctx context.Context, create *Review) (*Review, error) {
	return s.driver.CreateReview(ctx, create)
}

func (s *Store) ListReviews(ctx context.Context, find *FindReview) ([]*Review, error) {
	return s.driver.ListReviews(ctx, find)
}

// GetReviewStats aggregates review counts and the average rating for one
// product in a single query.
func (s *Store) GetReviewStats(ctx context.Context, productID string) (*ReviewStats, error) {
	return s.driver.GetReviewStats(ctx, productID)
}

func (s *Store) CreatePolicy(ctx context.Context, create *Policy) (*Policy, error) {
	return s.driver.CreatePolicy(ctx, create)
}

func (s *Store) ListPolicies(ctx context.Context, find *FindPolicy) ([]*Policy, error) {
	return s.driver.ListPolicies(ctx, find)
}

// CountPolicies reports the number of policy rows. The policy retriever
// compares this count against its snapshot to decide whether to rebuild.
func (s *Store) CountPolicies(ctx context.Context) (int, error) {
	return s.driver.CountPolicies(ctx)
}
