package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dharmendra-verma/smartshop-ai-sub000/ai/core/embedding"
	"github.com/dharmendra-verma/smartshop-ai-sub000/store"
)

// Retriever is what the policy agent sees: ensure the index matches the
// catalog, then search it.
type Retriever interface {
	// EnsureReady loads or rebuilds the index so it covers every policy
	// row currently in the catalog.
	EnsureReady(ctx context.Context) error

	// Retrieve embeds the query and returns the top k chunks by cosine
	// similarity, sorted descending.
	Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Count reports the number of indexed chunks.
	Count(ctx context.Context) int
}

// ChunkText renders one policy row to the text that gets embedded.
func ChunkText(p *store.Policy) string {
	return p.PolicyType + ": " + p.Description + "\n" + p.Conditions
}

// FileRetriever keeps the index in process memory and snapshots it to disk.
// On startup the snapshot is reused when its chunk count matches the catalog
// row count; any other state triggers a full rebuild. Content edits that
// keep the row count unchanged are not detected.
type FileRetriever struct {
	index    *Index
	embedder embedding.Service
	store    *store.Store
	dir      string

	mu    sync.Mutex // serializes EnsureReady; searches stay concurrent
	ready bool
}

// NewFileRetriever creates a retriever persisting snapshots under dir.
func NewFileRetriever(embedder embedding.Service, catalog *store.Store, dir string) *FileRetriever {
	return &FileRetriever{
		index:    NewIndex(embedder.Dimensions()),
		embedder: embedder,
		store:    catalog,
		dir:      dir,
	}
}

func (r *FileRetriever) EnsureReady(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}

	rowCount, err := r.store.CountPolicies(ctx)
	if err != nil {
		return fmt.Errorf("count policies: %w", err)
	}

	if SnapshotCount(r.dir) == rowCount {
		if err := r.index.Load(r.dir); err == nil {
			slog.Info("policy index loaded from snapshot", "dir", r.dir, "chunks", r.index.Len())
			r.ready = true
			return nil
		}
		slog.Warn("policy index snapshot unusable, rebuilding", "dir", r.dir)
	}

	if err := r.rebuild(ctx); err != nil {
		return err
	}
	r.ready = true
	return nil
}

func (r *FileRetriever) rebuild(ctx context.Context) error {
	started := time.Now()

	policies, err := r.store.ListPolicies(ctx, &store.FindPolicy{})
	if err != nil {
		return fmt.Errorf("list policies: %w", err)
	}

	r.index.Reset()
	if len(policies) == 0 {
		slog.Info("policy index built empty, no policy rows in catalog")
		return r.index.Save(r.dir)
	}

	texts := make([]string, len(policies))
	for i, p := range policies {
		texts[i] = ChunkText(p)
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed policy chunks: %w", err)
	}

	for i, p := range policies {
		chunk := Chunk{
			PolicyID:    p.ID,
			PolicyType:  p.PolicyType,
			Description: p.Description,
			Conditions:  p.Conditions,
			Text:        texts[i],
		}
		if err := r.index.Add(vectors[i], chunk); err != nil {
			return fmt.Errorf("index policy %d: %w", p.ID, err)
		}
	}

	if err := r.index.Save(r.dir); err != nil {
		return err
	}
	slog.Info("policy index rebuilt",
		"chunks", r.index.Len(),
		"dir", r.dir,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}

func (r *FileRetriever) Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if err := r.EnsureReady(ctx); err != nil {
		return nil, err
	}
	if r.index.Len() == 0 {
		return []SearchResult{}, nil
	}
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.index.Search(queryVec, k)
}

func (r *FileRetriever) Count(ctx context.Context) int {
	if err := r.EnsureReady(ctx); err != nil {
		return 0
	}
	return r.index.Len()
}

// PostgresRetriever stores policy embeddings in a pgvector column and
// searches them with the inner-product operator. Same contract as the file
// retriever, same count-based rebuild trigger.
type PostgresRetriever struct {
	vectors  store.PolicyVectorStore
	embedder embedding.Service
	store    *store.Store

	mu    sync.Mutex
	ready bool
}

// NewPostgresRetriever creates a retriever over the driver's pgvector
// capability.
func NewPostgresRetriever(vectors store.PolicyVectorStore, embedder embedding.Service, catalog *store.Store) *PostgresRetriever {
	return &PostgresRetriever{vectors: vectors, embedder: embedder, store: catalog}
}

func (r *PostgresRetriever) EnsureReady(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}

	rowCount, err := r.store.CountPolicies(ctx)
	if err != nil {
		return fmt.Errorf("count policies: %w", err)
	}
	embedded, err := r.vectors.CountPolicyEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("count policy embeddings: %w", err)
	}
	if embedded == rowCount {
		r.ready = true
		return nil
	}

	policies, err := r.store.ListPolicies(ctx, &store.FindPolicy{})
	if err != nil {
		return fmt.Errorf("list policies: %w", err)
	}
	if len(policies) > 0 {
		texts := make([]string, len(policies))
		for i, p := range policies {
			texts[i] = ChunkText(p)
		}
		embeddings, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed policy chunks: %w", err)
		}
		for i, p := range policies {
			if err := r.vectors.UpsertPolicyEmbedding(ctx, p.ID, Normalize(embeddings[i])); err != nil {
				return fmt.Errorf("upsert policy embedding %d: %w", p.ID, err)
			}
		}
	}
	slog.Info("policy embeddings rebuilt in postgres", "chunks", len(policies))
	r.ready = true
	return nil
}

func (r *PostgresRetriever) Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if err := r.EnsureReady(ctx); err != nil {
		return nil, err
	}
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := r.vectors.SearchPoliciesByVector(ctx, Normalize(queryVec), k)
	if err != nil {
		return nil, fmt.Errorf("search policy vectors: %w", err)
	}
	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, SearchResult{
			Chunk: Chunk{
				PolicyID:    row.Policy.ID,
				PolicyType:  row.Policy.PolicyType,
				Description: row.Policy.Description,
				Conditions:  row.Policy.Conditions,
				Text:        ChunkText(row.Policy),
			},
			Score: row.Score,
		})
	}
	return results, nil
}

func (r *PostgresRetriever) Count(ctx context.Context) int {
	count, err := r.vectors.CountPolicyEmbeddings(ctx)
	if err != nil {
		return 0
	}
	return count
}
