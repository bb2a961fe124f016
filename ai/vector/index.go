// Package vector implements the flat inner-product index behind policy
// retrieval. Vectors are L2-normalized at insertion, so the inner product of
// a search equals cosine similarity.
package vector

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Chunk is the metadata stored next to each vector: one policy row rendered
// to text, with the source fields kept so the snapshot is lossless.
type Chunk struct {
	PolicyID    int32  `json:"policy_id"`
	PolicyType  string `json:"policy_type"`
	Description string `json:"description"`
	Conditions  string `json:"conditions"`
	Text        string `json:"text"`
}

// SearchResult pairs a chunk with its similarity to the query.
type SearchResult struct {
	Chunk Chunk
	Score float32 // inner product over normalized vectors, in [-1, 1]
}

// Index is a flat inner-product index. Reads run concurrently; Add and
// Reset take the write lock, which is how a rebuild swaps content.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	chunks  []Chunk
}

// NewIndex creates an empty index of the given dimension.
func NewIndex(dim int) *Index {
	return &Index{dim: dim}
}

// Dim returns the vector dimension.
func (idx *Index) Dim() int {
	return idx.dim
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Add normalizes and stores one vector with its chunk.
func (idx *Index) Add(vec []float32, chunk Chunk) error {
	if len(vec) != idx.dim {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vec), idx.dim)
	}
	normalized := Normalize(vec)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = append(idx.vectors, normalized)
	idx.chunks = append(idx.chunks, chunk)
	return nil
}

// Reset drops all content, keeping the dimension.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = nil
	idx.chunks = nil
}

// Search returns the top min(k, Len) chunks by inner product with the query,
// sorted descending. The query is normalized before scoring. An empty index
// returns no results.
func (idx *Index) Search(query []float32, k int) ([]SearchResult, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(query), idx.dim)
	}
	if k <= 0 {
		return []SearchResult{}, nil
	}
	normalized := Normalize(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]SearchResult, 0, len(idx.vectors))
	for i, vec := range idx.vectors {
		results = append(results, SearchResult{Chunk: idx.chunks[i], Score: dot(normalized, vec)})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Normalize returns the L2-normalized copy of vec. The zero vector is
// returned unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
