package vector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	idx := NewIndex(3)
	require.NoError(t, idx.Add([]float32{1, 0, 0}, Chunk{
		PolicyID: 1, PolicyType: "returns",
		Description: "30 day window.", Conditions: "Unopened only.",
		Text: "returns: 30 day window.\nUnopened only.",
	}))
	require.NoError(t, idx.Add([]float32{0, 1, 0}, Chunk{
		PolicyID: 2, PolicyType: "shipping",
		Description: "5 business days.", Conditions: "Free over $50.",
		Text: "shipping: 5 business days.\nFree over $50.",
	}))
	require.NoError(t, idx.Save(dir))

	loaded := NewIndex(3)
	require.NoError(t, loaded.Load(dir))
	require.Equal(t, 2, loaded.Len())

	// The reloaded index answers the same query identically.
	query := []float32{0.9, 0.1, 0}
	want, err := idx.Search(query, 2)
	require.NoError(t, err)
	got, err := loaded.Search(query, 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The snapshot keeps the source fields, not just the rendered text.
	assert.Equal(t, "30 day window.", got[0].Chunk.Description)
	assert.Equal(t, "Unopened only.", got[0].Chunk.Conditions)
}

func TestLoad_RejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()

	idx := NewIndex(3)
	require.NoError(t, idx.Add([]float32{1, 0, 0}, Chunk{PolicyID: 1}))
	require.NoError(t, idx.Save(dir))

	other := NewIndex(4)
	assert.Error(t, other.Load(dir))
}

func TestLoad_RejectsTornSnapshot(t *testing.T) {
	dir := t.TempDir()

	idx := NewIndex(2)
	require.NoError(t, idx.Add([]float32{1, 0}, Chunk{PolicyID: 1}))
	require.NoError(t, idx.Save(dir))

	// Metadata replaced with a different element count.
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetadataFileName), []byte("[]"), 0o644))

	loaded := NewIndex(2)
	assert.Error(t, loaded.Load(dir))
}

func TestSnapshotCount(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, -1, SnapshotCount(dir))

	idx := NewIndex(2)
	require.NoError(t, idx.Add([]float32{1, 0}, Chunk{PolicyID: 1}))
	require.NoError(t, idx.Add([]float32{0, 1}, Chunk{PolicyID: 2}))
	require.NoError(t, idx.Save(dir))

	assert.Equal(t, 2, SnapshotCount(dir))
}
