package vector

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Snapshot file names, kept compatible with the names the ingestion tooling
// expects.
const (
	IndexFileName    = "faiss_index.bin"
	MetadataFileName = "faiss_metadata.json"
)

// indexMagic identifies the binary snapshot format.
const indexMagic uint32 = 0x58444946 // "FIDX" little-endian

// Save writes the index to dir as a binary vector blob plus a parallel
// metadata JSON array. The two files together form one snapshot; Load
// rejects a snapshot whose files disagree.
func (idx *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create vector store directory %s", dir)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	f, err := os.Create(filepath.Join(dir, IndexFileName))
	if err != nil {
		return errors.Wrap(err, "failed to create index file")
	}
	defer f.Close()

	header := []uint32{indexMagic, uint32(idx.dim), uint32(len(idx.vectors))}
	for _, v := range header {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return errors.Wrap(err, "failed to write index header")
		}
	}
	for _, vec := range idx.vectors {
		if err := binary.Write(f, binary.LittleEndian, vec); err != nil {
			return errors.Wrap(err, "failed to write index vectors")
		}
	}

	meta, err := json.Marshal(idx.chunks)
	if err != nil {
		return errors.Wrap(err, "failed to marshal index metadata")
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFileName), meta, 0o644); err != nil {
		return errors.Wrap(err, "failed to write index metadata")
	}
	return nil
}

// Load reads a snapshot from dir into the index, replacing its content.
// Vectors were normalized before saving and are stored verbatim.
func (idx *Index) Load(dir string) error {
	f, err := os.Open(filepath.Join(dir, IndexFileName))
	if err != nil {
		return errors.Wrap(err, "failed to open index file")
	}
	defer f.Close()

	var magic, dim, count uint32
	for _, p := range []*uint32{&magic, &dim, &count} {
		if err := binary.Read(f, binary.LittleEndian, p); err != nil {
			return errors.Wrap(err, "failed to read index header")
		}
	}
	if magic != indexMagic {
		return errors.Errorf("unrecognized index file magic %#x", magic)
	}
	if int(dim) != idx.dim {
		return errors.Errorf("index dimension mismatch: snapshot %d, configured %d", dim, idx.dim)
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		vec := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, vec); err != nil {
			return errors.Wrapf(err, "failed to read vector %d", i)
		}
		vectors[i] = vec
	}

	meta, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
	if err != nil {
		return errors.Wrap(err, "failed to read index metadata")
	}
	var chunks []Chunk
	if err := json.Unmarshal(meta, &chunks); err != nil {
		return errors.Wrap(err, "failed to unmarshal index metadata")
	}
	if len(chunks) != int(count) {
		return fmt.Errorf("snapshot disagreement: %d vectors, %d metadata entries", count, len(chunks))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = vectors
	idx.chunks = chunks
	return nil
}

// SnapshotCount reads only the metadata file and reports how many chunks a
// snapshot holds, without loading vectors. Returns -1 when no usable
// snapshot exists.
func SnapshotCount(dir string) int {
	meta, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
	if err != nil {
		return -1
	}
	var chunks []json.RawMessage
	if err := json.Unmarshal(meta, &chunks); err != nil {
		return -1
	}
	return len(chunks)
}
