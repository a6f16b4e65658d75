package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/meetkant/pkg/utils"
)

// MemoryIndex is an in-memory vector index using brute-force inner product search.
// It is exact and fast enough for corpora of tens of thousands of passages.
type MemoryIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Add appends copies of vectors. Either all vectors are added or none.
func (m *MemoryIndex) Add(ctx context.Context, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("%w: vector %d has %d, expected %d", ErrDimensionMismatch, i, len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		m.vectors = append(m.vectors, append([]float32(nil), v...))
	}
	return nil
}

// Search returns the n best vectors by inner product, which equals cosine similarity
// for unit vectors.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, n int) ([]Hit, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || len(m.vectors) == 0 {
		return []Hit{}, nil
	}
	hits := make([]Hit, len(m.vectors))
	for i, vec := range m.vectors {
		hits[i] = Hit{Position: i, Score: utils.Dot(query, vec)}
	}
	sortHits(hits)
	if n > len(hits) {
		n = len(hits)
	}
	return hits[:n:n], nil
}

// sortHits orders hits by score descending, then position ascending.
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
}

// Save writes a snapshot of the index to path. meta's Dimensions and Count are set
// from the index.
func (m *MemoryIndex) Save(path string, meta SnapshotMeta) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta.Dimensions = m.dimensions
	meta.Count = len(m.vectors)
	return writeSnapshot(path, meta, m.vectors)
}

// Load replaces the contents of the index with the snapshot at path. The snapshot's
// dimension must match the index.
func (m *MemoryIndex) Load(path string) (SnapshotMeta, error) {
	meta, vectors, err := readSnapshot(path)
	if err != nil {
		return SnapshotMeta{}, err
	}
	if meta.Dimensions != m.dimensions {
		return SnapshotMeta{}, fmt.Errorf("%w: snapshot has %d, index expects %d", ErrDimensionMismatch, meta.Dimensions, m.dimensions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = vectors
	return meta, nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
