//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"
)

// FAISSIndex is a vector index backed by a FAISS IndexFlatIP. FAISS labels are
// sequential, so a label is the vector's position. A Go-side copy of the vectors is
// kept so the index shares the memory index's snapshot format.
type FAISSIndex struct {
	index      *C.FaissIndexFlatIP
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewFAISSIndex creates a FAISS index with the given dimension using inner product.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	index, err := newFlatIP(dimensions)
	if err != nil {
		return nil, err
	}
	return &FAISSIndex{index: index, dimensions: dimensions}, nil
}

func newFlatIP(dimensions int) (*C.FaissIndexFlatIP, error) {
	var index *C.FaissIndexFlatIP
	if ret := C.faiss_IndexFlatIP_new_with(&index, C.idx_t(dimensions)); ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}
	return index, nil
}

// faissLastError returns the last FAISS error message.
func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// addLocked adds vectors to the FAISS index; f.mu must be held.
func (f *FAISSIndex) addLocked(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	flat := make([]float32, len(vectors)*f.dimensions)
	for i, vec := range vectors {
		copy(flat[i*f.dimensions:(i+1)*f.dimensions], vec)
	}
	ret := C.faiss_Index_add(f.index, C.idx_t(len(vectors)), (*C.float)(unsafe.Pointer(&flat[0])))
	if ret != 0 {
		return fmt.Errorf("failed to add vectors to FAISS index: %s", faissLastError())
	}
	for _, vec := range vectors {
		f.vectors = append(f.vectors, append([]float32(nil), vec...))
	}
	return nil
}

// Add appends vectors at the next positions.
func (f *FAISSIndex) Add(ctx context.Context, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dimensions {
			return fmt.Errorf("%w: vector %d has %d, expected %d", ErrDimensionMismatch, i, len(v), f.dimensions)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(vectors)
}

// Search returns the n best vectors by inner product, ties ordered by position.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, n int) ([]Hit, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	ntotal := int(C.faiss_Index_ntotal(f.index))
	if n <= 0 || ntotal == 0 {
		return []Hit{}, nil
	}
	if n > ntotal {
		n = ntotal
	}

	distances := make([]float32, n)
	labels := make([]int64, n)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(n),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	hits := make([]Hit, 0, n)
	for i := 0; i < n; i++ {
		if labels[i] < 0 {
			continue
		}
		hits = append(hits, Hit{Position: int(labels[i]), Score: float64(distances[i])})
	}
	// FAISS does not guarantee an order among equal scores.
	sortHits(hits)
	return hits, nil
}

// Save writes a snapshot of the index to path.
func (f *FAISSIndex) Save(path string, meta SnapshotMeta) error {
	if path == "" {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	meta.Dimensions = f.dimensions
	meta.Count = len(f.vectors)
	return writeSnapshot(path, meta, f.vectors)
}

// Load replaces the index with the snapshot at path.
func (f *FAISSIndex) Load(path string) (SnapshotMeta, error) {
	meta, vectors, err := readSnapshot(path)
	if err != nil {
		return SnapshotMeta{}, err
	}
	if meta.Dimensions != f.dimensions {
		return SnapshotMeta{}, fmt.Errorf("%w: snapshot has %d, index expects %d", ErrDimensionMismatch, meta.Dimensions, f.dimensions)
	}
	index, err := newFlatIP(f.dimensions)
	if err != nil {
		return SnapshotMeta{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
	}
	f.index = index
	f.vectors = nil
	if err := f.addLocked(vectors); err != nil {
		return SnapshotMeta{}, err
	}
	return meta, nil
}

// Size returns the number of vectors.
func (f *FAISSIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Dimensions returns the vector dimension.
func (f *FAISSIndex) Dimensions() int {
	return f.dimensions
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}
