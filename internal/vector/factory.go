package vector

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/meetkant/pkg/utils"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS uses a FAISS flat inner-product index.
	// Requires FAISS library and build tag -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// NewIndex creates a vector index of the specified type ("memory" when empty).
func NewIndex(indexType string, dimensions int) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	case IndexTypeFAISS:
		idx, err := NewFAISSIndex(dimensions)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// NewIndexWithFallback creates the requested index type and falls back to a memory
// index, with a warning, when it cannot be created (e.g. FAISS not compiled in).
func NewIndexWithFallback(indexType string, dimensions int, logger *zap.Logger) (Index, error) {
	idx, err := NewIndex(indexType, dimensions)
	if err == nil || indexType == "" || IndexType(indexType) == IndexTypeMemory {
		return idx, err
	}
	utils.OrNop(logger).Warn("failed to create vector index, falling back to memory",
		zap.String("type", indexType), zap.Error(err))
	return NewMemoryIndex(dimensions)
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
