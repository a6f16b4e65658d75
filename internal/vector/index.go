// Package vector provides position-addressed vector indexes and their on-disk snapshot.
package vector

import (
	"context"
	"errors"
)

// Index stores vectors in insertion order and searches them by inner product. The
// position of a vector is its insertion order, starting at 0.
type Index interface {
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns at most n hits ordered by score descending, ties by position ascending.
	Search(ctx context.Context, query []float32, n int) ([]Hit, error)
	Save(path string, meta SnapshotMeta) error
	Load(path string) (SnapshotMeta, error)
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Hit is a single search result.
type Hit struct {
	Position int
	Score    float64
}

var (
	// ErrDimensionMismatch is returned when a vector or snapshot has the wrong dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrSnapshotStale is returned when a snapshot does not describe the current corpus or model.
	ErrSnapshotStale = errors.New("vector snapshot is stale")
	// ErrSnapshotCorrupt is returned for unreadable, truncated or foreign snapshot files.
	ErrSnapshotCorrupt = errors.New("vector snapshot is corrupt")
)
