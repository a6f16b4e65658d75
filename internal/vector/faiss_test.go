//go:build faiss && cgo
// +build faiss,cgo

package vector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestFAISSIndex_AddSearch(t *testing.T) {
	idx, err := NewFAISSIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Add(ctx, [][]float32{{0.9, 0.1, 0}, {1, 0, 0}, {0, 1, 0}}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d, want 3", idx.Size())
	}
	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].Position != 1 || hits[1].Position != 0 {
		t.Errorf("hits: %v", hits)
	}
}

func TestFAISSIndex_TiesOrderedByPosition(t *testing.T) {
	idx, _ := NewFAISSIndex(2)
	defer idx.Close()
	ctx := context.Background()
	_ = idx.Add(ctx, [][]float32{{0, 1}, {1, 0}, {1, 0}})
	hits, _ := idx.Search(ctx, []float32{1, 0}, 3)
	if hits[0].Position != 1 || hits[1].Position != 2 || hits[2].Position != 0 {
		t.Errorf("hits: %v", hits)
	}
}

func TestFAISSIndex_SearchEmpty(t *testing.T) {
	idx, _ := NewFAISSIndex(3)
	defer idx.Close()
	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 10)
	if err != nil || len(hits) != 0 {
		t.Errorf("hits=%v err=%v", hits, err)
	}
}

func TestFAISSIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idx")

	idx, _ := NewFAISSIndex(3)
	defer idx.Close()
	_ = idx.Add(ctx, [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	if err := idx.Save(path, NewSnapshotMeta("m", "f")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// FAISS and memory indexes share the snapshot format.
	mem, _ := NewMemoryIndex(3)
	if _, err := mem.Load(path); err != nil {
		t.Fatalf("memory Load of FAISS snapshot: %v", err)
	}

	idx2, _ := NewFAISSIndex(3)
	defer idx2.Close()
	if _, err := idx2.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	hits, _ := idx2.Search(ctx, []float32{0, 0, 1}, 1)
	if len(hits) != 1 || hits[0].Position != 2 {
		t.Errorf("Search after Load: got %v", hits)
	}
}

func TestFAISSIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFAISSIndex(3)
	defer idx.Close()
	ctx := context.Background()
	if err := idx.Add(ctx, [][]float32{{1, 0}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Add: %v", err)
	}
	_ = idx.Add(ctx, [][]float32{{1, 0, 0}})
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Search: %v", err)
	}
}

func TestFAISSIndex_InvalidDimension(t *testing.T) {
	if _, err := NewFAISSIndex(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}
