package vector

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewIndex_Memory(t *testing.T) {
	idx, err := NewIndex("memory", 3)
	if err != nil {
		t.Fatalf("NewIndex(memory): %v", err)
	}
	defer idx.Close()

	if err := idx.Add(context.Background(), [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx.Size() != 1 || idx.Dimensions() != 3 || idx.Type() != "memory" {
		t.Errorf("Size=%d Dimensions=%d Type=%s", idx.Size(), idx.Dimensions(), idx.Type())
	}
}

func TestNewIndex_Empty(t *testing.T) {
	idx, err := NewIndex("", 3)
	if err != nil {
		t.Fatalf("NewIndex(''): %v", err)
	}
	defer idx.Close()
	if idx.Type() != "memory" {
		t.Errorf("empty type should default to memory, got %s", idx.Type())
	}
}

func TestNewIndex_Unknown(t *testing.T) {
	if _, err := NewIndex("unknown", 3); err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestNewIndex_InvalidDimension(t *testing.T) {
	if _, err := NewIndex("memory", 0); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestNewIndexWithFallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	idx, err := NewIndexWithFallback("faiss", 3, zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if IsFAISSAvailable() {
		if idx.Type() != "faiss" {
			t.Errorf("FAISS available but got %s", idx.Type())
		}
		return
	}
	if idx.Type() != "memory" {
		t.Errorf("expected memory fallback, got %s", idx.Type())
	}
	if logs.Len() != 1 {
		t.Errorf("expected one fallback warning, got %d", logs.Len())
	}
}

func TestNewIndexWithFallback_UnknownTypeFallsBack(t *testing.T) {
	idx, err := NewIndexWithFallback("hnsw", 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Type() != "memory" {
		t.Errorf("got %s", idx.Type())
	}
}

func TestIsFAISSAvailable(t *testing.T) {
	t.Logf("FAISS available: %v", IsFAISSAvailable())
}
