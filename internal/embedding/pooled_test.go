package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPooledEmbedder_PreservesOrder(t *testing.T) {
	inner := NewMockEmbedder(8)
	e, err := NewPooledEmbedder(inner, 4, 3)
	require.NoError(t, err)
	defer e.Close()

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("passage %02d", i)
	}
	got, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	want, _ := inner.EmbedBatch(context.Background(), texts)
	assert.Equal(t, want, got)
}

func TestPooledEmbedder_SmallBatchDelegates(t *testing.T) {
	inner := NewMockEmbedder(4)
	e, err := NewPooledEmbedder(inner, 2, 10)
	require.NoError(t, err)
	defer e.Close()

	got, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "mock-4", e.ModelID())
	assert.Equal(t, 4, e.Dimensions())
}

func TestPooledEmbedder_ChunkErrorFailsBatch(t *testing.T) {
	boom := errors.New("boom")
	inner := NewMockEmbedder(4)
	inner.EmbedFunc = func(_ context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, boom
		}
		return []float32{1, 0, 0, 0}, nil
	}
	e, err := NewPooledEmbedder(inner, 2, 2)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.EmbedBatch(context.Background(), []string{"a", "b", "c", "bad", "e"})
	assert.ErrorIs(t, err, boom)
}

func TestPooledEmbedder_CloseClosesInner(t *testing.T) {
	inner := NewMockEmbedder(4)
	e, err := NewPooledEmbedder(inner, 1, 1)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.True(t, inner.Closed)
}
