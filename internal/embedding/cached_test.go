package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps a MockEmbedder and counts texts embedded.
func countingEmbedder(dims int) (*MockEmbedder, *atomic.Int64) {
	var n atomic.Int64
	m := NewMockEmbedder(dims)
	m.EmbedFunc = func(_ context.Context, text string) ([]float32, error) {
		n.Add(1)
		v := make([]float32, dims)
		v[len(text)%dims] = 1
		return v, nil
	}
	return m, &n
}

func TestCachedEmbedder_EmbedHitsCache(t *testing.T) {
	inner, calls := countingEmbedder(4)
	e := NewCachedEmbedder(inner, NewEmbeddingCache(10))
	ctx := context.Background()

	first, err := e.Embed(ctx, "abc")
	require.NoError(t, err)
	first[0] = 42 // callers may mutate results

	second, err := e.Embed(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, []float32{0, 0, 0, 1}, second)
}

func TestCachedEmbedder_BatchEmbedsOnlyMisses(t *testing.T) {
	inner, calls := countingEmbedder(4)
	e := NewCachedEmbedder(inner, NewEmbeddingCache(10))
	ctx := context.Background()

	_, err := e.Embed(ctx, "b")
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(ctx, []string{"a", "b", "cc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, int64(3), calls.Load(), "b should come from the cache")
	assert.Equal(t, []float32{0, 1, 0, 0}, vecs[0])
	assert.Equal(t, []float32{0, 0, 1, 0}, vecs[2])
}

func TestCachedEmbedder_PromotesToEarlierCache(t *testing.T) {
	inner, calls := countingEmbedder(4)
	front, back := NewEmbeddingCache(10), NewEmbeddingCache(10)
	back.Set(CacheKey(inner.ModelID(), inner.Dimensions(), "x"), []float32{1, 0, 0, 0})

	e := NewCachedEmbedder(inner, front, back)
	v, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, v)
	assert.Zero(t, calls.Load())
	_, ok := front.Get(CacheKey(inner.ModelID(), inner.Dimensions(), "x"))
	assert.True(t, ok)
}

func TestCachedEmbedder_WrongLengthEntryIsAMiss(t *testing.T) {
	inner, calls := countingEmbedder(4)
	cache := NewEmbeddingCache(10)
	key := CacheKey(inner.ModelID(), inner.Dimensions(), "x")
	cache.Set(key, []float32{1, 0})

	e := NewCachedEmbedder(inner, cache)
	v, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, v, 4)
	assert.Equal(t, int64(1), calls.Load())

	cached, ok := cache.Get(key)
	require.True(t, ok)
	assert.Len(t, cached, 4, "the recomputed vector replaces the stale entry")
}

func TestCachedEmbedder_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	inner := NewMockEmbedder(2)
	inner.EmbedFunc = func(context.Context, string) ([]float32, error) { return nil, boom }
	cache := NewEmbeddingCache(10)
	e := NewCachedEmbedder(inner, cache)

	_, err := e.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	_, err = e.EmbedBatch(context.Background(), []string{"y"})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, cache.Len())
}
