package embedding

import (
	"context"
	"fmt"
)

// CachedEmbedder consults a chain of caches before delegating to the wrapped embedder.
// A hit in a later cache is promoted into the earlier ones. Returned vectors are always
// fresh copies, so callers may modify them.
type CachedEmbedder struct {
	inner  Embedder
	caches []Cache
}

// NewCachedEmbedder wraps inner with the given caches, consulted in order.
func NewCachedEmbedder(inner Embedder, caches ...Cache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, caches: caches}
}

// lookup returns the first cached vector for key. Entries whose length does not match
// the wrapped embedder's dimension are ignored.
func (e *CachedEmbedder) lookup(key string) ([]float32, bool) {
	dims := e.inner.Dimensions()
	for i, c := range e.caches {
		if v, ok := c.Get(key); ok {
			if dims > 0 && len(v) != dims {
				continue
			}
			for _, earlier := range e.caches[:i] {
				earlier.Set(key, v)
			}
			return append([]float32(nil), v...), true
		}
	}
	return nil, false
}

func (e *CachedEmbedder) store(key string, v []float32) {
	for _, c := range e.caches {
		c.Set(key, v)
	}
}

// Embed returns the cached vector for text or computes and caches it.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(e.inner.ModelID(), e.inner.Dimensions(), text)
	if v, ok := e.lookup(key); ok {
		return v, nil
	}
	v, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store(key, v)
	return v, nil
}

// EmbedBatch serves hits from the caches and embeds the misses in one inner batch.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		keys[i] = CacheKey(e.inner.ModelID(), e.inner.Dimensions(), text)
		if v, ok := e.lookup(keys[i]); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		e.store(keys[i], vecs[j])
	}
	return out, nil
}

// Dimensions returns the wrapped embedder's dimension.
func (e *CachedEmbedder) Dimensions() int { return e.inner.Dimensions() }

// ModelID returns the wrapped embedder's model id.
func (e *CachedEmbedder) ModelID() string { return e.inner.ModelID() }

// Close closes the wrapped embedder.
func (e *CachedEmbedder) Close() error { return e.inner.Close() }
