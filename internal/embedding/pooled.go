package embedding

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// PooledEmbedder splits large batches into chunks and embeds them concurrently on a
// goroutine pool. Output order matches input order.
type PooledEmbedder struct {
	inner     Embedder
	pool      *ants.Pool
	batchSize int
}

// NewPooledEmbedder runs chunks of batchSize texts on a pool of workers goroutines.
func NewPooledEmbedder(inner Embedder, workers, batchSize int) (*PooledEmbedder, error) {
	if workers < 1 {
		workers = 1
	}
	if batchSize < 1 {
		batchSize = 32
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("embedding pool: %w", err)
	}
	return &PooledEmbedder{inner: inner, pool: pool, batchSize: batchSize}, nil
}

// Embed delegates to the wrapped embedder.
func (e *PooledEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.inner.Embed(ctx, text)
}

// EmbedBatch embeds texts chunk by chunk on the pool and returns the first chunk error.
func (e *PooledEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) <= e.batchSize {
		return e.inner.EmbedBatch(ctx, texts)
	}

	out := make([][]float32, len(texts))
	nChunks := (len(texts) + e.batchSize - 1) / e.batchSize
	errs := make([]error, nChunks)
	done := make(chan struct{}, nChunks)

	for c := 0; c < nChunks; c++ {
		start := c * e.batchSize
		end := min(start+e.batchSize, len(texts))
		task := func() {
			defer func() { done <- struct{}{} }()
			if err := ctx.Err(); err != nil {
				errs[c] = err
				return
			}
			vecs, err := e.inner.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				errs[c] = err
				return
			}
			if len(vecs) != end-start {
				errs[c] = fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), end-start)
				return
			}
			copy(out[start:end], vecs)
		}
		if err := e.pool.Submit(task); err != nil {
			errs[c] = err
			done <- struct{}{}
		}
	}
	for i := 0; i < nChunks; i++ {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Dimensions returns the wrapped embedder's dimension.
func (e *PooledEmbedder) Dimensions() int { return e.inner.Dimensions() }

// ModelID returns the wrapped embedder's model id.
func (e *PooledEmbedder) ModelID() string { return e.inner.ModelID() }

// Close releases the pool and closes the wrapped embedder.
func (e *PooledEmbedder) Close() error {
	e.pool.Release()
	return e.inner.Close()
}
