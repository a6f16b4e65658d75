// Package indexer builds a vector index from a passage catalog.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/meetkant/internal/corpus"
	"github.com/hyperjump/meetkant/internal/embedding"
	"github.com/hyperjump/meetkant/internal/vector"
	"github.com/hyperjump/meetkant/pkg/utils"
)

const defaultBatchSize = 64

// Indexer embeds catalog passages and adds them to a vector index in catalog order,
// so that index position i always holds passage i.
type Indexer struct {
	embedder  embedding.Embedder
	index     vector.Index
	batchSize int
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for progress output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithBatchSize sets how many passages are embedded per EmbedBatch call.
func WithBatchSize(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// NewIndexer creates an indexer writing into index.
func NewIndexer(embedder embedding.Embedder, index vector.Index, opts ...IndexerOption) *Indexer {
	idx := &Indexer{embedder: embedder, index: index, batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = utils.OrNop(idx.logger)
	return idx
}

// Build embeds every passage of catalog, L2-normalises the vectors and adds them to
// the index. The index is only modified when every batch succeeded.
func (idx *Indexer) Build(ctx context.Context, catalog *corpus.Catalog) error {
	texts := catalog.Texts()
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += idx.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+idx.batchSize, len(texts))
		batch := make([]string, end-start)
		for i, t := range texts[start:end] {
			batch[i] = Preprocess(t)
		}
		vecs, err := idx.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed passages %d-%d: %w", start, end-1, err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embed passages %d-%d: got %d vectors for %d texts", start, end-1, len(vecs), len(batch))
		}
		for i, v := range vecs {
			if !utils.NormalizeL2(v) {
				rec := catalog.At(start + i)
				idx.logger.Debug("passage has a zero embedding",
					zap.String("work_id", rec.WorkID), zap.String("para_id", rec.ParaID))
			}
		}
		vectors = append(vectors, vecs...)
		idx.logger.Debug("embedded passages", zap.Int("done", end), zap.Int("total", len(texts)))
	}
	if err := idx.index.Add(ctx, vectors); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	return nil
}

// Build is a convenience wrapper around NewIndexer(...).Build.
func Build(ctx context.Context, catalog *corpus.Catalog, embedder embedding.Embedder, index vector.Index, opts ...IndexerOption) error {
	return NewIndexer(embedder, index, opts...).Build(ctx, catalog)
}
