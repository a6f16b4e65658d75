// Package retriever answers questions with ranked passages: it embeds the query,
// searches the vector index and filters the candidates by language.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/hyperjump/meetkant/internal/corpus"
	"github.com/hyperjump/meetkant/internal/embedding"
	"github.com/hyperjump/meetkant/internal/indexer"
	"github.com/hyperjump/meetkant/internal/models"
	"github.com/hyperjump/meetkant/internal/vector"
	"github.com/hyperjump/meetkant/pkg/utils"
)

// Retriever pairs a catalog with a vector index built from it. Position i of the index
// holds the embedding of catalog passage i. A Retriever is immutable after New and safe
// for concurrent use.
type Retriever struct {
	catalog  *corpus.Catalog
	embedder embedding.Embedder
	index    vector.Index
	meta     vector.SnapshotMeta
	loaded   bool
	opts     options
	logger   *zap.Logger
}

// Stats describes a Retriever for diagnostics.
type Stats struct {
	Passages       int    `json:"passages"`
	Vectors        int    `json:"vectors"`
	Dimensions     int    `json:"dimensions"`
	ModelID        string `json:"model_id"`
	IndexType      string `json:"index_type"`
	SnapshotPath   string `json:"snapshot_path,omitempty"`
	BuildID        string `json:"build_id,omitempty"`
	Loaded         bool   `json:"loaded_from_snapshot"`
	SampleFallback bool   `json:"sample_fallback"`
}

// New builds a Retriever over catalog. When a snapshot path is configured and the
// snapshot there matches the catalog and embedding model, the index is loaded from it;
// otherwise it is built from the catalog and persisted. Exactly one of the two happens.
func New(ctx context.Context, catalog *corpus.Catalog, embedder embedding.Embedder, opts ...Option) (*Retriever, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if catalog == nil {
		catalog = corpus.NewCatalog(nil)
	}
	if embedder == nil {
		return nil, errors.New("retriever: embedder is required")
	}
	dims := embedder.Dimensions()
	if dims <= 0 {
		return nil, fmt.Errorf("retriever: embedder reports dimension %d", dims)
	}

	r := &Retriever{catalog: catalog, embedder: embedder, opts: o, logger: utils.OrNop(o.logger)}
	idx, err := vector.NewIndexWithFallback(o.indexType, dims, r.logger)
	if err != nil {
		return nil, err
	}
	r.index = idx

	if r.tryLoad() {
		r.loaded = true
	} else if err := r.build(ctx); err != nil {
		_ = idx.Close()
		return nil, err
	}

	if r.catalog.Len() != r.index.Size() {
		_ = idx.Close()
		return nil, fmt.Errorf("%w: %d passages, %d vectors", ErrMisaligned, r.catalog.Len(), r.index.Size())
	}
	r.logger.Info("retriever ready",
		zap.Int("passages", r.catalog.Len()),
		zap.Int("dimensions", dims),
		zap.String("model", embedder.ModelID()),
		zap.Bool("loaded_from_snapshot", r.loaded))
	return r, nil
}

// tryLoad loads the configured snapshot when it matches the catalog and model.
func (r *Retriever) tryLoad() bool {
	path := r.opts.snapshotPath
	if path == "" || r.opts.forceRebuild {
		return false
	}
	meta, err := vector.ReadSnapshotMeta(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err == nil {
		err = meta.Check(r.catalog.Len(), r.catalog.Fingerprint(), r.embedder.Dimensions(), r.embedder.ModelID())
	}
	if err == nil {
		meta, err = r.index.Load(path)
	}
	if err != nil {
		r.logger.Warn("index snapshot not usable, rebuilding", zap.String("path", path), zap.Error(err))
		return false
	}
	r.meta = meta
	return true
}

// build embeds the catalog into the index and persists a snapshot when configured.
func (r *Retriever) build(ctx context.Context) error {
	// A failed Load may have left partial state; build into a fresh index.
	if r.index.Size() != 0 {
		idx, err := vector.NewIndexWithFallback(r.opts.indexType, r.embedder.Dimensions(), r.logger)
		if err != nil {
			return err
		}
		_ = r.index.Close()
		r.index = idx
	}
	iopts := []indexer.IndexerOption{indexer.WithLogger(r.logger), indexer.WithBatchSize(r.opts.batchSize)}
	if err := indexer.Build(ctx, r.catalog, r.embedder, r.index, iopts...); err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	r.meta = vector.NewSnapshotMeta(r.embedder.ModelID(), r.catalog.Fingerprint())
	r.meta.Dimensions = r.index.Dimensions()
	r.meta.Count = r.index.Size()

	if path := r.opts.snapshotPath; path != "" {
		if err := r.index.Save(path, r.meta); err != nil {
			// The in-memory index is complete; only the next start pays for this.
			r.logger.Warn("failed to persist index snapshot", zap.String("path", path), zap.Error(err))
		} else {
			r.logger.Info("index snapshot written", zap.String("path", path), zap.String("build_id", r.meta.BuildID))
		}
	}
	return nil
}

// Retrieve returns up to topK passages most similar to query, ordered by descending
// score. A non-empty lang keeps only passages in that language; the index is asked for
// topK times the oversampling factor candidates, so fewer than topK results may come
// back when matching passages are scarce. An empty catalog yields an empty slice.
// Failures are returned as *QueryError.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, lang string) ([]models.QueryResult, error) {
	if topK < 1 {
		return nil, ErrInvalidTopK
	}
	results := []models.QueryResult{}
	if r == nil || r.catalog.Len() == 0 || r.index == nil || r.index.Size() == 0 {
		return results, nil
	}

	q, err := r.embedder.Embed(ctx, indexer.Preprocess(query))
	if err != nil {
		return nil, &QueryError{Query: query, Kind: ErrQueryEmbedding, Err: err}
	}
	utils.NormalizeL2(q)

	n := candidateCount(topK, r.opts.oversample, r.catalog.Len())
	hits, err := r.index.Search(ctx, q, n)
	if err != nil {
		return nil, &QueryError{Query: query, Kind: ErrSearch, Err: err}
	}

	for _, h := range hits {
		rec := r.catalog.At(h.Position)
		if lang != "" && rec.Lang != lang {
			continue
		}
		results = append(results, models.NewQueryResult(rec, h.Score))
		if len(results) == topK {
			break
		}
	}
	r.logger.Debug("retrieved",
		zap.String("query", utils.Truncate(query, 80)),
		zap.Int("top_k", topK),
		zap.String("lang", lang),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)))
	return results, nil
}

// candidateCount returns min(topK*oversample, size) without overflowing for large topK.
func candidateCount(topK, oversample, size int) int {
	if oversample < 1 {
		oversample = 1
	}
	if topK > size/oversample {
		return size
	}
	return topK * oversample
}

// Catalog returns the passages this Retriever serves.
func (r *Retriever) Catalog() *corpus.Catalog { return r.catalog }

// Stats reports sizes and provenance of the index.
func (r *Retriever) Stats() Stats {
	return Stats{
		Passages:       r.catalog.Len(),
		Vectors:        r.index.Size(),
		Dimensions:     r.index.Dimensions(),
		ModelID:        r.embedder.ModelID(),
		IndexType:      r.index.Type(),
		SnapshotPath:   r.opts.snapshotPath,
		BuildID:        r.meta.BuildID,
		Loaded:         r.loaded,
		SampleFallback: r.catalog.Fallback(),
	}
}

// Close releases the index. The embedder is owned by the caller.
func (r *Retriever) Close() error {
	return r.index.Close()
}
