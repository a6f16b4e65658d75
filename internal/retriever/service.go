package retriever

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hyperjump/meetkant/internal/corpus"
	"github.com/hyperjump/meetkant/internal/embedding"
	"github.com/hyperjump/meetkant/internal/models"
	"github.com/hyperjump/meetkant/pkg/utils"
)

// CatalogLoader produces the current catalog, e.g. by reading the corpus directory.
type CatalogLoader func(ctx context.Context) (*corpus.Catalog, error)

// Service serves queries from the current Retriever and replaces it on Reload.
// Queries read the current instance without locking; a reload builds a complete new
// Retriever before swapping it in, so queries never see a partially built index.
type Service struct {
	current  atomic.Pointer[Retriever]
	reloadMu sync.Mutex
	load     CatalogLoader
	embedder embedding.Embedder
	opts     []Option
	logger   *zap.Logger
}

// NewService loads the catalog and constructs the first Retriever.
func NewService(ctx context.Context, load CatalogLoader, embedder embedding.Embedder, opts ...Option) (*Service, error) {
	if load == nil {
		return nil, errors.New("retriever: catalog loader is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Service{load: load, embedder: embedder, opts: opts, logger: utils.OrNop(o.logger)}
	r, err := s.newRetriever(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.current.Store(r)
	return s, nil
}

func (s *Service) newRetriever(ctx context.Context, opts []Option) (*Retriever, error) {
	catalog, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return New(ctx, catalog, s.embedder, opts...)
}

// Current returns the Retriever serving queries right now.
func (s *Service) Current() *Retriever {
	return s.current.Load()
}

// Retrieve queries the current Retriever.
func (s *Service) Retrieve(ctx context.Context, query string, topK int, lang string) ([]models.QueryResult, error) {
	return s.current.Load().Retrieve(ctx, query, topK, lang)
}

// Reload reloads the catalog and builds a new Retriever (reusing the snapshot only if
// it still matches), then swaps it in. Concurrent reloads run one at a time. On error
// the previous Retriever keeps serving.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	r, err := s.newRetriever(ctx, s.opts)
	if err != nil {
		s.logger.Error("reload failed, keeping current index", zap.Error(err))
		return err
	}
	// The previous instance is not closed: in-flight queries may still hold it.
	// Memory indexes are reclaimed by the garbage collector.
	old := s.current.Swap(r)
	s.logger.Info("retriever reloaded",
		zap.Int("passages", r.Stats().Passages),
		zap.Int("previous_passages", old.Stats().Passages))
	return nil
}

// Close closes the current Retriever.
func (s *Service) Close() error {
	if r := s.current.Load(); r != nil {
		return r.Close()
	}
	return nil
}
