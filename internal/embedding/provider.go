package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/hyperjump/meetkant/internal/config"
	"github.com/hyperjump/meetkant/pkg/utils"
)

// Selection describes the model a Provider settled on.
type Selection struct {
	ModelID    string
	Backend    string
	Dimensions int
	Fallback   bool
}

// Provider is the process-wide embedding service. It owns the selected model and
// its decorators and guarantees every returned vector has the selected dimension.
type Provider struct {
	embedder  Embedder
	selection Selection
	closers   []io.Closer
	logger    *zap.Logger
	factory   BackendFactory
}

// BackendFactory constructs a backend from its model configuration.
type BackendFactory func(ctx context.Context, m config.ModelConfig) (Embedder, error)

// ProviderOption configures NewProvider.
type ProviderOption func(*Provider)

// WithLogger sets the logger for model selection messages.
func WithLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l }
}

// WithBackendFactory replaces the backend constructor, mainly for tests.
func WithBackendFactory(f BackendFactory) ProviderOption {
	return func(p *Provider) { p.factory = f }
}

// NewBackend constructs the embedder named by m.Backend.
func NewBackend(ctx context.Context, m config.ModelConfig) (Embedder, error) {
	switch m.Backend {
	case BackendHash:
		return NewHashEmbedder(m.Name, m.Dimensions), nil
	case BackendONNX:
		e, err := NewONNXEmbedder(m.Name, m.ModelPath, m.Dimensions, m.MaxTokens)
		if err != nil {
			return nil, err
		}
		return e, nil
	case BackendOpenAI:
		e, err := NewOpenAIEmbedder(ctx, m.Name, m.BaseURL, m.APIKey)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", m.Backend)
	}
}

// NewProvider constructs the primary model and probes it with one embedding; if either
// step fails it logs a warning and does the same with the fallback. When both fail it
// returns an error wrapping ErrNoModel and both causes.
func NewProvider(ctx context.Context, cfg config.EmbeddingConfig, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{factory: NewBackend}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = utils.OrNop(p.logger)

	backend, dims, primaryErr := p.open(ctx, cfg.Primary)
	fallback := false
	if primaryErr != nil {
		p.logger.Warn("primary embedding model unavailable, trying fallback",
			zap.String("model", cfg.Primary.Name),
			zap.String("backend", cfg.Primary.Backend),
			zap.Error(primaryErr))
		var fallbackErr error
		backend, dims, fallbackErr = p.open(ctx, cfg.Fallback)
		if fallbackErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoModel, errors.Join(
				fmt.Errorf("primary %s: %w", cfg.Primary.Name, primaryErr),
				fmt.Errorf("fallback %s: %w", cfg.Fallback.Name, fallbackErr)))
		}
		fallback = true
	}
	model := cfg.Primary
	if fallback {
		model = cfg.Fallback
	}
	p.selection = Selection{ModelID: backend.ModelID(), Backend: model.Backend, Dimensions: dims, Fallback: fallback}

	p.embedder = backend
	if cfg.Workers > 1 {
		pooled, err := NewPooledEmbedder(p.embedder, cfg.Workers, cfg.BatchSize)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		p.embedder = pooled
	}
	var caches []Cache
	if cfg.CacheSize > 0 {
		caches = append(caches, NewEmbeddingCache(cfg.CacheSize))
	}
	if cfg.CachePath != "" {
		bc, err := OpenBadgerCache(cfg.CachePath, p.logger)
		if err != nil {
			// The persistent cache is an optimisation; run without it.
			p.logger.Warn("persistent embedding cache unavailable", zap.String("path", cfg.CachePath), zap.Error(err))
		} else {
			caches = append(caches, bc)
			p.closers = append(p.closers, bc)
		}
	}
	if len(caches) > 0 {
		p.embedder = NewCachedEmbedder(p.embedder, caches...)
	}

	p.logger.Info("embedding model selected",
		zap.String("model", p.selection.ModelID),
		zap.String("backend", p.selection.Backend),
		zap.Int("dimensions", p.selection.Dimensions),
		zap.Bool("fallback", p.selection.Fallback))
	return p, nil
}

// open constructs a backend and probes it, returning the observed dimension.
func (p *Provider) open(ctx context.Context, m config.ModelConfig) (Embedder, int, error) {
	if m.Backend == "" && m.Name == "" {
		return nil, 0, errors.New("model not configured")
	}
	e, err := p.factory(ctx, m)
	if err != nil {
		return nil, 0, err
	}
	v, err := e.Embed(ctx, "probe")
	if err != nil {
		_ = e.Close()
		return nil, 0, fmt.Errorf("probe: %w", err)
	}
	if len(v) == 0 {
		_ = e.Close()
		return nil, 0, errors.New("probe: model returned an empty vector")
	}
	if d := e.Dimensions(); d != 0 && d != len(v) {
		_ = e.Close()
		return nil, 0, fmt.Errorf("probe: %w: model reports %d, produced %d", ErrDimensionMismatch, d, len(v))
	}
	return e, len(v), nil
}

// Selected reports the chosen model.
func (p *Provider) Selected() Selection { return p.selection }

// Embed embeds text with the selected model.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := p.checkDims(v); err != nil {
		return nil, err
	}
	return v, nil
}

// EmbedBatch embeds texts with the selected model.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	for _, v := range vecs {
		if err := p.checkDims(v); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

func (p *Provider) checkDims(v []float32) error {
	if len(v) != p.selection.Dimensions {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), p.selection.Dimensions)
	}
	return nil
}

// Dimensions returns the selected model's dimension.
func (p *Provider) Dimensions() int { return p.selection.Dimensions }

// ModelID returns the selected model's identifier.
func (p *Provider) ModelID() string { return p.selection.ModelID }

// Close releases the model and any persistent caches.
func (p *Provider) Close() error {
	var errs []error
	if p.embedder != nil {
		errs = append(errs, p.embedder.Close())
	}
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
