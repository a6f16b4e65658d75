package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings API. The vector dimension is
// learned from a probe request at construction.
type OpenAIEmbedder struct {
	modelID    string
	embedder   embeddings.Embedder
	dimensions int
}

// NewOpenAIEmbedder creates a client for model at baseURL (empty for the public API).
// Local OpenAI-compatible services often need no key; "none" is sent in that case.
func NewOpenAIEmbedder(ctx context.Context, model, baseURL, apiKey string) (*OpenAIEmbedder, error) {
	if model == "" {
		return nil, errors.New("openai embedder: model name is required")
	}
	if apiKey == "" {
		apiKey = "none"
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}

	e := &OpenAIEmbedder{modelID: model, embedder: emb}
	probe, err := e.Embed(ctx, "dimension probe")
	if err != nil {
		return nil, err
	}
	e.dimensions = len(probe)
	return e, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one request (langchaingo splits large inputs itself).
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings %s: %w", e.modelID, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("openai embeddings %s: got %d vectors for %d texts", e.modelID, len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the probed vector dimension.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// ModelID returns the model name.
func (e *OpenAIEmbedder) ModelID() string { return e.modelID }

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (e *OpenAIEmbedder) Close() error { return nil }
