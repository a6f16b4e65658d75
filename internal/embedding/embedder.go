// Package embedding turns text into fixed-dimension vectors. It offers several model
// backends, a provider that selects between a primary and a fallback model, and caching
// and pooling decorators.
package embedding

import (
	"context"
	"errors"
)

// Embedder produces vector embeddings for text. EmbedBatch has the same per-element
// result as calling Embed for each text; every vector has length Dimensions().
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelID() string
	Close() error
}

// Model backends.
const (
	BackendHash   = "hash"
	BackendONNX   = "onnx"
	BackendOpenAI = "openai"
)

var (
	// ErrNoModel is returned when neither the primary nor the fallback model can be constructed.
	ErrNoModel = errors.New("no embedding model available")
	// ErrDimensionMismatch is returned when a model produces a vector of unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
