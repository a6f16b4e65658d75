package embedding

import (
	"context"
	"fmt"
)

// MockEmbedder returns deterministic vectors derived from the text for tests.
// EmbedFunc, when set, replaces the default computation for each text, which lets
// tests inject failures or hand-picked vectors.
type MockEmbedder struct {
	Dims      int
	ID        string
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
	Closed    bool
}

// NewMockEmbedder returns a mock embedder with the given dimension.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	return &MockEmbedder{Dims: dimensions, ID: fmt.Sprintf("mock-%d", dimensions)}
}

// Embed returns the injected result, or a deterministic vector from the text's bytes.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	v := make([]float32, m.Dims)
	for i := 0; i < m.Dims && i < len(text); i++ {
		v[i] = float32(text[i]) / 255.0
	}
	if len(text) == 0 && m.Dims > 0 {
		v[0] = 1
	}
	return v, nil
}

// EmbedBatch calls Embed for each text.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the configured dimension.
func (m *MockEmbedder) Dimensions() int { return m.Dims }

// ModelID returns the configured identifier.
func (m *MockEmbedder) ModelID() string { return m.ID }

// Close records that the embedder was closed.
func (m *MockEmbedder) Close() error {
	m.Closed = true
	return nil
}
