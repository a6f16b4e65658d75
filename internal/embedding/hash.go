package embedding

import (
	"context"
	"hash/fnv"

	"github.com/hyperjump/meetkant/pkg/utils"
)

const bigramWeight = 0.5

// HashEmbedder is a pure-Go feature-hashing embedder. Content terms and adjacent term
// pairs are hashed into a fixed number of buckets and the result is L2-normalised.
// It needs no model files, so it always constructs, and it is deterministic.
type HashEmbedder struct {
	modelID    string
	dimensions int
}

// NewHashEmbedder returns a HashEmbedder producing vectors of the given dimension.
func NewHashEmbedder(modelID string, dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{modelID: modelID, dimensions: dimensions}
}

// Embed returns the hashed feature vector for text. Text without content terms
// yields the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dimensions)
	terms := Terms(text)
	for i, term := range terms {
		vec[e.bucket(term)] += 1
		if i > 0 {
			vec[e.bucket(terms[i-1]+" "+term)] += bigramWeight
		}
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *HashEmbedder) bucket(feature string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	return int(h.Sum64() % uint64(e.dimensions))
}

// Dimensions returns the vector dimension.
func (e *HashEmbedder) Dimensions() int { return e.dimensions }

// ModelID returns the configured model identifier.
func (e *HashEmbedder) ModelID() string { return e.modelID }

// Close is a no-op.
func (e *HashEmbedder) Close() error { return nil }
