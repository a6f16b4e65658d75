package retriever

import "go.uber.org/zap"

type options struct {
	logger       *zap.Logger
	snapshotPath string
	forceRebuild bool
	oversample   int
	indexType    string
	batchSize    int
}

func defaultOptions() options {
	return options{oversample: DefaultOversample, indexType: "memory"}
}

// DefaultOversample is how many candidates per requested result are fetched from the
// index before the language filter runs.
const DefaultOversample = 3

// Option configures a Retriever.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSnapshotPath sets where the index snapshot is loaded from and persisted to.
// An empty path disables persistence.
func WithSnapshotPath(path string) Option {
	return func(o *options) { o.snapshotPath = path }
}

// WithForceRebuild ignores any existing snapshot and rebuilds the index.
func WithForceRebuild() Option {
	return func(o *options) { o.forceRebuild = true }
}

// WithOversample sets the candidate oversampling factor (values below 1 are ignored).
func WithOversample(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.oversample = n
		}
	}
}

// WithIndexType selects the vector index implementation ("memory" or "faiss").
func WithIndexType(t string) Option {
	return func(o *options) { o.indexType = t }
}

// WithBatchSize sets the embedding batch size used while building the index.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}
