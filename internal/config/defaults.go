package config

import "path/filepath"

// Default model identifiers.
const (
	DefaultPrimaryModel  = "paraphrase-multilingual-MiniLM-L12-v2"
	DefaultFallbackModel = "all-MiniLM-L6-v2"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Corpus.Dir == "" {
		cfg.Corpus.Dir = "./resource/kant/texts"
	}
	if len(cfg.Corpus.Extensions) == 0 {
		cfg.Corpus.Extensions = []string{".jsonl"}
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Index.SnapshotPath == "" {
		cfg.Index.SnapshotPath = "./resource/kant/vector_store.index"
	}

	if cfg.Embedding.Primary.Backend == "" && cfg.Embedding.Primary.Name == "" {
		cfg.Embedding.Primary = ModelConfig{Backend: "onnx", Name: DefaultPrimaryModel}
	}
	if cfg.Embedding.Fallback.Backend == "" && cfg.Embedding.Fallback.Name == "" {
		cfg.Embedding.Fallback = ModelConfig{Backend: "hash", Name: DefaultFallbackModel}
	}
	applyModelDefaults(&cfg.Embedding.Primary)
	applyModelDefaults(&cfg.Embedding.Fallback)
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.Workers == 0 {
		cfg.Embedding.Workers = 4
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}

	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 5
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 100
	}
	if cfg.Retrieval.Oversample == 0 {
		cfg.Retrieval.Oversample = 3
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 500
	}
}

func applyModelDefaults(m *ModelConfig) {
	if m.Backend == "" {
		m.Backend = "onnx"
	}
	switch m.Backend {
	case "onnx":
		if m.ModelPath == "" && m.Name != "" {
			m.ModelPath = filepath.Join(".", "resource", "models", m.Name+".onnx")
		}
		if m.MaxTokens == 0 {
			m.MaxTokens = 256
		}
		if m.Dimensions == 0 {
			m.Dimensions = 384
		}
	case "hash":
		if m.Dimensions == 0 {
			m.Dimensions = 384
		}
	}
}
