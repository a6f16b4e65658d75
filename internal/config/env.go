package config

import (
	"errors"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvCorpusDir        = "MEETKANT_CORPUS_DIR"
	EnvSnapshotPath     = "MEETKANT_SNAPSHOT_PATH"
	EnvEmbeddingBackend = "MEETKANT_EMBEDDING_BACKEND"
	EnvEmbeddingModel   = "MEETKANT_EMBEDDING_MODEL"
	EnvDebug            = "MEETKANT_DEBUG"
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
)

// LoadDotEnv loads variables from the given .env files (".env" when none are given)
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides cfg with values from lookup (normally os.LookupEnv).
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvCorpusDir); ok && v != "" {
		cfg.Corpus.Dir = v
	}
	if v, ok := lookup(EnvSnapshotPath); ok && v != "" {
		cfg.Index.SnapshotPath = v
	}
	if v, ok := lookup(EnvEmbeddingBackend); ok && v != "" {
		cfg.Embedding.Primary.Backend = v
	}
	if v, ok := lookup(EnvEmbeddingModel); ok && v != "" {
		cfg.Embedding.Primary.Name = v
		// The model path is derived from the name unless set explicitly.
		cfg.Embedding.Primary.ModelPath = ""
	}
	if v, ok := lookup(EnvDebug); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	key, hasKey := lookup(EnvOpenAIKey)
	baseURL, hasURL := lookup(EnvOpenAIBaseURL)
	for _, m := range []*ModelConfig{&cfg.Embedding.Primary, &cfg.Embedding.Fallback} {
		if m.Backend != "openai" {
			continue
		}
		if hasKey && m.APIKey == "" {
			m.APIKey = key
		}
		if hasURL && m.BaseURL == "" {
			m.BaseURL = baseURL
		}
	}
}
