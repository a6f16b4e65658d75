// Package config provides configuration loading and structs for meetkant.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Watch     WatchConfig     `yaml:"watch"`
}

// CorpusConfig locates the passage files.
type CorpusConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
}

// IndexConfig selects the vector index implementation and its snapshot file.
type IndexConfig struct {
	Type         string `yaml:"type"`
	SnapshotPath string `yaml:"snapshot_path"`
}

// EmbeddingConfig holds the primary and fallback models plus batching and cache settings.
type EmbeddingConfig struct {
	Primary   ModelConfig `yaml:"primary"`
	Fallback  ModelConfig `yaml:"fallback"`
	BatchSize int         `yaml:"batch_size"`
	Workers   int         `yaml:"workers"`
	CacheSize int         `yaml:"cache_size"`
	// CachePath enables the persistent embedding cache when set.
	CachePath string `yaml:"cache_path"`
}

// ModelConfig describes one embedding model. Backend is one of "onnx", "openai" or "hash".
type ModelConfig struct {
	Backend    string `yaml:"backend"`
	Name       string `yaml:"name"`
	ModelPath  string `yaml:"model_path,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
	MaxTokens  int    `yaml:"max_tokens,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// RetrievalConfig holds top-k bounds and the language-filter oversampling factor.
type RetrievalConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
	Oversample  int `yaml:"oversample"`
}

// WatchConfig holds corpus watch settings for the interactive shell.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Debounce returns the debounce interval as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Load reads and parses the config file at path, resolves relative paths against the
// config directory, applies environment overrides and fills defaults. A missing file is
// not an error: defaults and environment are used.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
			configDir := filepath.Dir(path)
			cfg.Corpus.Dir = expandPath(cfg.Corpus.Dir, configDir)
			cfg.Index.SnapshotPath = expandPath(cfg.Index.SnapshotPath, configDir)
			cfg.Embedding.CachePath = expandPath(cfg.Embedding.CachePath, configDir)
			cfg.Embedding.Primary.ModelPath = expandPath(cfg.Embedding.Primary.ModelPath, configDir)
			cfg.Embedding.Fallback.ModelPath = expandPath(cfg.Embedding.Fallback.ModelPath, configDir)
		}
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a relative path to one rooted at configDir. "~/" expands to the
// home directory; empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
