// Package config provides configuration loading and structs for the Voxa server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/voxa/internal/ranking"
)

// APIKeyEnv supplies embedding.api_key when the file leaves it empty.
const APIKeyEnv = "VOXA_EMBEDDING_API_KEY"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Search    SearchConfig    `yaml:"search"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the business catalog database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Backend is "onnx", "openai" or "mock".
	Backend     string `yaml:"backend"`
	ModelPath   string `yaml:"model_path"`
	VocabPath   string `yaml:"vocab_path"`
	LibraryPath string `yaml:"library_path"`
	OutputName  string `yaml:"output_name"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
	// OpenAI-compatible backend.
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	// WarmUp loads the model in the background at server start.
	WarmUp *bool `yaml:"warm_up"`
}

// WarmUpOrDefault returns whether to warm the model at startup; defaults to true when unset.
func (e *EmbeddingConfig) WarmUpOrDefault() bool {
	if e.WarmUp != nil {
		return *e.WarmUp
	}
	return true
}

// RankingConfig holds the blend policy and engine concurrency.
type RankingConfig struct {
	SimilarityWeight float64 `yaml:"similarity_weight"`
	TierWeight       float64 `yaml:"tier_weight"`
	// MinRelevance is the raw-similarity floor. Unset means default; -1 admits every candidate.
	MinRelevance        *float64           `yaml:"min_relevance"`
	Concurrency         int                `yaml:"concurrency"`
	EntityWeights       map[string]float64 `yaml:"entity_weights"`
	UnknownEntityWeight *float64           `yaml:"unknown_entity_weight"`
}

// MinRelevanceOrDefault returns the similarity floor; defaults to ranking.DefaultMinRelevance when unset.
func (r *RankingConfig) MinRelevanceOrDefault() float64 {
	if r.MinRelevance != nil {
		return *r.MinRelevance
	}
	return ranking.DefaultMinRelevance
}

// UnknownEntityWeightOrDefault returns the weight of unrecognized categories;
// defaults to ranking.DefaultUnknownEntityWeight when unset.
func (r *RankingConfig) UnknownEntityWeightOrDefault() float64 {
	if r.UnknownEntityWeight != nil {
		return *r.UnknownEntityWeight
	}
	return ranking.DefaultUnknownEntityWeight
}

// SearchConfig holds catalog search paging settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// WatchConfig holds catalog directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv(APIKeyEnv)
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if cfg.Embedding.VocabPath != "" {
		cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)
	}
	if cfg.Embedding.LibraryPath != "" {
		cfg.Embedding.LibraryPath = expandPath(cfg.Embedding.LibraryPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
