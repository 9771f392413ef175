package config

import (
	"runtime"

	"github.com/hyperjump/voxa/internal/ranking"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/voxa/data/db/businesses.db"
	}
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/voxa/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "last_hidden_state"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	// If only one side of the split is set, the other is its complement.
	switch {
	case cfg.Ranking.SimilarityWeight == 0 && cfg.Ranking.TierWeight == 0:
		cfg.Ranking.SimilarityWeight = ranking.DefaultSimilarityWeight
		cfg.Ranking.TierWeight = ranking.DefaultTierWeight
	case cfg.Ranking.TierWeight == 0:
		cfg.Ranking.TierWeight = 1 - cfg.Ranking.SimilarityWeight
	case cfg.Ranking.SimilarityWeight == 0:
		cfg.Ranking.SimilarityWeight = 1 - cfg.Ranking.TierWeight
	}
	if cfg.Ranking.Concurrency <= 0 {
		cfg.Ranking.Concurrency = runtime.NumCPU()
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".yaml", ".yml", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// Weights returns the blend policy described by the ranking section.
func (r *RankingConfig) Weights() *ranking.Weights {
	return &ranking.Weights{
		Similarity:   r.SimilarityWeight,
		Tier:         r.TierWeight,
		MinRelevance: r.MinRelevanceOrDefault(),
	}
}

// EntityTable returns the entity weight table described by the ranking section.
func (r *RankingConfig) EntityTable() *ranking.EntityTable {
	return ranking.NewEntityTable(r.EntityWeights, r.UnknownEntityWeightOrDefault())
}
