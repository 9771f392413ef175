package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_RankingSection(t *testing.T) {
	path := writeConfig(t, `
ranking:
  similarity_weight: 0.7
  min_relevance: 0.15
  concurrency: 3
  entity_weights:
    Business: 0.9
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	w := cfg.Ranking.Weights()
	if w.Similarity != 0.7 || w.MinRelevance != 0.15 {
		t.Errorf("unexpected weights: %+v", w)
	}
	if d := w.Tier - 0.3; d > 1e-9 || d < -1e-9 {
		t.Errorf("tier weight should be complement 0.3, got %v", w.Tier)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("weights should validate: %v", err)
	}
	if cfg.Ranking.Concurrency != 3 {
		t.Errorf("concurrency: got %d", cfg.Ranking.Concurrency)
	}
	if got := cfg.Ranking.EntityTable().WeightFor("Business"); got != 0.9 {
		t.Errorf("entity override: got %v", got)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/businesses.db"
embedding:
  vocab_path: "./models/vocab.txt"
watch:
  directories: ["./catalog"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "businesses.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if want := filepath.Join(dir, "models", "vocab.txt"); cfg.Embedding.VocabPath != want {
		t.Errorf("vocab_path = %s, want %s", cfg.Embedding.VocabPath, want)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "catalog") {
		t.Errorf("watch directories: got %v", cfg.Watch.Directories)
	}
}

func TestLoad_MemoryDatabaseUnchanged(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: ":memory:"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DatabasePath != ":memory:" {
		t.Errorf("database_path = %s, want :memory:", cfg.Storage.DatabasePath)
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "sk-test")
	path := writeConfig(t, `
embedding:
  backend: openai
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api key = %q, want from env", cfg.Embedding.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Embedding.Backend != "onnx" || cfg.Embedding.Dimensions != 384 || cfg.Embedding.MaxTokens != 256 {
		t.Errorf("default embedding: got %+v", cfg.Embedding)
	}
	if cfg.Embedding.OutputName != "last_hidden_state" {
		t.Errorf("default output name: got %s", cfg.Embedding.OutputName)
	}
	if cfg.Ranking.SimilarityWeight != 0.85 || cfg.Ranking.TierWeight != 0.15 {
		t.Errorf("default split: got %v/%v", cfg.Ranking.SimilarityWeight, cfg.Ranking.TierWeight)
	}
	if cfg.Ranking.MinRelevance != nil || cfg.Ranking.MinRelevanceOrDefault() != 0.25 {
		t.Errorf("default min relevance: got %v", cfg.Ranking.MinRelevanceOrDefault())
	}
	if got := cfg.Ranking.EntityTable().WeightFor(""); got != 0.6 {
		t.Errorf("default unknown entity weight: got %v", got)
	}
	if cfg.Ranking.Concurrency < 1 {
		t.Errorf("default concurrency: got %d", cfg.Ranking.Concurrency)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("default search: got %+v", cfg.Search)
	}
	if len(cfg.Watch.Extensions) != 4 || cfg.Watch.Extensions[0] != ".json" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if !cfg.Embedding.WarmUpOrDefault() {
		t.Error("warm up should default to true")
	}
}

func TestApplyDefaults_TierOnly(t *testing.T) {
	cfg := &Config{Ranking: RankingConfig{TierWeight: 0.3}}
	ApplyDefaults(cfg)
	if d := cfg.Ranking.SimilarityWeight - 0.7; d > 1e-9 || d < -1e-9 {
		t.Errorf("similarity should be complement 0.7, got %v", cfg.Ranking.SimilarityWeight)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/catalog"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
		Ranking: RankingConfig{SimilarityWeight: 0.8, TierWeight: 0.2},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Ranking.SimilarityWeight != 0.8 || loaded.Ranking.TierWeight != 0.2 {
		t.Errorf("loaded ranking: got %+v", loaded.Ranking)
	}
}

func TestLoad_RankingExplicitZero(t *testing.T) {
	path := writeConfig(t, `
ranking:
  min_relevance: 0
  unknown_entity_weight: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if w := cfg.Ranking.Weights(); w.MinRelevance != 0 {
		t.Errorf("min_relevance: 0 should be kept, got %v", w.MinRelevance)
	}
	table := cfg.Ranking.EntityTable()
	if got := table.WeightFor("Cooperative"); got != 0 {
		t.Errorf("unknown_entity_weight: 0 should be kept, got %v", got)
	}
	if got := table.WeightFor("Company"); got != 1.0 {
		t.Errorf("Company should keep default: got %v", got)
	}
}
