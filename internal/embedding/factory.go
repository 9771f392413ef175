package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/voxa/internal/config"
)

// NewLoader returns a Loader for the configured backend.
func NewLoader(cfg *config.EmbeddingConfig) (Loader, error) {
	switch cfg.Backend {
	case "onnx":
		onnxCfg := ONNXConfig{
			ModelPath:   cfg.ModelPath,
			VocabPath:   cfg.VocabPath,
			LibraryPath: cfg.LibraryPath,
			OutputName:  cfg.OutputName,
			Dimensions:  cfg.Dimensions,
			MaxTokens:   cfg.MaxTokens,
		}
		return func(context.Context) (Embedder, error) {
			return NewONNXEmbedder(onnxCfg)
		}, nil
	case "openai":
		openaiCfg := OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}
		return func(context.Context) (Embedder, error) {
			return NewOpenAIEmbedder(openaiCfg)
		}, nil
	case "mock":
		dims := cfg.Dimensions
		return func(context.Context) (Embedder, error) {
			return NewMockEmbedder(dims), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// NewProviderFromConfig builds a lazily loading Provider for cfg.
func NewProviderFromConfig(cfg *config.EmbeddingConfig, logger *zap.Logger) (*Provider, error) {
	load, err := NewLoader(cfg)
	if err != nil {
		return nil, err
	}
	return NewProvider(cfg.Backend, load, WithLogger(logger)), nil
}
