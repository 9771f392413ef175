package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible embeddings endpoint.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

// OpenAIEmbedder embeds text through an OpenAI-compatible /embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAIEmbedder creates an embedder for cfg. No request is made until the first Embed.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		return nil, errors.New("openai embedding model is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("invalid openai dimensions: %d", cfg.Dimensions)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed returns the embedding for text. Empty text yields a zero vector without a request.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds all non-empty texts in one request. Empty entries get zero vectors;
// whitespace-only text is sent like any other.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var input []string
	var positions []int
	for i, text := range texts {
		if text == "" {
			out[i] = make([]float32, e.dimensions)
			continue
		}
		input = append(input, text)
		positions = append(positions, i)
	}
	if len(input) == 0 {
		return out, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     e.dimensions,
	})
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", len(resp.Data), len(input))
	}
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(positions) {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		out[positions[d.Index]] = d.Embedding
	}
	return out, nil
}

// Dimensions returns the requested embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding API error %d: %w", reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("embedding request failed: %w", err)
}
