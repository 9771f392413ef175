package embedding

import (
	"errors"
	"fmt"
)

// ONNXConfig describes a local ONNX sentence model.
type ONNXConfig struct {
	ModelPath string
	// VocabPath is the WordPiece vocab.txt. Empty falls back to SimpleTokenizer.
	VocabPath   string
	LibraryPath string
	// OutputName is the token-level output, shape [1, MaxTokens, Dimensions].
	OutputName string
	Dimensions int
	MaxTokens  int
}

func (c *ONNXConfig) validate() error {
	if c.ModelPath == "" {
		return errors.New("onnx model path is required")
	}
	if c.Dimensions <= 0 || c.MaxTokens <= 1 {
		return fmt.Errorf("invalid onnx shape: dimensions=%d max_tokens=%d", c.Dimensions, c.MaxTokens)
	}
	if c.OutputName == "" {
		c.OutputName = "last_hidden_state"
	}
	return nil
}

func (c *ONNXConfig) tokenizer() (Tokenizer, error) {
	if c.VocabPath == "" {
		return &SimpleTokenizer{}, nil
	}
	t, err := LoadWordPieceTokenizer(c.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return t, nil
}
