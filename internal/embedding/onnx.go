//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/voxa/pkg/utils"
)

// runtimeMu guards the process-wide onnxruntime environment.
var runtimeMu sync.Mutex

func initRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	return ort.InitializeEnvironment()
}

// ONNXEmbedder runs a BERT-style sentence model (e.g. all-MiniLM-L6-v2) with ONNX Runtime and
// mean-pools token states into one unit vector. It requires CGO and the onnxruntime shared library.
//
// The session runs on pre-bound input and output tensors, so it is not reentrant: Embed calls
// are serialized behind mu.
type ONNXEmbedder struct {
	session   *ort.AdvancedSession
	tokenizer Tokenizer
	dims      int
	maxTokens int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	hiddenState   *ort.Tensor[float32]
	mu            sync.Mutex
}

// NewONNXEmbedder loads the model and tokenizer described by cfg.
func NewONNXEmbedder(cfg ONNXConfig) (*ONNXEmbedder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	tokenizer, err := cfg.tokenizer()
	if err != nil {
		return nil, err
	}
	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	e := &ONNXEmbedder{tokenizer: tokenizer, dims: cfg.Dimensions, maxTokens: cfg.MaxTokens}
	inputShape := ort.NewShape(1, int64(cfg.MaxTokens))
	if e.inputIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if e.attentionMask, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if e.tokenTypeIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	outputShape := ort.NewShape(1, int64(cfg.MaxTokens), int64(cfg.Dimensions))
	if e.hiddenState, err = ort.NewEmptyTensor[float32](outputShape); err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{e.inputIDs, e.attentionMask, e.tokenTypeIDs},
		[]ort.ArbitraryTensor{e.hiddenState},
		nil,
	)
	if err != nil {
		e.destroyTensors()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	e.session = session
	return e, nil
}

// Embed returns the mean-pooled, L2-normalized embedding of text.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("ONNX embedder is closed")
	}

	copy(e.inputIDs.GetData(), ids)
	copy(e.attentionMask.GetData(), mask)
	copy(e.tokenTypeIDs.GetData(), types)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	embedding := MeanPool(e.hiddenState.GetData(), mask, e.dims)
	utils.NormalizeL2(embedding)
	return embedding, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dims
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	e.destroyTensors()
	return err
}

func (e *ONNXEmbedder) destroyTensors() {
	if e.inputIDs != nil {
		_ = e.inputIDs.Destroy()
		e.inputIDs = nil
	}
	if e.attentionMask != nil {
		_ = e.attentionMask.Destroy()
		e.attentionMask = nil
	}
	if e.tokenTypeIDs != nil {
		_ = e.tokenTypeIDs.Destroy()
		e.tokenTypeIDs = nil
	}
	if e.hiddenState != nil {
		_ = e.hiddenState.Destroy()
		e.hiddenState = nil
	}
}
