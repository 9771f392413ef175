package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/voxa/internal/metrics"
	"github.com/hyperjump/voxa/internal/vector"
	"github.com/hyperjump/voxa/pkg/utils"
)

// Loader constructs a backend. It may be slow (model load, network) and may fail.
type Loader func(ctx context.Context) (Embedder, error)

// Provider owns a lazily loaded embedding backend.
//
// The backend is loaded on first use; concurrent first callers wait for one load. A failed load
// is not remembered, so the next call tries again. Every returned vector is a fresh copy
// normalized to unit length, and all vectors share one dimension for the life of the process.
type Provider struct {
	backend string
	load    Loader
	logger  *zap.Logger

	mu      sync.Mutex
	current atomic.Pointer[loaded]
	dims    atomic.Int64
}

// loaded holds the backend once it is ready. Close swaps it out; callers that already
// hold it finish against the old backend.
type loaded struct {
	embedder Embedder
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = l
	}
}

// NewProvider returns a Provider that loads its backend with load on first use.
func NewProvider(backend string, load Loader, opts ...ProviderOption) *Provider {
	p := &Provider{backend: backend, load: load}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Backend returns the configured backend name.
func (p *Provider) Backend() string {
	return p.backend
}

// Ready reports whether the backend has been loaded.
func (p *Provider) Ready() bool {
	return p.current.Load() != nil
}

// WarmUp loads the backend without embedding anything.
func (p *Provider) WarmUp(ctx context.Context) error {
	_, err := p.get(ctx)
	return err
}

func (p *Provider) get(ctx context.Context) (Embedder, error) {
	if l := p.current.Load(); l != nil {
		return l.embedder, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if l := p.current.Load(); l != nil {
		return l.embedder, nil
	}

	start := time.Now()
	e, err := p.load(ctx)
	if err == nil && e == nil {
		err = errors.New("loader returned no embedder")
	}
	if err != nil {
		metrics.ModelInitTotal.WithLabelValues(p.backend, "error").Inc()
		p.logger.Warn("embedding model load failed", zap.String("backend", p.backend), zap.Error(err))
		return nil, fmt.Errorf("%w: load %s backend: %w", ErrModelUnavailable, p.backend, err)
	}

	metrics.ModelInitTotal.WithLabelValues(p.backend, "ok").Inc()
	p.logger.Info("embedding model loaded",
		zap.String("backend", p.backend),
		zap.Int("dimensions", e.Dimensions()),
		zap.Duration("took", time.Since(start)))
	p.current.Store(&loaded{embedder: e})
	return e, nil
}

// Embed returns the unit-length embedding of text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := p.get(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := e.Embed(ctx, text)
	metrics.EmbeddingRequestDuration.WithLabelValues(p.backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.backend, "error").Inc()
		return nil, p.wrap(ctx, err)
	}
	out, err := p.finish(raw)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.backend, "error").Inc()
		return nil, err
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(p.backend, "ok").Inc()
	return out, nil
}

// EmbedBatch embeds texts in order through the backend's batch path.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := p.get(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := e.EmbedBatch(ctx, texts)
	metrics.EmbeddingRequestDuration.WithLabelValues(p.backend).Observe(time.Since(start).Seconds())
	if err == nil && len(raw) != len(texts) {
		err = fmt.Errorf("backend returned %d vectors for %d texts", len(raw), len(texts))
	}
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.backend, "error").Inc()
		return nil, p.wrap(ctx, err)
	}

	out := make([][]float32, len(raw))
	for i, v := range raw {
		if out[i], err = p.finish(v); err != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues(p.backend, "error").Inc()
			return nil, err
		}
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(p.backend, "ok").Inc()
	return out, nil
}

// finish checks the dimension and returns a normalized copy of v.
// A length change is returned as a DimensionMismatchError, not wrapped in ErrModelUnavailable.
func (p *Provider) finish(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: %s backend returned an empty vector", ErrModelUnavailable, p.backend)
	}
	n := int64(len(v))
	if !p.dims.CompareAndSwap(0, n) {
		if want := p.dims.Load(); want != n {
			err := &vector.DimensionMismatchError{A: int(want), B: len(v)}
			p.logger.Error("embedding dimension changed", zap.String("backend", p.backend), zap.Error(err))
			return nil, fmt.Errorf("%s backend: %w", p.backend, err)
		}
	}
	return utils.NormalizedCopy(v), nil
}

func (p *Provider) wrap(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}
	return fmt.Errorf("%w: %s backend: %w", ErrModelUnavailable, p.backend, err)
}

// Dimensions returns the vector dimension, or 0 before the backend is loaded.
func (p *Provider) Dimensions() int {
	if d := p.dims.Load(); d > 0 {
		return int(d)
	}
	if l := p.current.Load(); l != nil {
		return l.embedder.Dimensions()
	}
	return 0
}

// Close releases the backend. A later call loads it again.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.current.Swap(nil)
	if l == nil {
		return nil
	}
	return l.embedder.Close()
}
