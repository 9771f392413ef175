// Package search ranks business catalogs against free-text queries.
package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/voxa/internal/embedding"
	"github.com/hyperjump/voxa/internal/metrics"
	"github.com/hyperjump/voxa/internal/models"
	"github.com/hyperjump/voxa/internal/ranking"
	"github.com/hyperjump/voxa/internal/vector"
)

// Engine scores candidates by semantic similarity to a query, blended with an entity tier weight.
//
// Each Search embeds the query once and every candidate profile on a bounded worker pool.
// Nothing is cached between calls.
type Engine struct {
	embedder    embedding.Embedder
	weights     ranking.Weights
	entities    *ranking.EntityTable
	concurrency int
	pool        *ants.Pool
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEntityTable sets the tier table. Defaults to ranking.DefaultEntityTable.
func WithEntityTable(t *ranking.EntityTable) Option {
	return func(e *Engine) {
		e.entities = t
	}
}

// WithConcurrency bounds in-flight candidate embeddings. n <= 0 means runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithLogger sets the logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine returns an Engine. weights nil means ranking.DefaultWeights.
// Call Release when done to stop the worker pool.
func NewEngine(embedder embedding.Embedder, weights *ranking.Weights, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if weights == nil {
		weights = ranking.DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking weights: %w", err)
	}

	e := &Engine{embedder: embedder, weights: *weights}
	for _, opt := range opts {
		opt(e)
	}
	if e.entities == nil {
		e.entities = ranking.DefaultEntityTable()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.concurrency <= 0 {
		e.concurrency = runtime.NumCPU()
	}

	pool, err := ants.NewPool(e.concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding pool: %w", err)
	}
	e.pool = pool
	return e, nil
}

// Release stops the worker pool. The Engine must not be used afterwards.
func (e *Engine) Release() {
	e.pool.Release()
}

// Weights returns a copy of the blend policy.
func (e *Engine) Weights() ranking.Weights {
	return e.weights
}

// Search returns the candidates relevant to query, best first.
//
// A blank query or an empty candidate list yields an empty result without embedding anything.
// Candidates whose raw similarity is below the relevance floor are dropped regardless of tier.
// Any embedding failure fails the whole call; there are no partial results.
// candidates is read only; each result holds its own copy of the record.
func (e *Engine) Search(ctx context.Context, query string, candidates []models.Business) ([]models.RankedResult, error) {
	start := time.Now()
	if strings.TrimSpace(query) == "" || len(candidates) == 0 {
		metrics.SearchRequestsTotal.WithLabelValues("empty").Inc()
		return []models.RankedResult{}, nil
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.recordFailure(err)
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectors, err := e.embedCandidates(ctx, candidates)
	if err != nil {
		e.recordFailure(err)
		return nil, err
	}

	results := make([]models.RankedResult, 0, len(candidates))
	for i := range candidates {
		similarity := vector.CosineSimilarity(queryVec, vectors[i])
		if !e.weights.Relevant(similarity) {
			continue
		}
		b := candidates[i].Clone()
		results = append(results, models.RankedResult{
			Business:        b,
			SimilarityScore: similarity,
			BlendedScore:    e.weights.Blend(similarity, e.entities.WeightFor(b.EntityCategory)),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].BlendedScore > results[j].BlendedScore
	})

	took := time.Since(start)
	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.SearchDuration.Observe(took.Seconds())
	metrics.SearchCandidates.Observe(float64(len(candidates)))
	metrics.SearchResults.Observe(float64(len(results)))
	e.logger.Debug("search complete",
		zap.Int("query_len", len(query)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Duration("took", took))
	return results, nil
}

// embedCandidates embeds every candidate profile on the pool. The first error cancels the rest.
func (e *Engine) embedCandidates(ctx context.Context, candidates []models.Business) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(candidates))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := range candidates {
		i := i // per-iteration copy; the task runs after the loop advances
		text := ranking.ProfileText(&candidates[i])
		id := candidates[i].ID
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			v, err := e.embedder.Embed(ctx, text)
			if err != nil {
				fail(fmt.Errorf("embed candidate %q: %w", id, err))
				return
			}
			vectors[i] = v
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit embedding task: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Engine) recordFailure(err error) {
	status := "error"
	if errors.Is(err, embedding.ErrModelUnavailable) {
		status = "unavailable"
	}
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	e.logger.Warn("search failed", zap.String("status", status), zap.Error(err))
}
