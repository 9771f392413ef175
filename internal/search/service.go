package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/voxa/internal/config"
	"github.com/hyperjump/voxa/internal/models"
	"github.com/hyperjump/voxa/internal/storage"
)

// Service searches the stored catalog: it loads a snapshot of visible businesses,
// ranks it with the Engine, and pages the result.
type Service struct {
	engine *Engine
	store  storage.Storage
	config *config.SearchConfig
	logger *zap.Logger
}

// NewService creates a catalog search service.
func NewService(engine *Engine, store storage.Storage, cfg *config.SearchConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, store: store, config: cfg, logger: logger}
}

// Search ranks the visible catalog (narrowed by industry and location) against query.Query.
func (s *Service) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(s.config.DefaultLimit, s.config.MaxLimit); err != nil {
		return nil, err
	}

	response := &models.SearchResponse{
		Results: []models.RankedResult{},
		Query:   query.Query,
	}
	if strings.TrimSpace(query.Query) == "" {
		response.QueryTime = time.Since(startTime).Milliseconds()
		return response, nil
	}

	candidates, err := s.store.ListBusinesses(ctx, storage.ListFilter{
		Industry:    query.Industry,
		Location:    query.Location,
		VisibleOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	ranked, err := s.engine.Search(ctx, query.Query, candidates)
	if err != nil {
		return nil, err
	}

	start := query.Offset
	end := query.Offset + query.Limit
	if start > len(ranked) {
		start = len(ranked)
	}
	if end > len(ranked) {
		end = len(ranked)
	}
	response.Results = ranked[start:end]
	response.Total = len(ranked)
	response.QueryTime = time.Since(startTime).Milliseconds()

	s.logger.Info("catalog search",
		zap.String("industry", query.Industry),
		zap.String("location", query.Location),
		zap.Int("candidates", len(candidates)),
		zap.Int("total", response.Total),
		zap.Int64("query_time_ms", response.QueryTime))
	return response, nil
}

// Engine returns the underlying ranking engine.
func (s *Service) Engine() *Engine {
	return s.engine
}
