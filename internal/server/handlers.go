package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/voxa/internal/catalog"
	"github.com/hyperjump/voxa/internal/embedding"
	"github.com/hyperjump/voxa/internal/models"
	"github.com/hyperjump/voxa/internal/storage"
)

// unavailableMessage is shown while the embedding model cannot serve searches.
const unavailableMessage = "search is initializing, try again shortly"

const retryAfterSeconds = "5"

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.search.Search(r.Context(), &query)
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, response)
	case errors.Is(err, models.ErrInvalidQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, embedding.ErrModelUnavailable):
		s.logger.Warn("search unavailable", zap.Error(err))
		w.Header().Set("Retry-After", retryAfterSeconds)
		s.respondError(w, http.StatusServiceUnavailable, unavailableMessage)
	default:
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

type listBusinessesResponse struct {
	Businesses []models.Business `json:"businesses"`
	Total      int64             `json:"total"`
}

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.ListFilter{
		Industry:    strings.TrimSpace(q.Get("industry")),
		Location:    strings.TrimSpace(q.Get("location")),
		VisibleOnly: q.Get("all") != "true",
	}
	var err error
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil || filter.Offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	if filter.Limit, err = intParam(q.Get("limit"), s.config.Search.DefaultLimit); err != nil || filter.Limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if maxLimit := s.config.Search.MaxLimit; maxLimit > 0 && (filter.Limit == 0 || filter.Limit > maxLimit) {
		filter.Limit = maxLimit
	}

	businesses, err := s.storage.ListBusinesses(r.Context(), filter)
	if err != nil {
		s.logger.Error("list businesses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountBusinesses(r.Context(), filter)
	if err != nil {
		s.logger.Error("count businesses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, listBusinessesResponse{Businesses: businesses, Total: total})
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (*models.BusinessInput, bool) {
	var input models.BusinessInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if strings.TrimSpace(input.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return nil, false
	}
	return &input, true
}

func (s *Server) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	b := catalog.NewRecord(input)
	if _, err := s.storage.GetBusiness(r.Context(), b.ID); err == nil {
		s.respondError(w, http.StatusConflict, "business already exists")
		return
	}
	s.logger.Debug("create business request", zap.String("id", b.ID), zap.String("name", b.Name))
	if err := s.storage.CreateBusiness(r.Context(), b); err != nil {
		s.logger.Error("create business failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := s.storage.GetBusiness(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStorageError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	existing, err := s.storage.GetBusiness(r.Context(), id)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}
	b := input.ToBusiness()
	b.ID = id
	b.Source = existing.Source
	b.CreatedAt = existing.CreatedAt
	s.logger.Debug("update business request", zap.String("id", id))
	if err := s.storage.UpdateBusiness(r.Context(), b); err != nil {
		s.respondStorageError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete business request", zap.String("id", id))
	if err := s.storage.DeleteBusiness(r.Context(), id); err != nil {
		s.respondStorageError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	industries, err := s.storage.ListIndustries(r.Context())
	if err != nil {
		s.respondStorageError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"industries": industries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := s.storage.CountBusinesses(ctx, storage.ListFilter{})
	if err != nil {
		s.logger.Error("status: count businesses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	visible, err := s.storage.CountBusinesses(ctx, storage.ListFilter{VisibleOnly: true})
	if err != nil {
		s.logger.Error("status: count visible businesses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	industries, err := s.storage.ListIndustries(ctx)
	if err != nil {
		s.logger.Error("status: list industries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	weights := s.search.Engine().Weights()
	status := models.Status{
		Businesses:        total,
		VisibleBusinesses: visible,
		Industries:        industries,
		Model: models.ModelStatus{
			Backend:    s.model.Backend(),
			Ready:      s.model.Ready(),
			Dimensions: s.model.Dimensions(),
		},
		Ranking: models.RankingInfo{
			SimilarityWeight: weights.Similarity,
			TierWeight:       weights.Tier,
			MinRelevance:     weights.MinRelevance,
		},
		DatabasePath: s.config.Storage.DatabasePath,
	}
	if n, err := storage.DatabaseSize(s.config.Storage.DatabasePath); err == nil {
		status.DiskUsageBytes = n
	}
	if s.watch != nil {
		status.WatchDirectories = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "business not found")
		return
	}
	s.logger.Error("storage error", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
