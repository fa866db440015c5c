// Package handler exposes the searcher over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/middleware"
)

// Searcher is the part of *executor.Executor the handler needs.
type Searcher interface {
	RetrieveBoolean(ctx context.Context, query string) (*executor.SearchResult, error)
	RetrieveVector(ctx context.Context, query string, n int) (*executor.SearchResult, error)
	Reload(ctx context.Context, l executor.Loader) (uint64, error)
	Stats() executor.IndexStats
	Generation() uint64
}

type Handler struct {
	searcher     Searcher
	loader       executor.Loader
	cache        *cache.QueryCache
	analytics    *analytics.Aggregator
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

type Option func(*Handler)

// WithAnalytics reports every search to agg and serves its totals.
func WithAnalytics(agg *analytics.Aggregator) Option {
	return func(h *Handler) { h.analytics = agg }
}

// New builds a Handler. queryCache may be nil when caching is disabled.
func New(searcher Searcher, loader executor.Loader, queryCache *cache.QueryCache, defaultLimit, maxResults int, opts ...Option) *Handler {
	h := &Handler{
		searcher:     searcher,
		loader:       loader,
		cache:        queryCache,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       logger.WithComponent("search-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search/boolean", h.SearchBoolean)
		r.Get("/search/vector", h.SearchVector)
		r.Get("/index/stats", h.IndexStats)
		r.Post("/index/reload", h.Reload)
		r.Get("/cache/stats", h.CacheStats)
		r.Post("/cache/invalidate", h.CacheInvalidate)
		if h.analytics != nil {
			r.Get("/analytics", analytics.NewHandler(h.analytics).Stats)
		}
	})
}

func (h *Handler) SearchBoolean(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	h.search(w, r, executor.ModeBoolean, query, 0, func(ctx context.Context) (*executor.SearchResult, error) {
		return h.searcher.RetrieveBoolean(ctx, query)
	})
}

func (h *Handler) SearchVector(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	limit, err := h.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.search(w, r, executor.ModeVector, query, limit, func(ctx context.Context) (*executor.SearchResult, error) {
		return h.searcher.RetrieveVector(ctx, query, limit)
	})
}

func (h *Handler) parseLimit(raw string) (int, error) {
	if raw == "" {
		return h.defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
	}
	if h.maxResults > 0 && n > h.maxResults {
		n = h.maxResults
	}
	return n, nil
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, mode, query string, limit int, run func(ctx context.Context) (*executor.SearchResult, error)) {
	ctx := r.Context()
	start := time.Now()
	var (
		result   *executor.SearchResult
		cacheHit bool
		err      error
	)
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, mode, query, limit, h.searcher.Generation(), func() (*executor.SearchResult, error) {
			return run(ctx)
		})
	} else {
		result, err = run(ctx)
	}
	h.track(r, mode, query, start, result, cacheHit, err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) track(r *http.Request, mode, query string, start time.Time, result *executor.SearchResult, cacheHit bool, err error) {
	if h.analytics == nil {
		return
	}
	event := analytics.QueryEvent{
		Mode:      mode,
		Query:     query,
		Latency:   time.Since(start).Microseconds(),
		CacheHit:  cacheHit,
		Failed:    err != nil,
		Timestamp: start,
		RequestID: middleware.GetRequestID(r),
	}
	if result != nil {
		event.Terms = result.Terms
		event.TotalHits = result.TotalHits
		event.Returned = len(result.Results)
	}
	h.analytics.Track(event)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.searcher.Stats())
}

// Reload swaps in the stored index and drops every cached result.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	gen, err := h.searcher.Reload(r.Context(), h.loader)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.invalidate(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "reloaded",
		"generation": gen,
	})
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if _, err := h.cache.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Warn("cache invalidation after reload failed", "error", err)
	}
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	st := h.cache.Stats()
	total := st.Hits + st.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(st.Hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     st.Hits,
		"misses":   st.Misses,
		"errors":   st.Errors,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
		"breaker":  st.Breaker,
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to a status code. Server-side failures are logged and
// their details withheld from the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
