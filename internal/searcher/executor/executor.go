// Package executor is the query entry point of the searcher. It holds the
// current index snapshot and runs boolean and vector queries against it.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/boolean"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/vector"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/tracing"
)

const (
	ModeBoolean = "boolean"
	ModeVector  = "vector"
)

// Hit is one returned document. Score is only meaningful for vector
// queries.
type Hit struct {
	DocID int     `json:"doc_id"`
	Name  string  `json:"name"`
	Score float64 `json:"score,omitempty"`
}

type SearchResult struct {
	Query      string   `json:"query"`
	Mode       string   `json:"mode"`
	Terms      []string `json:"terms"`
	TotalHits  int      `json:"total_hits"`
	Results    []Hit    `json:"results"`
	Generation uint64   `json:"generation"`
}

// Names returns the document names of the result in order.
func (r *SearchResult) Names() []string {
	names := make([]string, len(r.Results))
	for i, h := range r.Results {
		names[i] = h.Name
	}
	return names
}

// IndexStats describes the loaded snapshot.
type IndexStats struct {
	Loaded     bool      `json:"loaded"`
	Type       string    `json:"type,omitempty"`
	NumDocs    int       `json:"num_docs"`
	NumTerms   int       `json:"num_terms"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
}

// Loader produces index snapshots; every store.Store is one.
type Loader interface {
	Load(ctx context.Context) (*index.InvertedIndex, error)
}

type snapshot struct {
	idx        *index.InvertedIndex
	boolean    *boolean.Engine
	vector     *vector.Engine
	generation uint64
	loadedAt   time.Time
}

// Executor is safe for concurrent use. Queries run against whichever
// snapshot was current when they started.
type Executor struct {
	current    atomic.Pointer[snapshot]
	generation atomic.Uint64
	analyzer   *tokenizer.Analyzer
	qw         vector.QueryWeighting
	dw         vector.DocWeighting
	timeout    time.Duration
	tracing    bool
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithTracing logs a span tree for every query.
func WithTracing(enabled bool) Option {
	return func(e *Executor) { e.tracing = enabled }
}

func New(analyzer *tokenizer.Analyzer, cfg config.SearchConfig, opts ...Option) *Executor {
	e := &Executor{
		analyzer: analyzer,
		qw:       vector.ParseQueryWeighting(cfg.QueryWeighting),
		dw:       vector.ParseDocWeighting(cfg.DocWeighting),
		timeout:  cfg.QueryTimeout,
		logger:   logger.WithComponent("query-executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Swap installs idx as the current snapshot and returns its generation.
func (e *Executor) Swap(idx *index.InvertedIndex) uint64 {
	gen := e.generation.Add(1)
	e.current.Store(&snapshot{
		idx:        idx,
		boolean:    boolean.NewEngine(idx, e.analyzer),
		vector:     vector.NewEngine(idx, e.analyzer, e.qw, e.dw),
		generation: gen,
		loadedAt:   time.Now().UTC(),
	})
	if e.metrics != nil {
		e.metrics.IndexedDocs.Set(float64(idx.NumDocs()))
		e.metrics.IndexedTerms.Set(float64(idx.NumTerms()))
	}
	e.logger.Info("index snapshot installed",
		"generation", gen,
		"type", idx.Type.String(),
		"docs", idx.NumDocs(),
		"terms", idx.NumTerms(),
	)
	return gen
}

// Reload loads a fresh snapshot from l and swaps it in. On failure the
// previous snapshot stays current.
func (e *Executor) Reload(ctx context.Context, l Loader) (uint64, error) {
	done := logger.Timed(e.logger, "index reload")
	idx, err := l.Load(ctx)
	done()
	if err != nil {
		e.countReload("failed")
		return 0, fmt.Errorf("reloading index: %w", err)
	}
	e.countReload("success")
	return e.Swap(idx), nil
}

func (e *Executor) countReload(status string) {
	if e.metrics != nil {
		e.metrics.IndexReloadsTotal.WithLabelValues(status).Inc()
	}
}

// Ready reports whether an index is loaded.
func (e *Executor) Ready() bool {
	return e.current.Load() != nil
}

// Generation is the generation of the current snapshot, 0 before the first
// load.
func (e *Executor) Generation() uint64 {
	if s := e.current.Load(); s != nil {
		return s.generation
	}
	return 0
}

func (e *Executor) Stats() IndexStats {
	s := e.current.Load()
	if s == nil {
		return IndexStats{}
	}
	return IndexStats{
		Loaded:     true,
		Type:       s.idx.Type.String(),
		NumDocs:    s.idx.NumDocs(),
		NumTerms:   s.idx.NumTerms(),
		Generation: s.generation,
		LoadedAt:   s.loadedAt,
	}
}

func (e *Executor) currentSnapshot() (*snapshot, error) {
	s := e.current.Load()
	if s == nil {
		return nil, apperrors.ErrIndexNotLoaded
	}
	return s, nil
}

// RetrieveBoolean returns the documents matching a boolean query in
// ascending id order.
func (e *Executor) RetrieveBoolean(ctx context.Context, query string) (*SearchResult, error) {
	return e.run(ctx, ModeBoolean, query, func(ctx context.Context, s *snapshot) (*SearchResult, error) {
		_, span := tracing.StartChildSpan(ctx, "parse")
		postfix, err := s.boolean.Parse(query)
		span.SetAttr("tokens", len(postfix))
		span.End()
		if err != nil {
			return nil, err
		}

		_, span = tracing.StartChildSpan(ctx, "evaluate")
		ids, err := s.boolean.Eval(postfix)
		span.SetAttr("matches", len(ids))
		span.End()
		if err != nil {
			return nil, err
		}

		hits := make([]Hit, 0, len(ids))
		for _, id := range ids {
			name, _ := s.idx.DocName(id)
			hits = append(hits, Hit{DocID: id, Name: name})
		}
		return &SearchResult{
			Query:      query,
			Mode:       ModeBoolean,
			Terms:      termsOf(postfix),
			TotalHits:  len(ids),
			Results:    hits,
			Generation: s.generation,
		}, nil
	})
}

// RetrieveVector returns the n best documents for a free-text query. n <= 0
// returns every scored document.
func (e *Executor) RetrieveVector(ctx context.Context, query string, n int) (*SearchResult, error) {
	return e.run(ctx, ModeVector, query, func(ctx context.Context, s *snapshot) (*SearchResult, error) {
		_, span := tracing.StartChildSpan(ctx, "normalize")
		terms := s.vector.Lemmatize(query)
		span.SetAttr("terms", len(terms))
		span.End()

		_, span = tracing.StartChildSpan(ctx, "score")
		scores, err := s.vector.Score(terms)
		span.SetAttr("scored", len(scores))
		span.End()
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, span = tracing.StartChildSpan(ctx, "rank")
		ranked := ranker.Rank(scores, n)
		span.End()

		hits := make([]Hit, len(ranked))
		for i, d := range ranked {
			name, _ := s.idx.DocName(d.DocID)
			hits[i] = Hit{DocID: d.DocID, Name: name, Score: d.Score}
		}
		return &SearchResult{
			Query:      query,
			Mode:       ModeVector,
			Terms:      terms,
			TotalHits:  len(scores),
			Results:    hits,
			Generation: s.generation,
		}, nil
	})
}

type queryFunc func(ctx context.Context, s *snapshot) (*SearchResult, error)

// run wraps a query with the snapshot lookup, timeout, span tree, log line
// and metrics shared by both modes.
func (e *Executor) run(ctx context.Context, mode, query string, fn queryFunc) (*SearchResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("component", "query-executor", "mode", mode)

	s, err := e.currentSnapshot()
	if err != nil {
		e.observe(mode, "error", start, -1)
		return nil, err
	}

	var root *tracing.Span
	if e.tracing {
		ctx, root = tracing.StartSpan(ctx, mode+"-query", logger.RequestID(ctx))
		root.SetAttr("generation", s.generation)
	}

	var result *SearchResult
	err = resilience.WithTimeout(ctx, e.timeout, mode+" query", func(ctx context.Context) error {
		r, err := fn(ctx, s)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if root != nil {
		root.End()
		root.Log(log)
		if e.metrics != nil {
			for phase, d := range root.Phases() {
				e.metrics.QueryPhaseDuration.WithLabelValues(mode, phase).Observe(d.Seconds())
			}
		}
	}

	if err != nil {
		if apperrors.IsQueryError(err) || errors.Is(err, apperrors.ErrWrongIndexType) {
			e.observe(mode, "invalid", start, -1)
			log.Info("query rejected", "query", query, "error", err)
		} else {
			e.observe(mode, "error", start, -1)
			log.Error("query failed", "query", query, "error", err)
		}
		return nil, err
	}

	outcome := "ok"
	if len(result.Results) == 0 {
		outcome = "zero_result"
	}
	e.observe(mode, outcome, start, len(result.Results))
	log.Info("query executed",
		"query", query,
		"terms", result.Terms,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// observe records one query; returned < 0 skips the result-count histogram.
func (e *Executor) observe(mode, outcome string, start time.Time, returned int) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesTotal.WithLabelValues(mode, outcome).Inc()
	e.metrics.QueryLatency.WithLabelValues(mode, "bypass").Observe(time.Since(start).Seconds())
	if returned >= 0 {
		e.metrics.QueryResultsCount.WithLabelValues(mode).Observe(float64(returned))
	}
}

func termsOf(postfix []boolean.Token) []string {
	terms := make([]string, 0, len(postfix))
	for _, t := range postfix {
		if t.Kind == boolean.KindTerm {
			terms = append(terms, t.Term)
		}
	}
	return terms
}
