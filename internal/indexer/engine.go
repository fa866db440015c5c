// Package indexer runs the offline half of the engine: it loads the corpus,
// builds one inverted index, saves it to the configured store and
// announces the new snapshot to searchers.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/resilience"
)

// Engine owns one build pipeline. It is not meant to run two builds at
// once.
type Engine struct {
	cfg       config.IndexerConfig
	analyzer  *tokenizer.Analyzer
	store     store.Store
	publisher kafka.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher announces every saved index through p.
func WithPublisher(p kafka.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics records build metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithAnalyzer overrides the analyzer derived from the configuration.
func WithAnalyzer(a *tokenizer.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

func NewEngine(cfg config.IndexerConfig, st store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		store:  st,
		logger: logger.WithComponent("indexer"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.analyzer == nil {
		a, err := tokenizer.FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating analyzer: %w", err)
		}
		e.analyzer = a
	}
	return e, nil
}

// Analyzer returns the normalizer the index is built with.
func (e *Engine) Analyzer() *tokenizer.Analyzer {
	return e.analyzer
}

// Run loads the configured corpus and hands it to Build.
func (e *Engine) Run(ctx context.Context) (*index.InvertedIndex, error) {
	opts := corpus.Options{}
	if e.cfg.DevMode {
		opts.PerCollectionLimit = e.cfg.DevLimit
	}
	done := logger.Timed(e.logger, "corpus load", "dir", e.cfg.CorpusDir, "dev_mode", e.cfg.DevMode)
	docs, err := corpus.LoadDir(e.cfg.CorpusDir, opts)
	done()
	if err != nil {
		e.recordBuild("failed", 0)
		return nil, err
	}
	return e.Build(ctx, docs)
}

// Build indexes docs with the configured index type, saves the result and
// publishes an IndexComplete event. A failed publish is logged but does
// not fail the build since the snapshot is already durable.
func (e *Engine) Build(ctx context.Context, docs []index.Document) (*index.InvertedIndex, error) {
	start := e.now()
	typ, err := index.ParsePostingType(e.cfg.IndexType)
	if err != nil {
		e.recordBuild("failed", 0)
		return nil, err
	}

	done := logger.Timed(e.logger, "index build", "docs", len(docs), "type", typ.String())
	idx, err := index.Build(ctx, docs, e.analyzer, typ, index.WithWorkers(e.cfg.Workers))
	done()
	if err != nil {
		e.recordBuild("failed", 0)
		return nil, fmt.Errorf("building index: %w", err)
	}

	done = logger.Timed(e.logger, "index save", "backend", e.store.Backend())
	err = e.store.Save(ctx, idx)
	done()
	if err != nil {
		e.recordBuild("failed", 0)
		return nil, fmt.Errorf("saving index to %s store: %w", e.store.Backend(), err)
	}

	elapsed := e.now().Sub(start)
	e.recordBuild("success", elapsed)
	if e.metrics != nil {
		e.metrics.IndexedDocs.Set(float64(idx.NumDocs()))
		e.metrics.IndexedTerms.Set(float64(idx.NumTerms()))
	}
	e.logger.Info("index built",
		"type", typ.String(),
		"docs", idx.NumDocs(),
		"terms", idx.NumTerms(),
		"backend", e.store.Backend(),
		"duration_ms", elapsed.Milliseconds(),
	)

	if err := e.publish(ctx, idx); err != nil {
		e.logger.Warn("index saved but not announced", "error", err)
	}
	return idx, nil
}

func (e *Engine) publish(ctx context.Context, idx *index.InvertedIndex) error {
	if e.publisher == nil {
		return nil
	}
	event := kafka.IndexCompleteEvent{
		BuildID:   uuid.NewString(),
		Backend:   e.store.Backend(),
		Location:  e.cfg.Store.Path,
		IndexType: int(idx.Type),
		NumDocs:   idx.NumDocs(),
		NumTerms:  idx.NumTerms(),
		BuiltAt:   e.now().UTC(),
	}
	return resilience.Retry(ctx, "publish-index-complete", resilience.RetryConfig{}, func() error {
		return e.publisher.Publish(ctx, kafka.Event{Key: kafka.IndexCompleteKey, Value: event})
	})
}

func (e *Engine) recordBuild(status string, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		e.metrics.IndexBuildDuration.Observe(elapsed.Seconds())
	}
}
