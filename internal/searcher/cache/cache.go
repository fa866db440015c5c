// Package cache stores search results in Redis, keyed by mode, normalized
// query, limit and index generation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/resilience"
)

const keyPrefix = "search:"

// Backend is the key-value store behind the cache. *redis.Client
// satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Errors  int64  `json:"errors"`
	Breaker string `json:"breaker"`
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	errors  atomic.Int64
}

type Option func(*QueryCache)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *QueryCache) { c.metrics = m }
}

// WithBreaker overrides the circuit breaker settings used around the
// backend.
func WithBreaker(cfg resilience.CircuitBreakerConfig) Option {
	return func(c *QueryCache) { c.breaker = c.newBreaker(cfg) }
}

func New(backend Backend, ttl time.Duration, opts ...Option) *QueryCache {
	c := &QueryCache{
		backend: backend,
		ttl:     ttl,
		logger:  logger.WithComponent("query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = c.newBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		})
	}
	return c
}

func (c *QueryCache) newBreaker(cfg resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	cfg.OnStateChange = func(name string, to resilience.State) {
		if c.metrics != nil {
			c.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return resilience.NewCircuitBreaker("redis-cache", cfg)
}

// Get returns the cached result for the query, if any. Backend failures
// count as misses.
func (c *QueryCache) Get(ctx context.Context, mode, query string, limit int, generation uint64) (*executor.SearchResult, bool) {
	result, ok := c.get(ctx, c.buildKey(mode, query, limit, generation))
	if !ok {
		return nil, false
	}
	return withQuery(result, query), true
}

func (c *QueryCache) get(ctx context.Context, key string) (*executor.SearchResult, bool) {
	result, ok := c.lookup(ctx, key)
	if !ok {
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "key", key)
	return result, true
}

// lookup reads key without touching the hit and miss counters.
func (c *QueryCache) lookup(ctx context.Context, key string) (*executor.SearchResult, bool) {
	var (
		data  []byte
		found bool
	)
	err := c.breaker.Execute(func() error {
		var err error
		data, found, err = c.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		c.recordError("get", key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

// Set stores result; failures are logged and otherwise ignored.
func (c *QueryCache) Set(ctx context.Context, mode, query string, limit int, result *executor.SearchResult) {
	c.set(ctx, c.buildKey(mode, query, limit, result.Generation), result)
}

func (c *QueryCache) set(ctx context.Context, key string, result *executor.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.recordError("set", key, err)
	}
}

// GetOrCompute serves the query from the cache or runs compute once per key
// no matter how many callers ask concurrently. The bool reports a cache
// hit. Compute errors are returned and never cached.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	mode, query string,
	limit int,
	generation uint64,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	key := c.buildKey(mode, query, limit, generation)
	if result, ok := c.get(ctx, key); ok {
		return withQuery(result, query), true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		if result, ok := c.lookup(ctx, key); ok {
			return result, nil
		}
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, c.buildKey(mode, query, limit, result.Generation), result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return withQuery(val.(*executor.SearchResult), query), false, nil
}

// withQuery returns a copy of result carrying the caller's query text.
// Equivalent queries share a key, so a stored or shared result may hold
// another spelling.
func withQuery(result *executor.SearchResult, query string) *executor.SearchResult {
	if result.Query == query {
		return result
	}
	cp := *result
	cp.Query = query
	return &cp
}

// Invalidate removes every cached result.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.breaker.Execute(func() error {
		var err error
		deleted, err = c.backend.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		c.errors.Add(1)
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.errors.Load(),
		Breaker: c.breaker.State().String(),
	}
}

func (c *QueryCache) recordError(op, key string, err error) {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Debug("cache skipped", "op", op, "error", err)
		return
	}
	c.errors.Add(1)
	c.logger.Warn("cache "+op+" failed", "key", key, "error", err)
}

func (c *QueryCache) buildKey(mode, query string, limit int, generation uint64) string {
	raw := fmt.Sprintf("%s|%s|limit=%d|gen=%d", mode, normalizeQuery(mode, query), limit, generation)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, mode, hash[:16])
}

// normalizeQuery folds case and whitespace. Vector queries are bags of
// words, so their words are also sorted; boolean word order is kept
// because operators bind to their neighbours.
func normalizeQuery(mode, query string) string {
	words := strings.Fields(strings.ToLower(query))
	if mode == executor.ModeVector {
		sort.Strings(words)
	}
	return strings.Join(words, " ")
}
