package analytics

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
)

const (
	defaultBufferSize = 10000
	// latencyWindow bounds the samples kept for percentile estimates.
	latencyWindow = 10000
	topQueries    = 10
)

type AggregatedStats struct {
	TotalSearches     int64            `json:"total_searches"`
	SearchesByMode    map[string]int64 `json:"searches_by_mode"`
	Failed            int64            `json:"failed"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	Dropped           int64            `json:"dropped"`
	AvgLatencyUs      float64          `json:"avg_latency_us"`
	P50LatencyUs      int64            `json:"p50_latency_us"`
	P95LatencyUs      int64            `json:"p95_latency_us"`
	P99LatencyUs      int64            `json:"p99_latency_us"`
	TopQueries        []QueryCount     `json:"top_queries"`
	TopTerms          []QueryCount     `json:"top_terms"`
	ZeroResultQueries []QueryCount     `json:"zero_result_queries"`
	QueriesPerMinute  float64          `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator receives events on a buffered channel and folds them into
// running totals on a single goroutine. Track never blocks; events that do
// not fit the buffer are dropped and counted.
type Aggregator struct {
	eventCh chan QueryEvent
	done    chan struct{}

	dropped atomic.Int64

	mu                sync.RWMutex
	totalSearches     int64
	byMode            map[string]int64
	failed            int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	latencies         []int64
	next              int
	queryCounts       map[string]int64
	termCounts        map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time

	logger *slog.Logger
}

func NewAggregator(bufferSize int) *Aggregator {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Aggregator{
		eventCh:           make(chan QueryEvent, bufferSize),
		done:              make(chan struct{}),
		byMode:            make(map[string]int64),
		latencies:         make([]int64, 0, latencyWindow),
		queryCounts:       make(map[string]int64),
		termCounts:        make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		logger:            logger.WithComponent("analytics-aggregator"),
	}
}

// Start consumes events until ctx is cancelled or Close is called. Events
// still buffered at cancellation are folded in before returning.
func (a *Aggregator) Start(ctx context.Context) {
	go func() {
		defer close(a.done)
		for {
			select {
			case event, ok := <-a.eventCh:
				if !ok {
					return
				}
				a.Record(event)
			case <-ctx.Done():
				a.drainRemaining()
				return
			}
		}
	}()
	a.logger.Info("analytics aggregator started", "buffer_size", cap(a.eventCh))
}

func (a *Aggregator) Track(event QueryEvent) {
	select {
	case a.eventCh <- event:
	default:
		if a.dropped.Add(1) == 1 {
			a.logger.Warn("analytics event dropped (buffer full)")
		}
	}
}

// Close stops accepting events and waits for Start's goroutine to finish.
// Start must have been called, and Track must not be called afterwards.
func (a *Aggregator) Close() {
	close(a.eventCh)
	<-a.done
}

func (a *Aggregator) drainRemaining() {
	for {
		select {
		case event, ok := <-a.eventCh:
			if !ok {
				return
			}
			a.Record(event)
		default:
			return
		}
	}
}

// Record folds one event into the totals synchronously.
func (a *Aggregator) Record(event QueryEvent) {
	query := strings.ToLower(strings.TrimSpace(event.Query))

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	a.byMode[event.Mode]++
	if event.Failed {
		a.failed++
		return
	}
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.Latency)
	} else {
		a.latencies[a.next] = event.Latency
		a.next = (a.next + 1) % latencyWindow
	}
	a.queryCounts[query]++
	for _, t := range event.Terms {
		a.termCounts[t]++
	}
	if event.TotalHits == 0 {
		a.zeroResults++
		a.zeroResultQueries[query]++
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		SearchesByMode:  make(map[string]int64, len(a.byMode)),
		Failed:          a.failed,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
		Dropped:         a.dropped.Load(),
	}
	for mode, n := range a.byMode {
		stats.SearchesByMode[mode] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyUs = float64(sum) / float64(len(sorted))
		stats.P50LatencyUs = percentile(sorted, 50)
		stats.P95LatencyUs = percentile(sorted, 95)
		stats.P99LatencyUs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, topQueries)
	stats.TopTerms = topN(a.termCounts, topQueries)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, topQueries)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then by key, and keeps the first n.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
