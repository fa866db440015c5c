// Package analytics aggregates per-query statistics for the search API.
package analytics

import "time"

// QueryEvent describes one answered search request.
type QueryEvent struct {
	Mode      string    `json:"mode"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	Latency   int64     `json:"latency_us"`
	CacheHit  bool      `json:"cache_hit"`
	Failed    bool      `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}
