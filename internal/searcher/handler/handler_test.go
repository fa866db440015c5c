package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
)

var docs = []index.Document{
	{Name: "animals/cats", Text: "Cats chase dogs. Cats love fish."},
	{Name: "animals/dogs", Text: "Dogs chase cats and squirrels."},
	{Name: "animals/birds", Text: "Birds fly over the sea."},
	{Name: "science/fish", Text: "Fish swim in the sea."},
}

type staticLoader struct {
	mu    sync.Mutex
	idx   *index.InvertedIndex
	loads int
}

func (l *staticLoader) Load(context.Context) (*index.InvertedIndex, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	return l.idx, nil
}

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, strings.TrimSuffix(pattern, "*")) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

type fixture struct {
	router http.Handler
	exec   *executor.Executor
	loader *staticLoader
	cache  *cache.QueryCache
}

func newFixture(t *testing.T, typ index.PostingType, withCache, loaded bool) *fixture {
	t.Helper()
	a := tokenizer.NewAnalyzer()
	idx, err := index.Build(context.Background(), docs, a, typ)
	if err != nil {
		t.Fatal(err)
	}
	exec := executor.New(a, config.SearchConfig{QueryTimeout: time.Second})
	if loaded {
		exec.Swap(idx)
	}
	var qc *cache.QueryCache
	if withCache {
		qc = cache.New(&memBackend{data: make(map[string][]byte)}, time.Minute)
	}
	loader := &staticLoader{idx: idx}
	h := New(exec, loader, qc, 2, 3)
	r := chi.NewRouter()
	h.Routes(r)
	return &fixture{router: r, exec: exec, loader: loader, cache: qc}
}

func (f *fixture) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s %s: invalid JSON %q", method, target, rec.Body.String())
	}
	return rec, body
}

func resultNames(body map[string]any) []string {
	raw, _ := body["results"].([]any)
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		names = append(names, r.(map[string]any)["name"].(string))
	}
	return names
}

func TestSearchStatusCodes(t *testing.T) {
	f := newFixture(t, index.Frequency, false, true)
	tests := []struct {
		target string
		want   int
	}{
		{"/api/v1/search/boolean?q=cat+and+dog", http.StatusOK},
		{"/api/v1/search/boolean", http.StatusBadRequest},
		{"/api/v1/search/boolean?q=cat+and", http.StatusBadRequest},
		{"/api/v1/search/boolean?q=(cat+or+dog", http.StatusBadRequest},
		{"/api/v1/search/boolean?q=cat+not+dog", http.StatusBadRequest},
		{"/api/v1/search/vector?q=sea", http.StatusOK},
		{"/api/v1/search/vector?q=sea&limit=0", http.StatusBadRequest},
		{"/api/v1/search/vector?q=sea&limit=abc", http.StatusBadRequest},
		{"/api/v1/search/vector", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec, body := f.do(t, http.MethodGet, tt.target)
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d (%v)", rec.Code, tt.want, body)
			}
		})
	}
}

func TestSearchBooleanBody(t *testing.T) {
	f := newFixture(t, index.Presence, false, true)
	rec, body := f.do(t, http.MethodGet, "/api/v1/search/boolean?q=cats+or+sea")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	want := []string{"animals/cats", "animals/dogs", "animals/birds", "science/fish"}
	if got := resultNames(body); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", got, want)
	}
	if body["mode"] != executor.ModeBoolean {
		t.Errorf("mode = %v", body["mode"])
	}
}

func TestSearchVectorLimit(t *testing.T) {
	f := newFixture(t, index.Frequency, false, true)
	_, body := f.do(t, http.MethodGet, "/api/v1/search/vector?q=cats+dogs+fish+sea")
	if n := len(resultNames(body)); n != 2 {
		t.Errorf("default limit returned %d", n)
	}
	_, body = f.do(t, http.MethodGet, "/api/v1/search/vector?q=cats+dogs+fish+sea&limit=50")
	if n := len(resultNames(body)); n != 3 {
		t.Errorf("limit above max returned %d, want 3", n)
	}
}

func TestSearchVectorOnPresenceIndex(t *testing.T) {
	f := newFixture(t, index.Presence, false, true)
	rec, _ := f.do(t, http.MethodGet, "/api/v1/search/vector?q=sea")
	if rec.Code != http.StatusConflict {
		t.Errorf("code = %d, want 409", rec.Code)
	}
}

func TestIndexNotLoaded(t *testing.T) {
	f := newFixture(t, index.Frequency, false, false)
	rec, _ := f.do(t, http.MethodGet, "/api/v1/search/boolean?q=cat")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", rec.Code)
	}
	_, stats := f.do(t, http.MethodGet, "/api/v1/index/stats")
	if stats["loaded"] != false {
		t.Errorf("stats = %v", stats)
	}
}

func TestReloadInstallsIndexAndClearsCache(t *testing.T) {
	f := newFixture(t, index.Frequency, true, false)

	rec, body := f.do(t, http.MethodPost, "/api/v1/index/reload")
	if rec.Code != http.StatusOK || body["generation"] != float64(1) {
		t.Fatalf("reload: %d %v", rec.Code, body)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/v1/search/boolean?q=cat")
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first query X-Cache = %q", rec.Header().Get("X-Cache"))
	}
	rec, _ = f.do(t, http.MethodGet, "/api/v1/search/boolean?q=cat")
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Errorf("repeat query X-Cache = %q", rec.Header().Get("X-Cache"))
	}

	f.do(t, http.MethodPost, "/api/v1/index/reload")
	rec, body = f.do(t, http.MethodGet, "/api/v1/search/boolean?q=cat")
	if rec.Header().Get("X-Cache") != "MISS" || body["generation"] != float64(2) {
		t.Errorf("after reload: X-Cache = %q, generation = %v", rec.Header().Get("X-Cache"), body["generation"])
	}
	if f.loader.loads != 2 {
		t.Errorf("loads = %d", f.loader.loads)
	}

	_, stats := f.do(t, http.MethodGet, "/api/v1/cache/stats")
	if stats["hits"] != float64(1) || stats["breaker"] != "closed" {
		t.Errorf("cache stats = %v", stats)
	}
}

func TestCacheEndpointsWhenDisabled(t *testing.T) {
	f := newFixture(t, index.Frequency, false, true)
	_, stats := f.do(t, http.MethodGet, "/api/v1/cache/stats")
	if stats["status"] != "disabled" {
		t.Errorf("stats = %v", stats)
	}
	rec, _ := f.do(t, http.MethodPost, "/api/v1/cache/invalidate")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("invalidate code = %d", rec.Code)
	}
}

func TestCacheInvalidate(t *testing.T) {
	f := newFixture(t, index.Frequency, true, true)
	f.do(t, http.MethodGet, "/api/v1/search/vector?q=sea")
	rec, body := f.do(t, http.MethodPost, "/api/v1/cache/invalidate")
	if rec.Code != http.StatusOK || body["keys_deleted"] != float64(1) {
		t.Errorf("invalidate: %d %v", rec.Code, body)
	}
}

func TestAnalyticsRecordsSearches(t *testing.T) {
	a := tokenizer.NewAnalyzer()
	idx, err := index.Build(context.Background(), docs, a, index.Frequency)
	if err != nil {
		t.Fatal(err)
	}
	exec := executor.New(a, config.SearchConfig{QueryTimeout: time.Second})
	exec.Swap(idx)
	agg := analytics.NewAggregator(16)
	agg.Start(context.Background())

	r := chi.NewRouter()
	New(exec, &staticLoader{idx: idx}, nil, 2, 3, WithAnalytics(agg)).Routes(r)
	f := &fixture{router: r, exec: exec}

	f.do(t, http.MethodGet, "/api/v1/search/boolean?q=cat+and+dog")
	f.do(t, http.MethodGet, "/api/v1/search/vector?q=unicorn")
	f.do(t, http.MethodGet, "/api/v1/search/boolean?q=cat+and")
	agg.Close()

	rec, body := f.do(t, http.MethodGet, "/api/v1/analytics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := body["total_searches"]; got != float64(3) {
		t.Errorf("total_searches = %v, want 3", got)
	}
	if got := body["failed"]; got != float64(1) {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := body["zero_result_count"]; got != float64(1) {
		t.Errorf("zero_result_count = %v, want 1", got)
	}
}

func TestAnalyticsRouteAbsentWithoutAggregator(t *testing.T) {
	f := newFixture(t, index.Frequency, false, true)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
