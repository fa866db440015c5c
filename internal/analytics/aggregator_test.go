package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestRecordTotals(t *testing.T) {
	a := NewAggregator(0)
	events := []QueryEvent{
		{Mode: "boolean", Query: "cat and dog", Terms: []string{"cat", "dog"}, TotalHits: 2, Latency: 100},
		{Mode: "boolean", Query: "Cat AND dog ", Terms: []string{"cat", "dog"}, TotalHits: 2, Latency: 300, CacheHit: true},
		{Mode: "vector", Query: "squid", Terms: []string{"squid"}, TotalHits: 0, Latency: 200},
		{Mode: "boolean", Query: "cat and", Failed: true},
	}
	for _, e := range events {
		a.Record(e)
	}

	st := a.Stats()
	if st.TotalSearches != 4 {
		t.Errorf("TotalSearches = %d, want 4", st.TotalSearches)
	}
	if want := map[string]int64{"boolean": 3, "vector": 1}; !reflect.DeepEqual(st.SearchesByMode, want) {
		t.Errorf("SearchesByMode = %v, want %v", st.SearchesByMode, want)
	}
	if st.Failed != 1 || st.CacheHits != 1 || st.CacheMisses != 2 || st.ZeroResultCount != 1 {
		t.Errorf("counters = %+v", st)
	}
	if st.AvgLatencyUs != 200 || st.P50LatencyUs != 200 || st.P99LatencyUs != 300 {
		t.Errorf("latency avg=%v p50=%d p99=%d", st.AvgLatencyUs, st.P50LatencyUs, st.P99LatencyUs)
	}
	if want := []QueryCount{{"cat and dog", 2}, {"squid", 1}}; !reflect.DeepEqual(st.TopQueries, want) {
		t.Errorf("TopQueries = %v, want %v", st.TopQueries, want)
	}
	if want := []QueryCount{{"cat", 2}, {"dog", 2}, {"squid", 1}}; !reflect.DeepEqual(st.TopTerms, want) {
		t.Errorf("TopTerms = %v, want %v", st.TopTerms, want)
	}
	if want := []QueryCount{{"squid", 1}}; !reflect.DeepEqual(st.ZeroResultQueries, want) {
		t.Errorf("ZeroResultQueries = %v, want %v", st.ZeroResultQueries, want)
	}
}

func TestLatencyWindowBounded(t *testing.T) {
	a := NewAggregator(0)
	for i := 0; i < latencyWindow+50; i++ {
		a.Record(QueryEvent{Mode: "vector", Query: "q", TotalHits: 1, Latency: int64(i)})
	}
	if len(a.latencies) != latencyWindow {
		t.Fatalf("kept %d samples, want %d", len(a.latencies), latencyWindow)
	}
	if got := a.Stats().P50LatencyUs; got < 50 {
		t.Errorf("oldest samples not evicted, p50 = %d", got)
	}
}

func TestTrackAndClose(t *testing.T) {
	a := NewAggregator(8)
	a.Start(context.Background())
	for i := 0; i < 5; i++ {
		a.Track(QueryEvent{Mode: "boolean", Query: "cat", TotalHits: 1})
	}
	a.Close()
	if got := a.Stats().TotalSearches; got != 5 {
		t.Errorf("TotalSearches = %d, want 5", got)
	}
}

func TestTrackDropsWhenFull(t *testing.T) {
	a := NewAggregator(2)
	for i := 0; i < 5; i++ {
		a.Track(QueryEvent{Mode: "boolean", Query: "cat"})
	}
	if got := a.Stats().Dropped; got != 3 {
		t.Errorf("Dropped = %d, want 3", got)
	}
}

func TestDrainOnCancel(t *testing.T) {
	a := NewAggregator(8)
	for i := 0; i < 3; i++ {
		a.Track(QueryEvent{Mode: "vector", Query: "fish", TotalHits: 1})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Start(ctx)
	<-a.done
	if got := a.Stats().TotalSearches; got != 3 {
		t.Errorf("TotalSearches = %d, want 3", got)
	}
}

func TestHandlerStats(t *testing.T) {
	a := NewAggregator(0)
	a.Record(QueryEvent{Mode: "vector", Query: "fish", TotalHits: 1})
	rec := httptest.NewRecorder()
	NewHandler(a).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st AggregatedStats
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.TotalSearches != 1 || st.SearchesByMode["vector"] != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestHandlerTopParam(t *testing.T) {
	a := NewAggregator(0)
	for _, q := range []string{"cat", "dog", "dog", "fish"} {
		a.Record(QueryEvent{Mode: "boolean", Query: q, Terms: []string{q}, TotalHits: 1})
	}
	h := NewHandler(a)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top=1", nil))
	var st AggregatedStats
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if want := []QueryCount{{"dog", 2}}; !reflect.DeepEqual(st.TopQueries, want) {
		t.Errorf("TopQueries = %v, want %v", st.TopQueries, want)
	}

	rec = httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
