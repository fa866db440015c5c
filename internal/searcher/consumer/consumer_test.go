package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/resilience"
)

type fakeReloader struct {
	calls int
	err   error
}

func (f *fakeReloader) Reload(ctx context.Context, l executor.Loader) (uint64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if _, err := l.Load(ctx); err != nil {
		return 0, err
	}
	return uint64(f.calls), nil
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(context.Context) (int64, error) {
	f.calls++
	return 3, nil
}

type nopLoader struct{}

func (nopLoader) Load(context.Context) (*index.InvertedIndex, error) {
	return &index.InvertedIndex{Type: index.Presence}, nil
}

func eventBytes(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(kafka.IndexCompleteEvent{BuildID: "b-1", Backend: "segment", NumDocs: 4})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleIndexComplete(t *testing.T) {
	r := &fakeReloader{}
	inv := &fakeInvalidator{}
	h := HandleIndexComplete(r, nopLoader{}, inv)

	if err := h(context.Background(), []byte(kafka.IndexCompleteKey), eventBytes(t)); err != nil {
		t.Fatal(err)
	}
	if r.calls != 1 || inv.calls != 1 {
		t.Errorf("reloads = %d, invalidations = %d", r.calls, inv.calls)
	}
}

func TestHandleIndexCompleteIgnoresOtherKeys(t *testing.T) {
	r := &fakeReloader{}
	h := HandleIndexComplete(r, nopLoader{}, nil)
	if err := h(context.Background(), []byte("something-else"), []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if r.calls != 0 {
		t.Errorf("reloaded on an unrelated message")
	}
}

func TestHandleIndexCompleteErrors(t *testing.T) {
	h := HandleIndexComplete(&fakeReloader{}, nopLoader{}, nil)
	err := h(context.Background(), []byte(kafka.IndexCompleteKey), []byte("not json"))
	if !resilience.IsPermanent(err) {
		t.Errorf("decode error = %v, want permanent", err)
	}

	boom := errors.New("store unavailable")
	h = HandleIndexComplete(&fakeReloader{err: boom}, nopLoader{}, &fakeInvalidator{})
	err = h(context.Background(), []byte(kafka.IndexCompleteKey), eventBytes(t))
	if !errors.Is(err, boom) || resilience.IsPermanent(err) {
		t.Errorf("reload error = %v, want retryable %v", err, boom)
	}
}
