package store

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
)

// SegmentStore keeps the index in a single segment file.
type SegmentStore struct {
	path string
}

func NewSegmentStore(path string) *SegmentStore {
	return &SegmentStore{path: path}
}

func (s *SegmentStore) Save(ctx context.Context, idx *index.InvertedIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return segment.Write(s.path, idx)
}

func (s *SegmentStore) Load(ctx context.Context) (*index.InvertedIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := segment.OpenReader(s.path)
	if err != nil {
		return nil, fmt.Errorf("loading index from %s: %w", s.path, err)
	}
	defer r.Close()
	return r.Load()
}

func (s *SegmentStore) Backend() string { return config.StoreSegment }

func (s *SegmentStore) Close() error { return nil }
