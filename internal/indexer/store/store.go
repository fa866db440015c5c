// Package store persists built indexes and loads them back for the query
// side. A store always holds exactly one index snapshot; Save replaces it.
package store

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/postgres"
)

// Store saves and loads a whole index snapshot.
type Store interface {
	Save(ctx context.Context, idx *index.InvertedIndex) error
	Load(ctx context.Context) (*index.InvertedIndex, error)
	Backend() string
	Close() error
}

// Open returns the store selected by cfg.Indexer.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	sc := cfg.Indexer.Store
	switch sc.Backend {
	case config.StoreSegment:
		return NewSegmentStore(sc.Path), nil
	case config.StoreSQLite:
		return OpenSQLite(ctx, sc.Path)
	case config.StorePostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		st, err := NewSQLStore(ctx, client.DB, DialectPostgres)
		if err != nil {
			client.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}
