// Package consumer reacts to IndexComplete events by reloading the
// searcher's index from the store and dropping cached results.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/resilience"
)

// Reloader swaps in a fresh snapshot; *executor.Executor is one.
type Reloader interface {
	Reload(ctx context.Context, l executor.Loader) (uint64, error)
}

// Invalidator drops cached results; *cache.QueryCache is one.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

type ReloadConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *ReloadConsumer {
	return &ReloadConsumer{
		consumer: kafkaConsumer,
		logger:   logger.WithComponent("reload-consumer"),
	}
}

// Start blocks until ctx is cancelled.
func (rc *ReloadConsumer) Start(ctx context.Context) error {
	rc.logger.Info("reload consumer starting")
	return rc.consumer.Start(ctx)
}

// HandleIndexComplete returns a MessageHandler that reloads from loader on
// every IndexComplete event. inv may be nil. Undecodable events are
// permanent failures and are not retried.
func HandleIndexComplete(r Reloader, loader executor.Loader, inv Invalidator) kafka.MessageHandler {
	log := logger.WithComponent("reload-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		if string(key) != kafka.IndexCompleteKey {
			log.Debug("ignoring message", "key", string(key))
			return nil
		}
		event, err := kafka.DecodeJSON[kafka.IndexCompleteEvent](value)
		if err != nil {
			return resilience.Permanent(err)
		}

		gen, err := r.Reload(ctx, loader)
		if err != nil {
			return fmt.Errorf("reloading after build %s: %w", event.BuildID, err)
		}
		if inv != nil {
			if _, err := inv.Invalidate(ctx); err != nil {
				log.Warn("cache invalidation failed", "build_id", event.BuildID, "error", err)
			}
		}
		log.Info("index reloaded",
			"build_id", event.BuildID,
			"generation", gen,
			"backend", event.Backend,
			"docs", event.NumDocs,
			"terms", event.NumTerms,
			"built_at", event.BuiltAt,
		)
		return nil
	}
}
