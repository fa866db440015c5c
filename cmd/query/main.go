// Command query runs one boolean or vector query against the stored index
// and prints the matching document names, one per line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	mode := flag.String("mode", executor.ModeBoolean, "query mode: boolean or vector")
	n := flag.Int("n", 10, "number of vector results, 0 for all")
	scores := flag.Bool("scores", false, "print vector scores next to names")
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: query [-mode boolean|vector] [-n 10] <query...>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr so stdout stays a plain list of names.
	slog.SetDefault(logger.New(os.Stderr, cfg.Logging.Level, "text"))

	res, err := run(context.Background(), cfg, *mode, query, *n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}
	for _, hit := range res.Results {
		if *scores && *mode == executor.ModeVector {
			fmt.Printf("%.6f\t%s\n", hit.Score, hit.Name)
			continue
		}
		fmt.Println(hit.Name)
	}
}

func run(ctx context.Context, cfg *config.Config, mode, query string, n int) (*executor.SearchResult, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	analyzer, err := tokenizer.FromConfig(cfg.Indexer)
	if err != nil {
		return nil, err
	}
	exec := executor.New(analyzer, cfg.Search)
	if _, err := exec.Reload(ctx, st); err != nil {
		return nil, err
	}

	switch mode {
	case executor.ModeBoolean:
		return exec.RetrieveBoolean(ctx, query)
	case executor.ModeVector:
		return exec.RetrieveVector(ctx, query, n)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}
