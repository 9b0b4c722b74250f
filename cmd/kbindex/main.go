package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"knowledge-indexer/internal/app"
	"knowledge-indexer/internal/cli"
	"knowledge-indexer/internal/config"
)

func main() {
	cli.SetFactory(newServices)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// newServices loads configuration, applies the command line overrides and wires the backends.
func newServices(ctx context.Context, o cli.Overrides) (*cli.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.Collection != "" {
		cfg.Collection = o.Collection
	}
	if o.Strategy != "" {
		cfg.ChunkStrategy = o.Strategy
	}
	if o.ChunkSize > 0 {
		cfg.ChunkSize = o.ChunkSize
	}
	if o.Overlap > 0 {
		cfg.ChunkOverlap = o.Overlap
	}

	// Progress goes to stderr so command output stays clean.
	logger := cfg.NewLogger(os.Stderr)

	components, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &cli.Services{
		Indexer:      components.Pipeline,
		Search:       components.Search,
		Store:        components.Store,
		Runs:         components.Runs,
		Embeddings:   components.Embeddings,
		Collection:   cfg.Collection,
		DocumentsDir: cfg.DocumentsDir,
		Close:        components.Close,
	}, nil
}
