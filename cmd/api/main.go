package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"knowledge-indexer/internal/app"
	"knowledge-indexer/internal/config"
	"knowledge-indexer/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API indexes documents into a vector store and searches them by similarity.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Knowledge Indexer API
//   description: |
//     Extracts text from documents, splits it into chunks, embeds the chunks and stores
//     them in a vector store collection. Indexed collections can be searched by similarity.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = components.Close()
	}()

	// Validate the embedding backend (fail-fast)
	dim, err := components.Embeddings.Dimension(ctx)
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName, "vector_size", dim)

	if err := components.Pipeline.InitializeCollection(ctx); err != nil {
		log.Fatalf("Failed to initialize collection: %v", err)
	}
	slog.Info("Collection ready", "collection", cfg.Collection, "vector_store", cfg.VectorStore)

	router := http.NewRouter(&http.Deps{
		Indexer:       components.Pipeline,
		DocumentsDir:  cfg.DocumentsDir,
		SearchService: components.Search,
		VectorStore:   components.Store,
		RunStore:      components.Runs,
		Embedder:      components.Embeddings,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when a signal arrives
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr, "documents_dir", cfg.DocumentsDir)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed: %v", err)
	}
}
