// Package app wires configuration into the storage, vector store, embedding
// and indexing components shared by the server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"knowledge-indexer/internal/config"
	"knowledge-indexer/internal/extract"
	"knowledge-indexer/internal/indexer"
	"knowledge-indexer/internal/llm"
	"knowledge-indexer/internal/service"
	"knowledge-indexer/internal/storage"
	"knowledge-indexer/internal/vectorstore"
)

// App holds the wired components.
type App struct {
	Config     *config.Config
	DB         *sql.DB
	Runs       *storage.RunRepo
	Store      vectorstore.VectorStore
	Embeddings *llm.EmbeddingsClient
	Extractors *extract.Registry
	Pipeline   *indexer.Pipeline
	Search     service.SearchService

	closers []func() error
}

// New opens the run ledger and builds every component from cfg.
// Nothing is contacted over the network; call Pipeline.InitializeCollection to reach the store.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chunking, err := cfg.Chunking()
	if err != nil {
		return nil, err
	}
	chunker, err := indexer.NewChunker(chunking)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	if err := storage.Migrate(db); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.DB = db
	a.Runs = storage.NewRunRepo(db)
	logger.DebugContext(ctx, "run ledger ready", "path", cfg.DBPath)

	store, err := newVectorStore(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store
	if closer, ok := store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	a.Embeddings = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModelName,
		llm.WithHTTPClient(httpClient),
		llm.WithExpectedSize(cfg.EmbeddingVectorSize),
		llm.WithRateLimit(cfg.EmbeddingRatePerSec),
	)

	a.Extractors = extract.NewRegistry()
	if err := a.Extractors.EnablePDF(); err != nil {
		logger.WarnContext(ctx, "PDF support disabled", "error", err)
	}

	a.Pipeline = indexer.NewPipeline(a.Extractors, chunker, a.Embeddings, a.Store, cfg.Collection,
		indexer.WithRunStore(a.Runs),
		indexer.WithDocumentPause(cfg.DocumentPause),
		indexer.WithExtensions(a.Extractors.Extensions()...),
		indexer.WithEmbeddingModel(cfg.EmbeddingModelName),
		indexer.WithLogger(logger),
	)
	a.Search = service.NewSearchService(a.Embeddings, a.Store, cfg.Collection)

	logger.InfoContext(ctx, "components initialized",
		"vector_store", cfg.VectorStore,
		"collection", cfg.Collection,
		"embedding_model", cfg.EmbeddingModelName,
		"strategy", chunking.Strategy.String(),
		"chunk_size", chunking.TargetSize,
		"overlap", chunking.Overlap,
	)
	return a, nil
}

func newVectorStore(cfg *config.Config) (vectorstore.VectorStore, error) {
	switch cfg.VectorStore {
	case config.VectorStoreQdrant:
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.EmbeddingVectorSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create Qdrant store: %w", err)
		}
		return store, nil
	default:
		return vectorstore.NewChromaStore(cfg.ChromaURL,
			vectorstore.WithTenant(cfg.ChromaTenant, cfg.ChromaDatabase),
			vectorstore.WithChromaHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		), nil
	}
}

// Close releases the database and any store connection, last opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
