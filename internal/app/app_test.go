package app

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"knowledge-indexer/internal/config"
	"knowledge-indexer/internal/storage"
	"knowledge-indexer/internal/vectorstore"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		VectorStore:         config.VectorStoreChroma,
		ChromaURL:           "http://127.0.0.1:1",
		Collection:          "knowledge_base",
		EmbeddingBaseURL:    "http://127.0.0.1:1",
		EmbeddingModelName:  "nomic-embed-text",
		EmbeddingRatePerSec: 10,
		HTTPTimeout:         time.Second,
		ChunkSize:           200,
		ChunkOverlap:        20,
		ChunkStrategy:       "paragraph",
		DBPath:              filepath.Join(t.TempDir(), "kbindex.db"),
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	a, err := New(context.Background(), testConfig(t), logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = a.Close() }()

	if _, ok := a.Store.(*vectorstore.ChromaStore); !ok {
		t.Errorf("Store = %T, want *vectorstore.ChromaStore", a.Store)
	}
	if a.Pipeline == nil || a.Search == nil || a.Embeddings == nil || a.Runs == nil {
		t.Fatalf("New() left components unset: %+v", a)
	}
	if a.Pipeline.Collection() != "knowledge_base" {
		t.Errorf("Pipeline.Collection() = %q, want knowledge_base", a.Pipeline.Collection())
	}
	if a.Embeddings.ExpectedSize != 0 {
		t.Errorf("ExpectedSize = %d, want 0", a.Embeddings.ExpectedSize)
	}

	// The run ledger is migrated and usable.
	run := &storage.RunRecord{Collection: "knowledge_base", Source: "test"}
	if err := a.Runs.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if _, err := a.Runs.GetRun(context.Background(), run.ID); err != nil {
		t.Errorf("GetRun() error = %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("components initialized")) {
		t.Errorf("expected initialization log, got %q", buf.String())
	}
}

func TestNew_InvalidChunking(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChunkOverlap = cfg.ChunkSize

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Error("New() with overlap >= size expected error, got nil")
	}
}

func TestNew_BadDatabasePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "kbindex.db")

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Error("New() with unopenable database expected error, got nil")
	}
}

func TestApp_CloseIsIdempotent(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
