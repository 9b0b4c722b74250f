package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks knowledge-indexer/internal/indexer Embedder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"knowledge-indexer/internal/contextutil"
	"knowledge-indexer/internal/extract"
	"knowledge-indexer/internal/service"
	"knowledge-indexer/internal/storage"
	"knowledge-indexer/internal/vectorstore"
)

// DefaultDocumentPause is the delay between documents in a batch.
const DefaultDocumentPause = time.Second

// Embedder turns chunk texts into vectors, one per text, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline runs documents through extract, chunk, embed and store.
// Documents are processed one at a time; nothing runs concurrently.
type Pipeline struct {
	extractor      extract.Extractor
	chunker        *Chunker
	embedder       Embedder
	store          vectorstore.VectorStore
	collection     string
	runStore       storage.RunStore
	pause          time.Duration
	extensions     []string
	embeddingModel string
	logger         *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRunStore records every batch and its per-document results in store.
func WithRunStore(store storage.RunStore) PipelineOption {
	return func(p *Pipeline) {
		p.runStore = store
	}
}

// WithDocumentPause sets the delay between documents in a batch. Zero disables it.
func WithDocumentPause(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d >= 0 {
			p.pause = d
		}
	}
}

// WithExtensions sets the file extensions picked up by IndexDirectory.
func WithExtensions(exts ...string) PipelineOption {
	return func(p *Pipeline) {
		p.extensions = exts
	}
}

// WithEmbeddingModel names the embedding model in the run ledger's index version.
func WithEmbeddingModel(model string) PipelineOption {
	return func(p *Pipeline) {
		p.embeddingModel = model
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a new indexing pipeline writing to collection.
func NewPipeline(
	extractor extract.Extractor,
	chunker *Chunker,
	embedder Embedder,
	store vectorstore.VectorStore,
	collection string,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		collection: collection,
		pause:      DefaultDocumentPause,
		extensions: DefaultExtensions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Collection returns the name of the collection the pipeline writes to.
func (p *Pipeline) Collection() string {
	return p.collection
}

// getLogger extracts logger from context or returns the pipeline logger.
func (p *Pipeline) getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextutil.LoggerKey()).(*slog.Logger); ok && l != nil {
		return l
	}
	return p.logger
}

// InitializeCollection makes sure the target collection exists.
func (p *Pipeline) InitializeCollection(ctx context.Context) error {
	if err := p.store.EnsureCollection(ctx, p.collection); err != nil {
		return fmt.Errorf("failed to initialize collection %s: %w", p.collection, err)
	}
	p.getLogger(ctx).InfoContext(ctx, "collection ready", "collection", p.collection)
	return nil
}

// document is a file to index and the name its chunks are identified by.
type document struct {
	path string
	name string
}

// IndexDocument runs one document through the four stages. On failure the returned
// result is marked failed and the error is a *service.StageError naming the stage.
// A document that yields no chunks succeeds without touching the store.
// Chunks are named after the file's base name.
func (p *Pipeline) IndexDocument(ctx context.Context, path string) (IndexingResult, error) {
	return p.indexDocument(ctx, document{path: path, name: filepath.Base(path)})
}

func (p *Pipeline) indexDocument(ctx context.Context, doc document) (IndexingResult, error) {
	path := doc.path
	logger := p.getLogger(ctx).With("document", doc.name)
	result := newIndexingResult(doc.name)

	fail := func(kind, err error) (IndexingResult, error) {
		result.fail(err)
		logger.ErrorContext(ctx, "failed to index document", "stage", result.Stage, "error", err)
		return *result, &service.StageError{Stage: string(result.Stage), Document: result.DocumentName, Kind: kind, Err: err}
	}

	// Extract
	text, err := p.extractor.ExtractText(ctx, path)
	if err != nil {
		return fail(service.ErrExtraction, err)
	}
	result.CharactersExtracted = utf8.RuneCountInString(text)
	meta, err := p.extractor.Metadata(ctx, path)
	if err != nil {
		return fail(service.ErrExtraction, err)
	}
	title := meta.Title
	if title == "" {
		title = result.DocumentName
	}

	// Chunk
	result.enter(StageChunk)
	chunks, err := p.chunk(text, result.DocumentName, title)
	if err != nil {
		return fail(service.ErrChunking, err)
	}
	result.ChunksCreated = len(chunks)
	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "characters", result.CharactersExtracted)
		result.succeed()
		return *result, nil
	}
	stats := ComputeChunkStats(chunks)
	logger.DebugContext(ctx, "chunked document", "chunks", stats.TotalChunks, "mean_words", stats.MeanWords, "max_words", stats.MaxWords)

	// Embed
	result.enter(StageEmbed)
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fail(service.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return fail(service.ErrEmbedding, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(vectors)))
	}
	result.EmbeddingsGenerated = len(vectors)

	// Store
	result.enter(StageStore)
	ids, documents, metadatas := buildStoreBatch(chunks)
	if err := p.store.AddDocuments(ctx, p.collection, ids, vectors, documents, metadatas); err != nil {
		return fail(service.ErrStore, err)
	}
	result.ChunksStored = len(chunks)

	result.succeed()
	logger.InfoContext(ctx, "indexed document", "title", title, "chunks", result.ChunksStored, "duration_ms", result.DurationMs)
	return *result, nil
}

// chunk runs the chunker, turning a panic into an error so one bad document
// cannot take the batch down.
func (p *Pipeline) chunk(text, sourceFile, title string) (chunks []Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = fmt.Errorf("chunker panic: %v", r)
		}
	}()
	return p.chunker.Chunk(text, sourceFile, title), nil
}

// buildStoreBatch builds the parallel arrays passed to the vector store.
func buildStoreBatch(chunks []Chunk) ([]string, []string, []map[string]string) {
	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	metadatas := make([]map[string]string, len(chunks))

	for i, chunk := range chunks {
		ids[i] = chunk.ID
		documents[i] = chunk.Text

		meta := chunk.Metadata.Map()
		meta["source"] = chunk.SourceFile
		meta["document_title"] = chunk.DocumentTitle
		meta["chunk_index"] = strconv.Itoa(chunk.Index)
		meta["start_position"] = strconv.Itoa(chunk.StartPosition)
		meta["end_position"] = strconv.Itoa(chunk.EndPosition)
		metadatas[i] = meta
	}
	return ids, documents, metadatas
}

// IndexDocuments indexes paths in order. A failing document is recorded and the
// batch moves on. When ctx is canceled the remaining documents are recorded as failed.
func (p *Pipeline) IndexDocuments(ctx context.Context, paths []string) BatchSummary {
	docs := make([]document, len(paths))
	for i, path := range paths {
		docs[i] = document{path: path, name: filepath.Base(path)}
	}
	return p.indexBatch(ctx, fmt.Sprintf("%d documents", len(paths)), docs)
}

// IndexDirectory indexes every eligible file under dir. It fails only when dir
// cannot be scanned. Chunks are named after the path relative to dir, so files
// sharing a name in different folders keep distinct ids.
func (p *Pipeline) IndexDirectory(ctx context.Context, dir string) (BatchSummary, error) {
	logger := p.getLogger(ctx)

	files, err := ScanDirectory(ctx, dir, p.extensions)
	if err != nil {
		return BatchSummary{}, err
	}
	if len(files) == 0 {
		logger.WarnContext(ctx, "no documents found", "directory", dir, "extensions", p.extensions)
		return BatchSummary{}, nil
	}

	docs := make([]document, len(files))
	for i, f := range files {
		docs[i] = document{path: f.AbsPath, name: f.RelPath}
	}
	return p.indexBatch(ctx, dir, docs), nil
}

func (p *Pipeline) indexBatch(ctx context.Context, source string, docs []document) BatchSummary {
	logger := p.getLogger(ctx)
	start := time.Now()

	var summary BatchSummary
	summary.RunID = p.startRun(ctx, source)
	logger.InfoContext(ctx, "starting indexing", "source", source, "total_files", len(docs), "run_id", summary.RunID)

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			for _, remaining := range docs[i:] {
				result := newIndexingResult(remaining.name)
				result.fail(err)
				summary.add(*result)
				p.recordResult(ctx, summary.RunID, *result)
			}
			logger.WarnContext(ctx, "indexing canceled", "remaining", len(docs)-i, "error", err)
			break
		}

		result, _ := p.indexDocument(ctx, doc)
		summary.add(result)
		p.recordResult(ctx, summary.RunID, result)

		if i < len(docs)-1 {
			p.wait(ctx)
		}
	}

	summary.Duration = time.Since(start)
	p.finishRun(ctx, summary)
	logger.InfoContext(ctx, "indexing completed",
		"total_files", summary.Total(), "success", summary.Succeeded, "errors", summary.Failed,
		"chunks", summary.TotalChunks, "duration", summary.Duration.Round(time.Millisecond))
	return summary
}

// wait sleeps for the configured pause or until ctx is done.
func (p *Pipeline) wait(ctx context.Context) {
	if p.pause <= 0 {
		return
	}
	timer := time.NewTimer(p.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// startRun creates a ledger run. Ledger failures are logged and never fail indexing.
func (p *Pipeline) startRun(ctx context.Context, source string) string {
	if p.runStore == nil {
		return ""
	}
	cfg := p.chunker.Config()
	run := &storage.RunRecord{
		Collection:   p.collection,
		Source:       source,
		Strategy:     cfg.Strategy.String(),
		ChunkSize:    cfg.TargetSize,
		Overlap:      cfg.Overlap,
		IndexVersion: IndexVersion(cfg, p.embeddingModel),
	}
	if err := p.runStore.CreateRun(context.WithoutCancel(ctx), run); err != nil {
		p.getLogger(ctx).WarnContext(ctx, "failed to create run record", "error", err)
		return ""
	}
	return run.ID
}

func (p *Pipeline) recordResult(ctx context.Context, runID string, result IndexingResult) {
	if p.runStore == nil || runID == "" {
		return
	}
	record := &storage.ResultRecord{
		RunID:               runID,
		DocumentName:        result.DocumentName,
		Success:             result.Success,
		Stage:               string(result.Stage),
		CharactersExtracted: result.CharactersExtracted,
		ChunksCreated:       result.ChunksCreated,
		EmbeddingsGenerated: result.EmbeddingsGenerated,
		ChunksStored:        result.ChunksStored,
		DurationMs:          result.DurationMs,
		ErrorMessage:        result.ErrorMessage,
	}
	if err := p.runStore.RecordResult(context.WithoutCancel(ctx), record); err != nil {
		p.getLogger(ctx).WarnContext(ctx, "failed to record result", "run_id", runID, "document", result.DocumentName, "error", err)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, summary BatchSummary) {
	if p.runStore == nil || summary.RunID == "" {
		return
	}
	if err := p.runStore.FinishRun(context.WithoutCancel(ctx), summary.RunID, summary.Succeeded, summary.Failed, summary.TotalChunks); err != nil {
		p.getLogger(ctx).WarnContext(ctx, "failed to finish run record", "run_id", summary.RunID, "error", err)
	}
}
