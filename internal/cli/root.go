package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"knowledge-indexer/internal/indexer"
	"knowledge-indexer/internal/service"
	"knowledge-indexer/internal/storage"
	"knowledge-indexer/internal/vectorstore"
)

// Indexer runs documents through the indexing pipeline.
type Indexer interface {
	InitializeCollection(ctx context.Context) error
	IndexDirectory(ctx context.Context, dir string) (indexer.BatchSummary, error)
	IndexDocuments(ctx context.Context, paths []string) indexer.BatchSummary
}

// EmbeddingProber reports on the embedding backend.
type EmbeddingProber interface {
	Dimension(ctx context.Context) (int, error)
}

// Services are the backends the commands drive. Close may be nil.
type Services struct {
	Indexer      Indexer
	Search       service.SearchService
	Store        vectorstore.VectorStore
	Runs         storage.RunStore
	Embeddings   EmbeddingProber
	Collection   string
	DocumentsDir string
	Close        func() error
}

// Overrides are the global flag values. Zero values leave the configured value in place.
type Overrides struct {
	Collection string
	Strategy   string
	ChunkSize  int
	Overlap    int
}

// Factory builds Services once flags are parsed.
type Factory func(ctx context.Context, o Overrides) (*Services, error)

var (
	factory   Factory
	services  *Services
	overrides Overrides
)

var rootCmd = &cobra.Command{
	Use:   "kbindex",
	Short: "Index documents into a vector store and search them",
	Long: `kbindex extracts text from documents, splits it into overlapping chunks,
embeds each chunk and stores the vectors in a named collection.
Indexed collections can then be searched by similarity.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: closeServices,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&overrides.Collection, "collection", "", "collection to index into or search (default from config)")
	flags.StringVar(&overrides.Strategy, "strategy", "", "chunking strategy: fixed, sentence or paragraph")
	flags.IntVar(&overrides.ChunkSize, "chunk-size", 0, "target chunk size in words")
	flags.IntVar(&overrides.Overlap, "overlap", 0, "chunk overlap in words")
}

// SetFactory registers how commands obtain their Services.
func SetFactory(f Factory) {
	factory = f
}

// Execute runs the root command with output on stdout.
// Services are closed even when the command fails.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, closeServices(rootCmd, nil))
}

func setupServices(cmd *cobra.Command, _ []string) error {
	if factory == nil {
		return errors.New("services not configured")
	}
	if overrides.ChunkSize < 0 || overrides.Overlap < 0 {
		return errors.New("--chunk-size and --overlap must not be negative")
	}
	svc, err := factory(commandContext(cmd), overrides)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	services = svc
	return nil
}

func closeServices(_ *cobra.Command, _ []string) error {
	if services == nil || services.Close == nil {
		return nil
	}
	err := services.Close()
	services = nil
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
