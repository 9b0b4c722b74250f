package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"knowledge-indexer/internal/indexer"
)

// ErrDocumentsFailed is returned when at least one document in a batch failed.
var ErrDocumentsFailed = errors.New("some documents failed to index")

var indexCmd = &cobra.Command{
	Use:   "index [directory]",
	Short: "Index every supported document in a directory",
	Long: `Scans a directory recursively for supported documents and indexes each one.
Without an argument the configured documents directory is used.
A document that fails does not stop the rest of the batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

var indexFileCmd = &cobra.Command{
	Use:   "index-file <path>...",
	Short: "Index one or more documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexFile,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(indexFileCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	dir := services.DocumentsDir
	if len(args) > 0 {
		dir = args[0]
	}

	if err := services.Indexer.InitializeCollection(ctx); err != nil {
		return err
	}

	cmd.Printf("Indexing %s into %s...\n", dir, services.Collection)
	summary, err := services.Indexer.IndexDirectory(ctx, dir)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return printSummary(cmd, summary)
}

func runIndexFile(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if err := services.Indexer.InitializeCollection(ctx); err != nil {
		return err
	}

	summary := services.Indexer.IndexDocuments(ctx, args)
	return printSummary(cmd, summary)
}

func printSummary(cmd *cobra.Command, summary indexer.BatchSummary) error {
	if summary.Total() == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for _, r := range summary.Results {
		mark := "ok"
		if !r.Success {
			mark = "FAILED"
		}
		cmd.Printf("  [%s] %s\n", mark, r)
	}
	cmd.Println()
	cmd.Println(summary.String())
	if summary.RunID != "" {
		cmd.Printf("Run: %s\n", summary.RunID)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrDocumentsFailed, summary.Failed, summary.Total())
	}
	return nil
}
