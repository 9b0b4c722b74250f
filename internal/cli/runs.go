package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"knowledge-indexer/internal/storage"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show past indexing runs",
	Long: `Lists recent indexing runs, newest first.
With a run id, shows that run and the outcome of every document in it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if len(args) == 1 {
		run, err := services.Runs.GetRun(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get run: %w", err)
		}
		results, err := services.Runs.ListResults(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("failed to list run results: %w", err)
		}
		printRun(cmd, *run)
		cmd.Println()
		for _, r := range results {
			if r.Success {
				cmd.Printf("  [ok] %s: %d chunks (%d ms)\n", r.DocumentName, r.ChunksStored, r.DurationMs)
				continue
			}
			cmd.Printf("  [FAILED] %s at %s: %s\n", r.DocumentName, r.Stage, r.ErrorMessage)
		}
		return nil
	}

	runs, err := services.Runs.ListRuns(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}
	for _, run := range runs {
		printRun(cmd, run)
	}
	return nil
}

func printRun(cmd *cobra.Command, run storage.RunRecord) {
	cmd.Printf("%s  %s  %-8s  %s -> %s  ok=%d failed=%d chunks=%d\n",
		run.StartedAt.Local().Format(time.DateTime), run.ID, run.Status,
		run.Source, run.Collection, run.Succeeded, run.Failed, run.TotalChunks)
}
