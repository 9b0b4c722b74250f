package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the embedding backend and the vector store",
	Long: `Embeds a probe string to report the embedding dimension and checks
that the vector store answers its heartbeat.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	var errs []error

	if dim, err := services.Embeddings.Dimension(ctx); err != nil {
		cmd.Printf("embeddings:   error (%v)\n", err)
		errs = append(errs, err)
	} else {
		cmd.Printf("embeddings:   ok (dimension %d)\n", dim)
	}

	if err := services.Store.Heartbeat(ctx); err != nil {
		cmd.Printf("vector store: error (%v)\n", err)
		errs = append(errs, err)
	} else {
		cmd.Println("vector store: ok")
	}

	return errors.Join(errs...)
}
