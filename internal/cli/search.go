package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"knowledge-indexer/internal/service"
)

// snippetLength bounds the document excerpt printed per result.
const snippetLength = 160

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search an indexed collection",
	Long: `Embeds the query and returns the closest chunks in the collection,
nearest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", service.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	resp, err := services.Search.Search(commandContext(cmd), service.SearchRequest{
		Collection: services.Collection,
		Query:      args[0],
		TopK:       searchTopK,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(resp.Results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results from %s:\n\n", resp.Collection)
	for i, r := range resp.Results {
		source := r.Metadata["source"]
		if source == "" {
			source = r.ID
		}
		cmd.Printf("  [%d] %s (distance %.4f)\n", i+1, source, r.Distance)
		if title := r.Metadata["document_title"]; title != "" {
			cmd.Printf("      %s, chunk %s\n", title, r.Metadata["chunk_index"])
		}
		cmd.Printf("      %s\n\n", snippet(r.Document))
	}
	return nil
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
