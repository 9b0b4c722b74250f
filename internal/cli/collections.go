package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage vector store collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionsList,
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collection and every chunk in it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsDelete,
}

func init() {
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsDeleteCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, _ []string) error {
	names, err := services.Store.ListCollections(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) == 0 {
		cmd.Println("No collections.")
		return nil
	}
	for _, name := range names {
		if name == services.Collection {
			cmd.Printf("* %s\n", name)
			continue
		}
		cmd.Printf("  %s\n", name)
	}
	return nil
}

func runCollectionsDelete(cmd *cobra.Command, args []string) error {
	if err := services.Store.DeleteCollection(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", args[0], err)
	}
	cmd.Printf("Collection %s deleted.\n", args[0])
	return nil
}
