package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and manage the vector index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runIndexStats,
}

var (
	indexClearForce bool
)

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from the index",
	Long: `Removes every entry from the vector index. This is irreversible;
re-ingest the corpus to rebuild.`,
	RunE: runIndexClear,
}

func init() {
	indexClearCmd.Flags().BoolVar(&indexClearForce, "force", false, "skip the confirmation prompt")
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	result, err := openIndex(cmd, settings)
	if err != nil {
		return err
	}
	defer result.Close()

	stats, err := result.VectorIndex.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("read index stats: %w", err)
	}

	cmd.Printf("Backend:    %s\n", settings.Index.Backend)
	cmd.Printf("Location:   %s\n", settings.Index.Path)
	cmd.Printf("Entries:    %d\n", stats.Entries)
	cmd.Printf("Dimensions: %d\n", stats.Dimension)
	cmd.Printf("Documents:  %d\n", stats.Sources)
	return nil
}

func runIndexClear(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	if !indexClearForce {
		cmd.Print("This removes all indexed data. Continue? [y/N] ")
		var reply string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &reply); err != nil || (reply != "y" && reply != "Y") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	result, err := openIndex(cmd, settings)
	if err != nil {
		return err
	}
	defer result.Close()

	if err := result.VectorIndex.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if err := result.VectorIndex.Persist(cmd.Context()); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	cmd.Println("Index cleared.")
	return nil
}
