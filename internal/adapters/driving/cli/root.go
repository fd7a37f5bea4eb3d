// Package cli implements the corpusqa command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corpusqa/corpusqa-cli/internal/adapters/driven/ai"
	configfile "github.com/corpusqa/corpusqa-cli/internal/adapters/driven/config/file"
	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose   bool
	flagConfigDir string
)

// settingsStore and promptStore are initialised in PersistentPreRunE and
// shared by all commands.
var (
	settingsStore *configfile.SettingsStore
	promptStore   *configfile.PromptStore
)

var rootCmd = &cobra.Command{
	Use:   "corpusqa",
	Short: "Question answering over a local document corpus",
	Long: `corpusqa ingests a folder of documents (PDF, Markdown, plain text),
indexes them for semantic search, and answers questions grounded strictly
in the indexed content.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		var err error
		settingsStore, err = configfile.NewSettingsStore(flagConfigDir)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		promptDir := ""
		if flagConfigDir != "" {
			promptDir = flagConfigDir + "/prompts"
		}
		promptStore, err = configfile.NewPromptStore(promptDir)
		if err != nil {
			return fmt.Errorf("load prompts: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.corpusqa)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadSettings returns validated application settings.
func loadSettings() (domain.AppSettings, error) {
	settings := settingsStore.Settings()
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid configuration in %s: %w", settingsStore.Path(), err)
	}
	return settings, nil
}

// openIndex creates and loads the configured vector index.
func openIndex(cmd *cobra.Command, settings domain.AppSettings) (result *ai.InitResult, err error) {
	index, err := ai.CreateVectorIndex(cmd.Context(), settings.Index)
	if err != nil {
		return nil, err
	}
	return &ai.InitResult{VectorIndex: index}, nil
}
