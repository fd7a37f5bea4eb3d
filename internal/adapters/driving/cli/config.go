package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Writes the current effective configuration to the config file so it
can be edited. Existing values are preserved; API keys supplied via
environment variables are never written.`,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings := settingsStore.Settings()

	// Never print credentials
	settings.Embedding.APIKey = redact(settings.Embedding.APIKey)
	settings.LLM.APIKey = redact(settings.LLM.APIKey)

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	cmd.Printf("# %s\n", settingsStore.Path())
	cmd.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if err := settingsStore.Save(settingsStore.Settings()); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	cmd.Printf("Wrote %s\n", settingsStore.Path())
	return nil
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	return "********"
}
