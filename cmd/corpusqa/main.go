// Command corpusqa answers questions over a local document corpus.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/corpusqa/corpusqa-cli/internal/adapters/driving/cli"
)

func main() {
	// Load .env if present; environment variables already set win.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
