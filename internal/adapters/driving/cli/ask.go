package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corpusqa/corpusqa-cli/internal/adapters/driven/ai"
	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/services"
)

var (
	askTopK     int
	askMinScore float64
	askJSON     bool
	askShowCtx  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the indexed corpus",
	Long: `Embeds the question, retrieves the most relevant indexed passages,
and generates an answer grounded strictly in them. When nothing relevant
is indexed, replies with a fixed fallback instead of guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from config)")
	askCmd.Flags().Float64Var(&askMinScore, "min-score", -1, "similarity threshold (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askShowCtx, "show-context", false, "print the retrieved passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	topK := settings.Retrieval.TopK
	if askTopK > 0 {
		topK = askTopK
	}
	minScore := settings.Retrieval.MinScore
	if askMinScore >= 0 {
		minScore = askMinScore
	}

	ctx := cmd.Context()

	embedder, err := ai.CreateAndValidateEmbedder(ctx, settings)
	if err != nil {
		return err
	}
	defer embedder.Close()

	index, err := ai.CreateVectorIndex(ctx, settings.Index)
	if err != nil {
		return err
	}
	defer index.Close()

	retriever := services.NewRetrievalService(embedder, index)
	bundle, err := retriever.Retrieve(ctx, question, topK, minScore)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if askShowCtx {
		printContext(cmd, bundle)
	}

	// The completion service is only needed when grounding exists; the
	// empty-bundle fallback never calls it.
	var completion *services.AnswerService
	if bundle.Empty() {
		completion = services.NewAnswerService(nil, promptStore, settings.Retrieval.MaxSources)
	} else {
		llm, err := ai.CreateAndValidateCompletion(ctx, settings)
		if err != nil {
			return err
		}
		defer llm.Close()
		completion = services.NewAnswerService(llm, promptStore, settings.Retrieval.MaxSources)
	}

	answer, err := completion.Answer(ctx, question, bundle)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("  - %s\n", src)
		}
	}
	return nil
}

func printContext(cmd *cobra.Command, bundle domain.ContextBundle) {
	if bundle.Empty() {
		cmd.Println("No relevant passages found.")
		return
	}
	cmd.Printf("Retrieved %d passages:\n", len(bundle.Passages))
	for i, p := range bundle.Passages {
		cmd.Printf("  [%d] %s (%.3f) chunk %d\n", i+1, p.Source.Title, p.Score, p.Source.Position)
	}
	cmd.Println()
}
