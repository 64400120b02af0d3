package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

var (
	askQuestion string
	askTopK     int
	askJSON     bool
	askSources  bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the stored segments",
	Long: `Embed the question, retrieve the closest segments and ask the language model
to answer using only that context.

Examples:
  rag ask -q "O que é a Hotmart?"
  rag ask -q "Como funciona a afiliação?" --top-k 5 --sources
  rag ask -q "Quem criou a Hotmart?" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "segments to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved segments")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if askTopK > 0 {
		cfg.Query.TopK = askTopK
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	model, err := newLLM(cfg)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg, GetRootDir(), embedder, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer be.Close()

	answerUC, err := newAnswerUseCase(cfg, embedder, be.segments, model)
	if err != nil {
		return err
	}

	answer, err := answerUC.Answer(ctx, domain.QueryRequest{Question: askQuestion})
	if err != nil {
		return errors.New(describeError(err))
	}

	if askJSON {
		out := struct {
			Answer  string                  `json:"answer"`
			Sources domain.RetrievedContext `json:"sources,omitempty"`
		}{Answer: answer.Text}
		if askSources {
			out.Sources = answer.Sources
		}
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(answer.Text)
	if askSources {
		fmt.Println()
		for i, s := range answer.Sources {
			fmt.Printf("--- [%d] %s (score: %.2f) ---\n", i+1, s.Source, s.Score)
			text := []rune(s.Text)
			if len(text) > 300 {
				text = append(text[:300], []rune("...")...)
			}
			fmt.Println(string(text))
			fmt.Println()
		}
	}

	stats := model.GetStats()
	logger.Debug("generation usage",
		"calls", stats.TotalCalls,
		"input_tokens", stats.TotalInputTokens,
		"output_tokens", stats.TotalOutputTokens)
	return nil
}
