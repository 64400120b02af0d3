package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchQuery string
	searchTopK  int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the segments retrieved for a query, without generation",
	Long: `Embed the query and print the closest stored segments with their similarity.
Useful to check retrieval quality before involving the language model.

Examples:
  rag search -q "comissão de afiliados"
  rag search -q "formas de pagamento" --top-k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	topK := cfg.Query.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg, GetRootDir(), embedder, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer be.Close()

	vectors, err := embedder.Embed(ctx, []string{searchQuery})
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("embedding failed: got %d vectors for 1 query", len(vectors))
	}
	results, err := be.segments.Query(ctx, vectors[0], topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Query: %q (%s, %d dimensions)\n", searchQuery, embedder.ModelName(), len(vectors[0]))
	fmt.Println(strings.Repeat("-", 70))

	var total float64
	for i, r := range results {
		total += r.Score
		preview := []rune(strings.ReplaceAll(r.Text, "\n", " "))
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}
		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating(r.Score), r.Score, r.Source)
		fmt.Printf("   %s\n\n", string(preview))
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  Average similarity: %.3f\n", total/float64(len(results)))
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	return nil
}

func rating(score float64) string {
	switch {
	case score > 0.7:
		return "HIGH"
	case score > 0.5:
		return "GOOD"
	case score > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}
