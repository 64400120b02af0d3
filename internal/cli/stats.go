package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the vector store holds",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	be, err := openBackend(cmd.Context(), cfg, GetRootDir(), embedder, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer be.Close()

	stats := statsFor(cfg, embedder)
	stats.Segments, err = be.segments.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count segments: %w", err)
	}

	if statsJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Store:           %s\n", stats.Backend)
	fmt.Printf("Embedding model: %s\n", stats.EmbeddingModel)
	fmt.Printf("Segments:        %d\n", stats.Segments)
	if be.bolt != nil {
		fmt.Printf("Dimension:       %d\n", be.bolt.Dimension())
		fmt.Printf("Path:            %s\n", cfg.StorePath(GetRootDir()))
	}
	return nil
}
