package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/layrfelipe/hotmart-challenge/internal/adapter/fs"
	"github.com/layrfelipe/hotmart-challenge/internal/domain"
	"github.com/layrfelipe/hotmart-challenge/internal/port"
)

var (
	ingestText  string
	ingestBlog  bool
	ingestURL   string
	ingestReset bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Segment, embed and store content",
	Long: `Ingest text into the vector store. Content can come from files and
directories (text, markdown and PDF), inline text or the Hotmart blog.

Examples:
  rag ingest --blog                            # Ingest the configured blog post
  rag ingest --url https://hotmart.com/pt-br/blog/como-funciona-hotmart
  rag ingest --text "A Hotmart é uma plataforma de produtos digitais."
  rag ingest docs/ notes.md                    # Ingest files
  rag ingest --reset --blog                    # Drop stored segments first`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestText, "text", "t", "", "ingest inline text")
	ingestCmd.Flags().BoolVar(&ingestBlog, "blog", false, "ingest the blog post at scraper.url")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "ingest the blog post at this URL")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "remove stored segments before ingesting")
}

// textSource feeds inline text through the same path as the other sources.
type textSource struct {
	text string
}

func (s textSource) Fetch(ctx context.Context) (string, error) { return s.text, nil }
func (s textSource) Name() string                              { return "cli" }

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	sources, err := collectSources(args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("nothing to ingest: pass paths, --text, --blog or --url")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg, GetRootDir(), embedder, ingestReset)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer be.Close()

	ingestUC := newIngestUseCase(cfg, embedder, be.segments)

	var bar *progressbar.ProgressBar
	if len(sources) > 1 && term.IsTerminal(int(os.Stdout.Fd())) {
		bar = progressbar.NewOptions(len(sources),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	var (
		chunks   int
		ingested int
		failures []string
	)
	for _, src := range sources {
		result, err := ingestUC.IngestFrom(ctx, src)
		if bar != nil {
			bar.Add(1)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			failures = append(failures, fmt.Sprintf("%s: %s", src.Name(), describeError(err)))
			continue
		}
		ingested++
		chunks += result.ChunksWritten
		if bar == nil {
			fmt.Printf("%s: %d chunks (size %d, overlap %d)\n", src.Name(), result.ChunksWritten, result.Params.Size, result.Params.Overlap)
		}
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Sources ingested: %d\n", ingested)
	fmt.Printf("  Chunks stored:    %d\n", chunks)

	if len(failures) > 0 {
		fmt.Printf("\nFailures:\n")
		for _, f := range failures {
			fmt.Printf("  - %s\n", f)
		}
		return fmt.Errorf("%d of %d sources failed", len(failures), len(sources))
	}
	return nil
}

// collectSources turns flags and path arguments into content sources.
// Directories are walked with the configured include and exclude patterns.
func collectSources(args []string) ([]port.ContentSource, error) {
	cfg := GetConfig()
	var sources []port.ContentSource

	if ingestText != "" {
		sources = append(sources, textSource{text: ingestText})
	}
	if ingestBlog || ingestURL != "" {
		sources = append(sources, newBlogScraper(cfg, ingestURL))
	}

	var walker port.FileWalker = fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("path does not exist: %w", err)
		}
		if !info.IsDir() {
			sources = append(sources, fs.NewFileSource(path))
			continue
		}

		files, err := walker.Walk(path)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", path, err)
		}
		for _, f := range files {
			sources = append(sources, fs.NewFileSource(f.Path))
		}
	}

	return sources, nil
}

// describeError renders a pipeline error for terminal output.
func describeError(err error) string {
	if stage, ok := domain.StageOf(err); ok {
		return fmt.Sprintf("[%s] %v", stage, errors.Unwrap(err))
	}
	return err.Error()
}
