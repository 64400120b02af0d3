package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/layrfelipe/hotmart-challenge/config"
	"github.com/layrfelipe/hotmart-challenge/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the ingestion and question answering pipelines over HTTP.

Routes:
  GET       /health
  GET       /stats
  POST      /ingest_text               {"text": "..."}
  GET|POST  /ingest_full_blog_content
  POST      /query                     {"question": "..."}`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
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

	handler := server.NewHandler(server.Deps{
		Ingest: newIngestUseCase(cfg, embedder, be.segments),
		Answer: answerUC,
		Blog:   newBlogScraper(cfg, ""),
		Store:  be.segments,
		Stats:  statsFor(cfg, embedder),
		Logger: logger,
	})

	logger.Info("starting server",
		"store", cfg.Store.Backend,
		"embedding", embedder.ModelName(),
		"llm", model.ModelName())

	return server.Run(ctx, server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  config.Seconds(cfg.Server.ReadTimeoutSecs),
		WriteTimeout: config.Seconds(cfg.Server.WriteTimeoutSecs),
	}, handler, logger)
}
