package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/layrfelipe/hotmart-challenge/config"
	"github.com/layrfelipe/hotmart-challenge/internal/adapter/cache"
	"github.com/layrfelipe/hotmart-challenge/internal/adapter/chunker"
	"github.com/layrfelipe/hotmart-challenge/internal/adapter/embedding"
	"github.com/layrfelipe/hotmart-challenge/internal/adapter/llm"
	"github.com/layrfelipe/hotmart-challenge/internal/adapter/scraper"
	"github.com/layrfelipe/hotmart-challenge/internal/adapter/store"
	"github.com/layrfelipe/hotmart-challenge/internal/domain"
	"github.com/layrfelipe/hotmart-challenge/internal/port"
	"github.com/layrfelipe/hotmart-challenge/internal/usecase"
)

// backend is an opened vector store plus what the commands need around it.
type backend struct {
	segments *store.SegmentStore
	bolt     *store.BoltVectorStore // nil unless the bolt backend is used
	close    func()
}

func (b *backend) Close() {
	if b.close != nil {
		b.close()
	}
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	ec := cfg.Embedding
	opts := embedding.Options{
		BatchSize: ec.BatchSize,
		Timeout:   config.Seconds(ec.TimeoutSecs),
	}

	switch ec.Provider {
	case "hash":
		return embedding.NewHashEmbedder(ec.Dimension), nil
	case "ollama":
		return embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL, opts), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL, opts)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", ec.Provider)
	}
}

func newLLM(cfg *config.Config) (*llm.Client, error) {
	lc := cfg.LLM
	return llm.NewClient(lc.Provider, lc.Model, lc.BaseURL, lc.APIKeyEnv, llm.Params{
		Temperature: lc.Temperature,
		TopP:        lc.TopP,
		MaxTokens:   lc.MaxTokens,
		Timeout:     config.Seconds(lc.TimeoutSecs),
	})
}

// openBackend opens the configured vector store. reset empties a bolt store
// before its schema is checked, so a model change can be recovered from.
func openBackend(ctx context.Context, cfg *config.Config, dir string, embedder port.Embedder, reset bool) (*backend, error) {
	switch cfg.Store.Backend {
	case "memory":
		return &backend{segments: store.NewSegmentStore(store.NewMemoryVectorStore())}, nil

	case "bolt":
		if err := cfg.EnsureDataDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		bolt, err := store.OpenBoltVectorStore(cfg.StorePath(dir))
		if err != nil {
			return nil, err
		}
		if reset {
			if err := bolt.Clear(); err != nil {
				bolt.Close()
				return nil, err
			}
		}
		if err := bolt.EnsureSchema(embedder.ModelName()); err != nil {
			bolt.Close()
			return nil, err
		}
		return &backend{
			segments: store.NewSegmentStore(bolt),
			bolt:     bolt,
			close:    func() { bolt.Close() },
		}, nil

	case "pgvector":
		dbURL := os.Getenv(cfg.Store.DatabaseURLEnv)
		if dbURL == "" {
			return nil, fmt.Errorf("database URL not found. Set %s environment variable", cfg.Store.DatabaseURLEnv)
		}
		dim, err := probeDimension(ctx, embedder)
		if err != nil {
			return nil, err
		}
		pg, err := store.ConnectPgVector(ctx, dbURL, cfg.Store.Table, dim)
		if err != nil {
			return nil, err
		}
		if reset {
			if err := pg.Truncate(ctx); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &backend{segments: store.NewSegmentStore(pg), close: pg.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

// probeDimension returns the embedder's dimension, embedding a probe text
// when the embedder only learns it from a response.
func probeDimension(ctx context.Context, embedder port.Embedder) (int, error) {
	if dim := embedder.Dimension(); dim > 0 {
		return dim, nil
	}
	vectors, err := embedder.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return 0, fmt.Errorf("failed to determine embedding dimension: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return 0, fmt.Errorf("failed to determine embedding dimension: empty response")
	}
	return len(vectors[0]), nil
}

func newIngestUseCase(cfg *config.Config, embedder port.Embedder, segments port.SegmentStore) *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(chunker.NewAdaptive(), embedder, segments, usecase.IngestOptions{
		EmbedTimeout: config.Seconds(cfg.Embedding.TimeoutSecs),
		StoreTimeout: config.Seconds(cfg.Ingest.StoreTimeoutSecs),
	}, logger)
}

// newAnswerUseCase puts the question embedding cache in front of embedder.
func newAnswerUseCase(cfg *config.Config, embedder port.Embedder, segments port.SegmentStore, model port.LLM) (*usecase.AnswerUseCase, error) {
	prompt, err := usecase.NewPromptBuilder(cfg.Query.PromptTemplate)
	if err != nil {
		return nil, err
	}

	if cfg.Embedding.CacheSize > 0 {
		embedder = cache.NewEmbeddingCache(embedder, cfg.Embedding.CacheSize, config.Seconds(cfg.Embedding.CacheTTLSecs))
	}

	return usecase.NewAnswerUseCase(embedder, segments, model, prompt, usecase.AnswerOptions{
		TopK:              cfg.Query.TopK,
		MaxQuestionLength: cfg.Query.MaxQuestionLength,
		EmbedTimeout:      config.Seconds(cfg.Embedding.TimeoutSecs),
		RetrievalTimeout:  config.Seconds(cfg.Query.RetrievalTimeoutSecs),
		GenerationTimeout: config.Seconds(cfg.LLM.TimeoutSecs),
	}, logger), nil
}

func newBlogScraper(cfg *config.Config, url string) *scraper.BlogScraper {
	if url == "" {
		url = cfg.Scraper.URL
	}
	return scraper.NewBlogScraper(url, cfg.Scraper.UserAgent, config.Seconds(cfg.Scraper.TimeoutSecs))
}

func statsFor(cfg *config.Config, embedder port.Embedder) domain.Stats {
	return domain.Stats{Backend: cfg.Store.Backend, EmbeddingModel: embedder.ModelName()}
}
