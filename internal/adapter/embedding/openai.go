package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	ollamaBaseURL = "http://localhost:11434/v1"
)

// OpenAIEmbedder calls any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	batchSize int

	mu        sync.RWMutex
	dimension int
}

// Options configures an OpenAIEmbedder.
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int // 0 means learn it from the first response
	BatchSize int
	Timeout   time.Duration
}

func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string, opts Options) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	opts.APIKey, opts.Model, opts.BaseURL = apiKey, model, baseURL
	return NewOpenAICompatibleEmbedder(opts), nil
}

func NewOllamaEmbedder(model, baseURL string, opts Options) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	opts.APIKey, opts.Model, opts.BaseURL = "ollama", model, baseURL
	return NewOpenAICompatibleEmbedder(opts)
}

func NewOpenAICompatibleEmbedder(opts Options) *OpenAIEmbedder {
	reqOpts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/") + "/"),
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 64
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(reqOpts...),
		model:     opts.Model,
		dimension: opts.Dimension,
		batchSize: batchSize,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		vectors, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(vectors) {
			return nil, fmt.Errorf("embedding response has out of range index %d", data.Index)
		}
		vectors[data.Index] = toFloat32(data.Embedding)
	}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedding response missing vector for input %d", i)
		}
	}
	if err := e.checkDimension(len(vectors[0])); err != nil {
		return nil, err
	}
	for _, v := range vectors[1:] {
		if len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", len(vectors[0]), len(v))
		}
	}

	return vectors, nil
}

// checkDimension records the first dimension seen and rejects any other.
func (e *OpenAIEmbedder) checkDimension(dim int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dimension == 0 {
		e.dimension = dim
	}
	if dim != e.dimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, dim)
	}
	return nil
}

func (e *OpenAIEmbedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
