package llm

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

// Client is a chat-completions client for any OpenAI-compatible endpoint.
type Client struct {
	client openai.Client
	model  string
	params Params

	mu    sync.Mutex
	stats Stats
}

// Params are the sampling parameters sent with every request.
type Params struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

// Stats tracks usage reported by the server.
type Stats struct {
	TotalCalls        int
	TotalInputTokens  int64
	TotalOutputTokens int64
}

var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
}{
	"deepseek": {"https://api.deepseek.com/v1", "DEEPSEEK_API_KEY"},
	"openai":   {"https://api.openai.com/v1", "OPENAI_API_KEY"},
	"ollama":   {"http://localhost:11434/v1", ""},
}

// NewClient creates a client for provider. baseURL and apiKeyEnv override the provider defaults.
func NewClient(provider, model, baseURL, apiKeyEnv string, params Params) (*Client, error) {
	p, ok := providers[provider]
	if !ok && baseURL == "" {
		return nil, fmt.Errorf("unknown provider: %s (set llm.base_url for custom endpoints)", provider)
	}
	if baseURL == "" {
		baseURL = p.baseURL
	}

	keyEnv := p.keyEnvVar
	if apiKeyEnv != "" && provider != "ollama" {
		keyEnv = apiKeyEnv
	}
	apiKey := "ollama"
	if keyEnv != "" {
		apiKey = os.Getenv(keyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found. Set %s environment variable", keyEnv)
		}
	}

	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if params.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(params.Timeout))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
		params: params,
	}, nil
}

// Generate sends prompt as a single user message and returns the first choice.
// Blank output is returned as is; callers decide whether that is a failure.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if c.params.Temperature > 0 {
		req.Temperature = openai.Float(c.params.Temperature)
	}
	if c.params.TopP > 0 {
		req.TopP = openai.Float(c.params.TopP)
	}
	if c.params.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(c.params.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	c.mu.Lock()
	c.stats.TotalCalls++
	c.stats.TotalInputTokens += resp.Usage.PromptTokens
	c.stats.TotalOutputTokens += resp.Usage.CompletionTokens
	c.mu.Unlock()

	return resp.Choices[0].Message.Content, nil
}

// GetStats returns the current usage statistics.
func (c *Client) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Client) ModelName() string {
	return c.model
}
