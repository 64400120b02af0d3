package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the RAG service.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Query     QueryConfig     `yaml:"query"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig selects and configures the vector store.
type StoreConfig struct {
	Backend        string `yaml:"backend"`          // "bolt", "memory", "pgvector"
	Path           string `yaml:"path"`             // bolt file, relative to the data dir root
	DatabaseURLEnv string `yaml:"database_url_env"` // env var holding the Postgres URL
	Table          string `yaml:"table"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"` // "ollama", "openai", "hash"
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	Dimension    int    `yaml:"dimension"`
	BatchSize    int    `yaml:"batch_size"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
	CacheSize    int    `yaml:"cache_size"` // question embeddings kept in memory, 0 disables
	CacheTTLSecs int    `yaml:"cache_ttl_secs"`
}

// LLMConfig holds language model configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "ollama", "openai", "deepseek"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// QueryConfig holds question answering configuration.
type QueryConfig struct {
	TopK                 int    `yaml:"top_k"`
	MaxQuestionLength    int    `yaml:"max_question_length"`
	PromptTemplate       string `yaml:"prompt_template"` // optional file overriding the built-in prompt
	RetrievalTimeoutSecs int    `yaml:"retrieval_timeout_secs"`
}

// IngestConfig holds ingestion configuration.
type IngestConfig struct {
	StoreTimeoutSecs int      `yaml:"store_timeout_secs"`
	Includes         []string `yaml:"includes"`
	Excludes         []string `yaml:"excludes"`
}

// ScraperConfig configures the blog content source.
type ScraperConfig struct {
	URL         string `yaml:"url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	UserAgent   string `yaml:"user_agent"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:        "bolt",
			Path:           filepath.Join(DataDirName, "segments.db"),
			DatabaseURLEnv: "DATABASE_URL",
			Table:          "rag_segments",
		},
		Embedding: EmbeddingConfig{
			Provider:     "hash",
			Model:        "",
			APIKeyEnv:    "OPENAI_API_KEY",
			Dimension:    384,
			BatchSize:    64,
			TimeoutSecs:  30,
			CacheSize:    256,
			CacheTTLSecs: 600,
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "tinyllama",
			BaseURL:     "http://ollama:11434/v1",
			APIKeyEnv:   "LLM_API_KEY",
			Temperature: 0.2,
			TopP:        0.9,
			MaxTokens:   1000,
			TimeoutSecs: 120,
		},
		Query: QueryConfig{
			TopK:                 3,
			MaxQuestionLength:    500,
			RetrievalTimeoutSecs: 10,
		},
		Ingest: IngestConfig{
			StoreTimeoutSecs: 30,
			Includes:         []string{"**/*.txt", "**/*.md", "**/*.pdf"},
			Excludes:         []string{"**/.git/**", "**/node_modules/**", "**/" + DataDirName + "/**"},
		},
		Scraper: ScraperConfig{
			URL:         "https://hotmart.com/pt-br/blog/como-funciona-hotmart",
			TimeoutSecs: 10,
			UserAgent:   "hotmart-rag/1.0",
		},
		Server: ServerConfig{
			Addr:             ":8000",
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 180,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DataDirName is the per-project directory holding local state.
const DataDirName = ".rag"

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for rag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "rag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, DataDirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides deployment-specific settings from the environment.
func (c *Config) ApplyEnv() {
	c.Server.Addr = getEnv("RAG_HTTP_ADDR", c.Server.Addr)
	c.Store.Backend = getEnv("RAG_STORE_BACKEND", c.Store.Backend)
	c.Embedding.Provider = getEnv("RAG_EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.BaseURL = getEnv("RAG_EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.Model = getEnv("RAG_EMBEDDING_MODEL", c.Embedding.Model)
	c.LLM.Provider = getEnv("RAG_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.BaseURL = getEnv("RAG_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("RAG_LLM_MODEL", c.LLM.Model)
	c.Logging.Level = getEnv("RAG_LOG_LEVEL", c.Logging.Level)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "bolt", "memory", "pgvector":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Embedding.Provider {
	case "ollama", "openai", "hash":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	switch c.LLM.Provider {
	case "ollama", "openai", "deepseek":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Query.TopK <= 0 {
		return fmt.Errorf("query.top_k must be positive, got %d", c.Query.TopK)
	}
	if c.Query.MaxQuestionLength <= 0 {
		return fmt.Errorf("query.max_question_length must be positive, got %d", c.Query.MaxQuestionLength)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.Provider == "hash" && c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive for the hash provider")
	}
	return nil
}

// Seconds converts a *_secs setting to a duration. Zero or negative means no limit.
func Seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

// StorePath returns the bolt database path for a project directory.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// EnsureDataDir ensures the directory holding the store file exists.
func (c *Config) EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.StorePath(dir)), 0755)
}
