package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`

	// Embedding model endpoint (OpenAI-compatible /embeddings, Ollama, or a proxy)
	EmbeddingURL        string        `envconfig:"EMBEDDING_URL"`
	EmbeddingAPIKey     string        `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	EmbedMinInterval    time.Duration `envconfig:"EMBED_MIN_INTERVAL" default:"100ms"`

	// Generation model (OpenAI chat completions, or a compatible gateway)
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY"`
	GenerationModel   string `envconfig:"GENERATION_MODEL" default:"gpt-4o-mini"`
	GenerationBaseURL string `envconfig:"GENERATION_BASE_URL"`

	TopK        int `envconfig:"TOP_K" default:"5"`
	ChunkWindow int `envconfig:"CHUNK_WINDOW" default:"400"`

	// Optional static bearer token guarding /ask, /ingest and /sources
	APIToken string `envconfig:"API_TOKEN"`

	// Configured sources
	PDFDir           string   `envconfig:"PDF_DIR"`
	ArticleURLs      []string `envconfig:"ARTICLE_URLS"`
	ChatFeedURL      string   `envconfig:"CHATFEED_URL"`
	ChatFeedChannels []string `envconfig:"CHATFEED_CHANNELS"`

	LoadOnStart    bool          `envconfig:"LOAD_ON_START" default:"true"`
	ReloadInterval time.Duration `envconfig:"RELOAD_INTERVAL" default:"15m"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ASKLORE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasEmbedding() bool {
	return c.EmbeddingURL != ""
}

func (c *Config) HasGeneration() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasAuthToken() bool {
	return c.APIToken != ""
}
