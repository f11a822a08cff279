// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// Embedding providers.
const (
	EmbeddingHash   = "hash"
	EmbeddingOllama = "ollama"
	EmbeddingGemini = "gemini"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Port       string `koanf:"PORT"`
	LogLevel   string `koanf:"LOG_LEVEL"`
	CORSOrigin string `koanf:"CORS_ORIGIN"`

	// StoreBackend selects the session store: memory, bolt or postgres.
	StoreBackend string `koanf:"STORE_BACKEND"`
	BoltPath     string `koanf:"BOLT_PATH"`
	DatabaseURL  string `koanf:"DATABASE_URL"`

	// KnowledgeDir is a local directory or a gs://bucket/prefix location.
	KnowledgeDir string `koanf:"KNOWLEDGE_DIR"`
	IndexPath    string `koanf:"INDEX_PATH"`
	ChunkSize    int    `koanf:"CHUNK_SIZE"`
	ChunkOverlap int    `koanf:"CHUNK_OVERLAP"`
	TopK         int    `koanf:"TOP_K"`

	EmbeddingProvider string `koanf:"EMBEDDING_PROVIDER"`
	EmbeddingModel    string `koanf:"EMBEDDING_MODEL"`

	OllamaHost      string        `koanf:"OLLAMA_HOST"`
	OllamaModel     string        `koanf:"OLLAMA_MODEL"`
	GeminiAPIKey    string        `koanf:"GEMINI_API_KEY"`
	GeminiModel     string        `koanf:"GEMINI_MODEL"`
	AnthropicAPIKey string        `koanf:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `koanf:"ANTHROPIC_MODEL"`
	LLMTimeout      time.Duration `koanf:"LLM_TIMEOUT"`

	// ClassifierRules is an optional YAML file overriding the keyword rules.
	ClassifierRules string `koanf:"CLASSIFIER_RULES"`

	// GCSBucket enables archiving raw uploads when set.
	GCSBucket string `koanf:"GCS_BUCKET"`
	// BQProject enables exporting classified transactions when set.
	BQProject             string `koanf:"BQ_PROJECT"`
	BQDataset             string `koanf:"BQ_DATASET"`
	GoogleCredentialsFile string `koanf:"GOOGLE_CREDENTIALS_FILE"`
}

// Default returns the configuration used for unset variables.
func Default() Config {
	return Config{
		Port:              "8000",
		LogLevel:          "info",
		CORSOrigin:        "http://localhost:3000",
		StoreBackend:      StoreMemory,
		BoltPath:          "taxease.db",
		KnowledgeDir:      "./knowledge",
		IndexPath:         "./data/index.jsonl",
		ChunkSize:         500,
		ChunkOverlap:      50,
		TopK:              3,
		EmbeddingProvider: EmbeddingHash,
		EmbeddingModel:    "nomic-embed-text",
		OllamaModel:       "llama3",
		GeminiModel:       "gemini-2.5-flash",
		AnthropicModel:    "claude-sonnet-4-5",
		LLMTimeout:        30 * time.Second,
		BQDataset:         "taxease",
	}
}

// Load reads envFile (when it exists) into the process environment without
// overriding variables already set, then builds a Config from the
// environment on top of Default.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("Load: reading %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("Load: loading environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("Load: unmarshaling config: %w", err)
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.EmbeddingProvider = strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and required combinations.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreMemory:
	case StoreBolt:
		if c.BoltPath == "" {
			errs = append(errs, errors.New("BOLT_PATH is required for the bolt store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q is not one of memory, bolt, postgres", c.StoreBackend))
	}

	switch c.EmbeddingProvider {
	case EmbeddingHash:
	case EmbeddingOllama:
		if c.OllamaHost == "" {
			errs = append(errs, errors.New("OLLAMA_HOST is required for ollama embeddings"))
		}
	case EmbeddingGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for gemini embeddings"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMBEDDING_PROVIDER %q is not one of hash, ollama, gemini", c.EmbeddingProvider))
	}

	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be greater than zero, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be zero or greater, got %d", c.ChunkOverlap))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("TOP_K must be greater than zero, got %d", c.TopK))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("Validate: %w", errors.Join(errs...))
	}
	return nil
}

// ArchiveEnabled reports whether raw uploads are copied to GCS.
func (c *Config) ArchiveEnabled() bool {
	return c.GCSBucket != ""
}

// ExportEnabled reports whether classified transactions go to BigQuery.
func (c *Config) ExportEnabled() bool {
	return c.BQProject != ""
}
