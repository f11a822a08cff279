package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreBackend != StoreMemory && os.Getenv("STORE_BACKEND") == "" {
		t.Errorf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
	if cfg.ChunkSize <= 0 || cfg.TopK <= 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "Bolt")
	t.Setenv("BOLT_PATH", "/tmp/x.db")
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("TOP_K", "5")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("EMBEDDING_PROVIDER", "hash")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" || cfg.StoreBackend != StoreBolt || cfg.ChunkSize != 800 || cfg.TopK != 5 {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.LLMTimeout != 45*time.Second {
		t.Errorf("LLMTimeout = %v, want 45s", cfg.LLMTimeout)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OLLAMA_MODEL=mistral\nTOP_K=7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv sets variables directly; register them for cleanup.
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("TOP_K", "")
	os.Unsetenv("OLLAMA_MODEL")
	os.Unsetenv("TOP_K")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OllamaModel != "mistral" || cfg.TopK != 7 {
		t.Errorf("env file not applied: model %q, top_k %d", cfg.OllamaModel, cfg.TopK)
	}
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Load() error = %v, want nil for missing env file", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown store", func(c *Config) { c.StoreBackend = "redis" }, "STORE_BACKEND"},
		{"postgres without url", func(c *Config) { c.StoreBackend = StorePostgres }, "DATABASE_URL"},
		{"ollama without host", func(c *Config) { c.EmbeddingProvider = EmbeddingOllama }, "OLLAMA_HOST"},
		{"gemini without key", func(c *Config) { c.EmbeddingProvider = EmbeddingGemini }, "GEMINI_API_KEY"},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "CHUNK_SIZE"},
		{"zero top k", func(c *Config) { c.TopK = 0 }, "TOP_K"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
