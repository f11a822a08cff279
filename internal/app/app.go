// Package app builds the service components from configuration. The API
// server and the command line tools share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/taxease/internal/chat"
	"github.com/dvloznov/taxease/internal/classifier"
	"github.com/dvloznov/taxease/internal/config"
	"github.com/dvloznov/taxease/internal/gcsuploader"
	infraBQ "github.com/dvloznov/taxease/internal/infra/bigquery"
	"github.com/dvloznov/taxease/internal/jobs"
	"github.com/dvloznov/taxease/internal/llm"
	"github.com/dvloznov/taxease/internal/ollama"
	"github.com/dvloznov/taxease/internal/pipeline"
	"github.com/dvloznov/taxease/internal/rag"
	"github.com/dvloznov/taxease/internal/session"
	"github.com/dvloznov/taxease/internal/session/boltdb"
	"github.com/dvloznov/taxease/internal/session/inmemory"
	"github.com/dvloznov/taxease/internal/session/postgres"
	"github.com/dvloznov/taxease/internal/statement"
)

// App holds the wired components. Close releases every client it opened.
type App struct {
	Config     *config.Config
	Log        zerolog.Logger
	Store      session.Store
	Classifier *classifier.Classifier
	Parser     *statement.Parser
	Index      *rag.Index
	Corpus     rag.CorpusLoader
	Chain      *llm.Chain
	Chat       *chat.Service
	Upload     *pipeline.Pipeline
	// Objects is nil unless archiving or a gs:// corpus is configured.
	Objects *gcsuploader.Client

	closers []io.Closer
}

// New wires everything cfg enables. The knowledge index is created empty;
// call BuildIndex to populate it.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	cls, err := NewClassifier(cfg)
	if err != nil {
		return err
	}
	a.Classifier = cls
	a.Parser = statement.NewParser(cls, a.Log)

	store, err := NewStore(ctx, cfg, a.Log)
	if err != nil {
		return err
	}
	a.Store = store
	a.closers = append(a.closers, store)

	var gemini *genai.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return fmt.Errorf("init: creating genai client: %w", err)
		}
	}
	var ollamaClient *ollama.Client
	if cfg.OllamaHost != "" {
		ollamaClient = ollama.NewClient(cfg.OllamaHost, cfg.LLMTimeout)
	}

	embedder, err := newEmbedder(cfg, gemini, ollamaClient)
	if err != nil {
		return err
	}
	var fileStore *rag.FileStore
	if cfg.IndexPath != "" {
		fileStore = rag.NewFileStore(cfg.IndexPath)
	}
	a.Index = rag.NewIndex(embedder, fileStore, rag.IndexOptions{ChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}, a.Log)

	var objects *gcsuploader.Client
	if cfg.ArchiveEnabled() || gcsuploader.IsURI(cfg.KnowledgeDir) {
		objects, err = gcsuploader.NewClient(ctx, cfg.GoogleCredentialsFile, a.Log)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, objects)
		a.Objects = objects
	}
	if gcsuploader.IsURI(cfg.KnowledgeDir) {
		a.Corpus = gcsuploader.NewCorpusLoader(objects, cfg.KnowledgeDir)
	} else {
		a.Corpus = rag.DirLoader{Dir: cfg.KnowledgeDir}
	}

	a.Chain = llm.NewChain(a.Log, llm.ScriptedReply, providers(cfg, gemini, ollamaClient)...)
	a.Chat = chat.NewService(a.Store, a.Index, a.Chain, chat.Options{TopK: cfg.TopK, Timeout: cfg.LLMTimeout}, a.Log)

	var opts pipeline.Options
	if cfg.ArchiveEnabled() {
		opts.Archive = gcsuploader.NewRawArchive(objects, cfg.GCSBucket)
	}
	if cfg.ExportEnabled() {
		repo, err := infraBQ.NewBigQueryTransactionRepository(ctx, cfg.BQProject, cfg.BQDataset, cfg.GoogleCredentialsFile, cls.Section)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, repo)
		opts.Exporter = repo
	}
	a.Upload = pipeline.NewUploadPipeline(a.Parser, a.Store, opts, a.Log)

	a.Log.Info().
		Str("store", cfg.StoreBackend).
		Str("embedder", embedder.Model()).
		Strs("providers", a.Chain.Providers()).
		Bool("archive", cfg.ArchiveEnabled()).
		Bool("export", cfg.ExportEnabled()).
		Msg("Components initialized")
	return nil
}

// BuildIndex loads the configured corpus into the index.
func (a *App) BuildIndex(ctx context.Context) (int, error) {
	return a.Index.BuildFrom(ctx, a.Corpus)
}

// RebuildIndexHandler is the job handler for index rebuild jobs. The job
// records the chunk count of the published index.
func (a *App) RebuildIndexHandler(ctx context.Context, job *jobs.RebuildIndexJob) error {
	n, err := a.BuildIndex(ctx)
	if err != nil {
		return err
	}
	job.Chunks = n
	return nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewClassifier returns the default classifier, or one built from
// CLASSIFIER_RULES when set.
func NewClassifier(cfg *config.Config) (*classifier.Classifier, error) {
	if cfg.ClassifierRules == "" {
		return classifier.New(), nil
	}
	rules, err := classifier.LoadRules(cfg.ClassifierRules)
	if err != nil {
		return nil, fmt.Errorf("NewClassifier: %w", err)
	}
	return classifier.NewWithRules(rules), nil
}

// NewStore opens the session store selected by STORE_BACKEND.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (session.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBolt:
		return boltdb.Open(cfg.BoltPath)
	case config.StorePostgres:
		return postgres.Open(ctx, postgres.Config{DSN: cfg.DatabaseURL, AutoMigrate: true}, log)
	default:
		return inmemory.NewStore(), nil
	}
}

func newEmbedder(cfg *config.Config, gemini *genai.Client, ollamaClient *ollama.Client) (rag.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.EmbeddingOllama:
		if ollamaClient == nil {
			return nil, errors.New("newEmbedder: ollama embeddings need OLLAMA_HOST")
		}
		return rag.NewOllamaEmbedder(ollamaClient, cfg.EmbeddingModel), nil
	case config.EmbeddingGemini:
		if gemini == nil {
			return nil, errors.New("newEmbedder: gemini embeddings need GEMINI_API_KEY")
		}
		return rag.NewGeminiEmbedder(gemini, ""), nil
	default:
		return rag.NewHashEmbedder(0), nil
	}
}

// providers lists the configured LLM providers in fallback order: Gemini,
// Anthropic, then a local Ollama.
func providers(cfg *config.Config, gemini *genai.Client, ollamaClient *ollama.Client) []llm.Provider {
	var out []llm.Provider
	if gemini != nil {
		out = append(out, llm.NewGemini(gemini, cfg.GeminiModel))
	}
	if cfg.AnthropicAPIKey != "" {
		out = append(out, llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel))
	}
	if ollamaClient != nil {
		out = append(out, llm.NewOllama(ollamaClient, cfg.OllamaModel))
	}
	return out
}
