package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/taxease/internal/api"
	"github.com/dvloznov/taxease/internal/api/handlers"
	"github.com/dvloznov/taxease/internal/app"
	"github.com/dvloznov/taxease/internal/config"
	"github.com/dvloznov/taxease/internal/jobs/inmemory"
	"github.com/dvloznov/taxease/internal/logger"
)

func main() {
	var (
		envFile = flag.String("env-file", ".env", "Environment file loaded before reading configuration")
		port    = flag.String("port", "", "HTTP server port (overrides PORT)")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}
	log = logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Console: true})

	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer a.Close()

	// An unreachable embedding provider leaves the index empty; chat still
	// answers without knowledge context and a rebuild job can retry later.
	if n, err := a.BuildIndex(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial knowledge index build failed")
	} else {
		log.Info().Int("chunks", n).Msg("Knowledge index ready")
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(16, jobStore, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, a.RebuildIndexHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	chatHandler, err := handlers.NewChatHandler(a.Chat, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create chat handler")
	}

	router := api.NewRouter(api.Handlers{
		Statements: handlers.NewStatementsHandler(a.Upload, a.Store, log),
		Chat:       chatHandler,
		Jobs:       handlers.NewJobsHandler(jobQueue, jobStore, cfg.KnowledgeDir, log),
		Health:     handlers.NewHealthHandler(a.Index, a.Chain.Providers(), cfg.StoreBackend),
	}, cfg.CORSOrigin, log)

	// WriteTimeout covers a full provider fallback chain on /api/chat.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
