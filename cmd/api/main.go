package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meeting-search/internal/analytics"
	"meeting-search/internal/config"
	"meeting-search/internal/handlers"
	"meeting-search/internal/http"
	"meeting-search/internal/ingest"
	"meeting-search/internal/llm"
	"meeting-search/internal/search"
	"meeting-search/internal/service"
	"meeting-search/internal/session"
	"meeting-search/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API indexes meeting transcripts and analyses and provides semantic search over them.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Meeting Search API
//   description: |
//     Session-scoped semantic search over meeting content.
//     Upload recordings or transcripts, then search them by meaning with metadata filters
//     and inspect per-session analytics.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
//   - multipart/form-data
// produces:
//   - application/json

const shutdownTimeout = 15 * time.Second

// validateEmbedder embeds a sample text and checks the returned vector size.
func validateEmbedder(ctx context.Context, embedder llm.Embedder, vectorSize int) error {
	vectors, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return err
	}
	if len(vectors) == 0 || len(vectors[0]) != vectorSize {
		got := 0
		if len(vectors) > 0 {
			got = len(vectors[0])
		}
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", vectorSize, got)
	}
	return nil
}

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Validate embedding client vector size (fail-fast), before any cleanup is deferred
	embedder := llm.NewEmbeddingsClient(
		cfg.EmbeddingBaseURL,
		cfg.EmbeddingAPIKey,
		cfg.EmbeddingModelName,
		cfg.EmbeddingVectorSize,
		llm.WithRateLimit(cfg.EmbeddingRateLimit),
	)
	if err := validateEmbedder(context.Background(), embedder, cfg.EmbeddingVectorSize); err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName, "vector_size", cfg.EmbeddingVectorSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Qdrant mirror
	var (
		qdrantStore *vectorstore.QdrantStore
		mirror      *vectorstore.Mirror
		healthCheck handlers.HealthChecker
	)
	if cfg.QdrantURL != "" {
		qdrantStore, err = vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer func() {
			_ = qdrantStore.Close()
		}()
		mirror = vectorstore.NewMirror(qdrantStore)
		healthCheck = mirror
		slog.Info("Qdrant mirror enabled", "url", cfg.QdrantURL)
	}

	// Session registry
	registryOpts := session.Options{
		DataDir:     cfg.DataDir,
		IdleTimeout: cfg.SessionIdleTimeout,
	}
	if mirror != nil {
		registryOpts.OnEvict = mirror.Drop
	}
	registry := session.NewRegistry(registryOpts)
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Error("Failed to close session registry", "error", err)
		}
	}()

	if registry.Persistent() {
		removed, err := registry.CleanupExpired(ctx)
		if err != nil {
			slog.Warn("Failed to clean up expired sessions", "error", err)
		}
		slog.Info("Session persistence enabled", "data_dir", cfg.DataDir, "expired_removed", removed)
	}
	registry.StartJanitor(ctx, cfg.SessionSweepInterval)

	// Ingestion collaborators. Without them uploads are limited to the
	// paths that do not need them.
	pipelineOpts := ingest.Options{
		Mirror:         mirror,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	if cfg.LLMBaseURL != "" {
		llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
		pipelineOpts.Analyzer = llm.NewAnalyzer(llmClient)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	} else {
		slog.Warn("LLM_BASE_URL not set, uploads are indexed without analysis")
	}
	if cfg.TranscribeBaseURL != "" {
		pipelineOpts.Transcriber = llm.NewTranscriptionClient(cfg.TranscribeBaseURL, cfg.LLMAPIKey, cfg.TranscribeModel)
	} else {
		slog.Warn("TRANSCRIBE_BASE_URL not set, audio uploads are disabled")
	}
	pipeline := ingest.NewPipeline(embedder, pipelineOpts)

	engine := search.NewEngine(embedder, search.Options{
		Overfetch:     cfg.SearchOverfetch,
		MinCandidates: cfg.SearchMinCandidates,
		SnippetLength: cfg.SnippetLength,
	})
	aggregator := analytics.NewAggregator(analytics.Options{
		RecentLimit:    cfg.RecentActivityLimit,
		EmbeddingModel: cfg.EmbeddingModelName,
	})

	meetingService := service.NewMeetingService(registry, pipeline, engine, aggregator, service.Options{
		SearchTimeout: cfg.SearchTimeout,
	})

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		Service:     meetingService,
		VectorStore: healthCheck,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}
}
