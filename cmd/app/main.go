package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/dialogue"
	"careercoach/internal/gemini"
	"careercoach/internal/httpserver"
	"careercoach/internal/recommend"
	"careercoach/internal/respond"
	"careercoach/internal/transport"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)

	// The generative stage is optional: without an API key the pipeline
	// still serves FAQ answers and canned fallbacks.
	var generator respond.TextGenerator
	if cfg.Gemini.APIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.Gemini, httpClient, logger)
		if err != nil {
			log.Fatalf("failed to init gemini client: %v", err)
		}
		generator = client
		logger.Info("generative stage enabled", slog.String("model", cfg.Gemini.Model))
	} else {
		logger.Warn("GEMINI_API_KEY is not set, generative stage disabled")
	}

	faq := respond.LoadFAQ(cfg.Dialogue.FAQPath, logger)
	pipeline := respond.NewPipeline(respond.PipelineConfig{
		FAQ:       faq,
		Generator: generator,
		Logger:    logger,
	})

	var store dialogue.SnapshotStore
	switch strings.ToLower(cfg.Dialogue.StoreType) {
	case "memory":
		store = dialogue.NewMemoryStore()
	default:
		fileStore, err := dialogue.NewFileStore(cfg.Dialogue.StoragePath, logger)
		if err != nil {
			log.Fatalf("failed to init context store: %v", err)
		}
		store = fileStore
	}

	manager := dialogue.NewManager(dialogue.ManagerConfig{
		Store:         store,
		Responder:     pipeline,
		MaxHistory:    cfg.Dialogue.MaxHistory,
		ContextMaxAge: cfg.Dialogue.ContextMaxAge,
		Logger:        logger,
	})

	catalog, err := recommend.OpenCatalog(cfg.Jobs.DBDir)
	if err != nil {
		log.Fatalf("failed to open job catalog: %v", err)
	}
	defer catalog.Close()

	recommendSvc := recommend.NewService(catalog, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:    logger,
		Chat:      httpserver.NewChatHandler(manager, logger),
		Recommend: httpserver.NewRecommendHandler(recommendSvc),
		Resume:    httpserver.NewResumeMatchHandler(logger),
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
	}

	// Let in-flight recommendation jobs land before the process exits.
	recommendSvc.Wait()

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
