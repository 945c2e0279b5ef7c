// Package main provides the StudyMate API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgersbach/studymate/internal/chat"
	"github.com/mgersbach/studymate/internal/config"
	"github.com/mgersbach/studymate/internal/db"
	"github.com/mgersbach/studymate/internal/llm"
	"github.com/mgersbach/studymate/internal/materials"
	"github.com/mgersbach/studymate/internal/memory"
	"github.com/mgersbach/studymate/internal/metrics"
	"github.com/mgersbach/studymate/internal/server"
	"github.com/mgersbach/studymate/internal/timetable"
)

// lazySummarizer defers model construction to the first compaction pass,
// so the server starts even when the completion provider is unreachable.
type lazySummarizer struct {
	cfg config.Config
}

func (s *lazySummarizer) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	model, err := llm.NewModel(ctx, s.cfg, s.cfg.APIKey())
	if err != nil {
		return "", err
	}
	return model.Generate(ctx, prompt, temperature)
}

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()
	slog.SetDefault(logger)

	slog.Info("starting studymate-server", "port", cfg.ServerPort, "provider", cfg.LLMProvider)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	if *wipeDB || os.Getenv("STUDYMATE_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := dbClient.WipeData(ctx)
		cancel()
		if err != nil {
			slog.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		slog.Warn("wiped all data on startup")
	}

	collector := metrics.NewCollector()
	retriever := memory.NewRetriever(dbClient, logger)
	pruner := memory.NewPruner(dbClient, &lazySummarizer{cfg: cfg}, logger)

	newModel := func(ctx context.Context, apiKey string) (chat.Generator, error) {
		return llm.NewModel(ctx, cfg, apiKey)
	}
	chatSvc := chat.NewService(dbClient, retriever, pruner, materials.Noop{}, newModel, collector, logger)

	importer := timetable.NewImporter(dbClient, cfg.TimetableSheetHint, collector, logger)

	srv := server.New(cfg, chatSvc, importer, dbClient, collector, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // Long for LLM responses
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
