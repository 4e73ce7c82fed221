package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"

	"github.com/dvloznov/spendsense/internal/catalog"
	"github.com/dvloznov/spendsense/internal/config"
	"github.com/dvloznov/spendsense/internal/jobs/inmemory"
	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/pipeline"
	"github.com/dvloznov/spendsense/internal/recommend"
	"github.com/dvloznov/spendsense/internal/signals"
	"github.com/dvloznov/spendsense/internal/store"
	fsstore "github.com/dvloznov/spendsense/internal/store/firestore"
	"github.com/dvloznov/spendsense/internal/store/memory"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if cfg.StoreBackend == "firestore" {
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Firestore client")
		}
		defer client.Close()
		st = fsstore.New(client, log)
	} else {
		log.Warn().Msg("Using in-memory store - data is lost on restart")
		st = memory.New()
	}

	cat := catalog.Default()
	if cfg.CatalogBucket != "" {
		loaded, err := catalog.LoadFromGCS(ctx, cfg.CatalogBucket, cfg.CatalogObject)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load content catalog")
		}
		cat = loaded
	}

	var rationale recommend.RationaleGenerator = recommend.NewTemplateRenderer()
	if cfg.RationaleBackend == "gemini" {
		gemini, err := recommend.NewGeminiRationaleGenerator(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini rationale generator")
		}
		rationale = gemini
	}

	engine := signals.NewEngine(st, log)
	assigner := persona.NewAssigner(st, engine, log)
	matcher := recommend.NewMatcher(st, engine, assigner, cat, rationale, recommend.NewToneValidator(), log)
	runner := pipeline.NewRunner(st, engine, assigner, matcher, log)

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobQueueSize, jobStore)

	log.Info().Msg("Starting worker service")

	if err := jobQueue.Start(ctx, runner.JobHandler()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
