package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendsense/internal/api/handlers"
	"github.com/dvloznov/spendsense/internal/api/middleware"
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
	// Load .env if present; real deployments set env vars directly
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	cat, err := loadCatalog(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load content catalog")
	}

	rationale, err := buildRationale(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rationale generator")
	}

	// Core engine wiring
	engine := signals.NewEngine(st, log)
	assigner := persona.NewAssigner(st, engine, log)
	matcher := recommend.NewMatcher(st, engine, assigner, cat, rationale, recommend.NewToneValidator(), log)
	runner := pipeline.NewRunner(st, engine, assigner, matcher, log)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.JobQueueSize, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, runner.JobHandler()); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	signalsHandler := handlers.NewSignalsHandler(engine, log)
	personaHandler := handlers.NewPersonaHandler(assigner, log)
	recommendationsHandler := handlers.NewRecommendationsHandler(matcher, log)
	computeHandler := handlers.NewComputeHandler(jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/signals/", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r, http.MethodGet, "/api/v1/signals/")
		if ok {
			signalsHandler.GetSignals(w, r, userID)
		}
	})

	mux.HandleFunc("/api/v1/persona/", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r, http.MethodGet, "/api/v1/persona/")
		if ok {
			personaHandler.GetPersona(w, r, userID)
		}
	})

	mux.HandleFunc("/api/v1/recommendations/", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r, http.MethodGet, "/api/v1/recommendations/")
		if ok {
			recommendationsHandler.GetRecommendations(w, r, userID)
		}
	})

	mux.HandleFunc("/api/v1/compute/", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromPath(w, r, http.MethodPost, "/api/v1/compute/")
		if ok {
			computeHandler.Compute(w, r, userID)
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", handlers.Health)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

// userIDFromPath checks the method and extracts the trailing user ID,
// writing the error response itself when the request is malformed.
func userIDFromPath(w http.ResponseWriter, r *http.Request, method, prefix string) (string, bool) {
	if r.Method != method {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return "", false
	}
	userID := strings.TrimPrefix(r.URL.Path, prefix)
	if userID == "" || strings.Contains(userID, "/") {
		middleware.WriteError(w, http.StatusBadRequest, "User ID is required")
		return "", false
	}
	return userID, true
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, func(), error) {
	if cfg.StoreBackend == "firestore" {
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, err
		}
		return fsstore.New(client, log), func() { client.Close() }, nil
	}
	log.Warn().Msg("Using in-memory store - data is lost on restart")
	return memory.New(), func() {}, nil
}

func loadCatalog(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*catalog.Catalog, error) {
	if cfg.CatalogBucket == "" {
		return catalog.Default(), nil
	}
	log.Info().
		Str("bucket", cfg.CatalogBucket).
		Str("object", cfg.CatalogObject).
		Msg("Loading content catalog from GCS")
	return catalog.LoadFromGCS(ctx, cfg.CatalogBucket, cfg.CatalogObject)
}

func buildRationale(ctx context.Context, cfg *config.Config, log zerolog.Logger) (recommend.RationaleGenerator, error) {
	if cfg.RationaleBackend == "gemini" {
		log.Info().Msg("Using Gemini rationale generation")
		return recommend.NewGeminiRationaleGenerator(ctx)
	}
	return recommend.NewTemplateRenderer(), nil
}
