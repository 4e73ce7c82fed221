// Command compute runs the full signal/persona/recommendation pipeline for
// every stored user, optionally exporting the resulting persona assignments
// to BigQuery.
package main

import (
	"context"
	"flag"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"

	"github.com/dvloznov/spendsense/internal/catalog"
	"github.com/dvloznov/spendsense/internal/config"
	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/export"
	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/pipeline"
	"github.com/dvloznov/spendsense/internal/recommend"
	"github.com/dvloznov/spendsense/internal/signals"
	fsstore "github.com/dvloznov/spendsense/internal/store/firestore"
)

func main() {
	_ = godotenv.Load()

	var (
		window         = flag.String("time-window", "", "Limit to one window (30d or 180d); default runs both")
		exportBigQuery = flag.Bool("export-bigquery", false, "Export persona assignments to BigQuery after recompute")
		timeout        = flag.Duration("timeout", 30*time.Minute, "Overall run timeout")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.StoreBackend != "firestore" {
		log.Fatal().Msg("Batch recompute requires STORE_BACKEND=firestore")
	}

	windows := []domain.TimeWindow{domain.Window30d, domain.Window180d}
	if *window != "" {
		parsed, err := domain.ParseTimeWindow(*window)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --time-window")
		}
		windows = []domain.TimeWindow{parsed}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Firestore client")
	}
	defer client.Close()
	st := fsstore.New(client, log)

	cat := catalog.Default()
	if cfg.CatalogBucket != "" {
		cat, err = catalog.LoadFromGCS(ctx, cfg.CatalogBucket, cfg.CatalogObject)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load content catalog")
		}
	}

	var rationale recommend.RationaleGenerator = recommend.NewTemplateRenderer()
	if cfg.RationaleBackend == "gemini" {
		rationale, err = recommend.NewGeminiRationaleGenerator(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini rationale generator")
		}
	}

	engine := signals.NewEngine(st, log)
	assigner := persona.NewAssigner(st, engine, log)
	matcher := recommend.NewMatcher(st, engine, assigner, cat, rationale, recommend.NewToneValidator(), log)
	runner := pipeline.NewRunner(st, engine, assigner, matcher, log)

	processed, err := runner.RecomputeAll(ctx, windows)
	if err != nil {
		log.Fatal().Err(err).Int("processed", processed).Msg("Batch recompute finished with failures")
	}
	log.Info().Int("processed", processed).Msg("Batch recompute finished")

	if !*exportBigQuery {
		return
	}

	bqClient, err := bigquery.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer bqClient.Close()

	exporter := export.NewExporter(bqClient, assigner, st, cfg.BigQueryDataset, cfg.BigQueryTable, log)
	rows, err := exporter.ExportAssignments(ctx, windows)
	if err != nil {
		log.Fatal().Err(err).Msg("BigQuery export failed")
	}
	log.Info().Int("rows", rows).Msg("BigQuery export finished")
}
