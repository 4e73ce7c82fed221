package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"

	"github.com/dvloznov/spendsense/internal/config"
	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/notionsync"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/recommend"
	"github.com/dvloznov/spendsense/internal/signals"
	fsstore "github.com/dvloznov/spendsense/internal/store/firestore"
)

func main() {
	_ = godotenv.Load()

	// Parse CLI flags
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.NotionToken == "" || cfg.NotionDatabaseID == "" {
		log.Fatal().Msg("NOTION_TOKEN and NOTION_DATABASE_ID are required")
	}
	if cfg.StoreBackend != "firestore" {
		log.Fatal().Msg("Notion sync requires STORE_BACKEND=firestore")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Bool("dry_run", *dryRun).Msg("Starting Notion sync")

	client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Firestore client")
	}
	defer client.Close()
	st := fsstore.New(client, log)

	// The matcher only reads stored recommendations here; the tone validator
	// and template renderer are never exercised.
	engine := signals.NewEngine(st, log)
	assigner := persona.NewAssigner(st, engine, log)
	matcher := recommend.NewMatcher(st, engine, assigner, nil, recommend.NewTemplateRenderer(), recommend.NewToneValidator(), log)

	notionClient := notionsync.NewNotionClient(cfg.NotionToken)

	if err := notionsync.SyncRecommendations(ctx, st, matcher, notionClient, cfg.NotionDatabaseID, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
