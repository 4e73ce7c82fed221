// Package notionsync mirrors stored recommendations into a Notion database
// so reviewers can audit what users are being shown and why.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/recommend"
	"github.com/dvloznov/spendsense/internal/store"
)

const (
	// BatchSize defines the number of recommendations to process in a single batch
	BatchSize = 100
)

// RecommendationSource loads a user's stored recommendations; implemented by
// recommend.Matcher.
type RecommendationSource interface {
	Recommendations(ctx context.Context, userID string) ([]recommend.Recommendation, error)
}

// SyncRecommendations mirrors every user's stored recommendations into the
// Notion review database. The Recommendation ID title property tracks pages
// for idempotency:
// 1. Queries all existing Notion pages
// 2. Archives stale pages (recommendations that no longer exist)
// 3. Creates pages for new recommendations, updates existing ones
func SyncRecommendations(ctx context.Context, st store.Store, source RecommendationSource, notionClient NotionService, notionDBID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Bool("dry_run", dryRun).
		Msg("Starting recommendation sync to Notion")

	userIDs, err := st.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var recommendations []recommend.Recommendation
	for _, userID := range userIDs {
		recs, err := source.Recommendations(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load recommendations for %s: %w", userID, err)
		}
		recommendations = append(recommendations, recs...)
	}

	log.Info().Int("recommendation_count", len(recommendations)).Msg("Collected stored recommendations")

	// Build set of valid recommendation IDs
	validIDs := make(map[string]bool)
	for _, rec := range recommendations {
		validIDs[rec.RecommendationID] = true
	}

	// Query all existing pages from Notion
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Map of existing recommendation IDs to their page IDs
	existingPages := make(map[string]string)

	// Archive stale pages (no ID, or recommendation no longer stored)
	var deleted int
	for _, page := range notionPages {
		recID := extractRecommendationID(page)

		if recID != "" && validIDs[recID] {
			existingPages[recID] = string(page.ID)
			continue
		}

		if dryRun {
			log.Info().
				Str("recommendation_id", recID).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			deleted++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("recommendation_id", recID).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Archived stale recommendation pages")
	}

	// Process recommendations in batches
	var created, updated int
	for i := 0; i < len(recommendations); i += BatchSize {
		end := i + BatchSize
		if end > len(recommendations) {
			end = len(recommendations)
		}

		for _, rec := range recommendations[i:end] {
			props := RecommendationToNotionProperties(&rec)

			if pageID, exists := existingPages[rec.RecommendationID]; exists {
				if dryRun {
					log.Info().
						Str("recommendation_id", rec.RecommendationID).
						Msg("[DRY RUN] Would update existing Notion page")
					updated++
					continue
				}
				if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
					log.Warn().
						Err(err).
						Str("recommendation_id", rec.RecommendationID).
						Msg("Failed to update Notion page")
					continue
				}
				updated++
				continue
			}

			if dryRun {
				log.Info().
					Str("recommendation_id", rec.RecommendationID).
					Msg("[DRY RUN] Would create new Notion page")
				created++
				continue
			}
			if _, err := notionClient.CreatePage(ctx, notionDBID, props); err != nil {
				log.Warn().
					Err(err).
					Str("recommendation_id", rec.RecommendationID).
					Msg("Failed to create Notion page")
				continue
			}
			created++
		}
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("deleted", deleted).
		Msg("Recommendation sync complete")

	return nil
}

// queryAllNotionPages pages through the whole database.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{
		PageSize: 100,
	}
	for {
		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			break
		}
		req.StartCursor = resp.NextCursor
	}

	return pages, nil
}
