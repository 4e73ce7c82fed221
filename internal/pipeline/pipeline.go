// Package pipeline orchestrates the per-user recompute flow: signal
// computation, persona assignment, then recommendation generation. The API
// server runs it from queued jobs; the batch command runs it across all
// stored users.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/jobs"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/recommend"
	"github.com/dvloznov/spendsense/internal/signals"
	"github.com/dvloznov/spendsense/internal/store"
)

// SignalComputer recomputes and persists signals; implemented by
// signals.Engine.
type SignalComputer interface {
	ComputeAllFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*signals.SignalSet, error)
}

// PersonaAssigner scores stored signals into a persisted assignment;
// implemented by persona.Assigner.
type PersonaAssigner interface {
	AssignPersona(ctx context.Context, userID string, window domain.TimeWindow) (*persona.Assignment, error)
}

// RecommendationGenerator produces and persists recommendations; implemented
// by recommend.Matcher.
type RecommendationGenerator interface {
	Generate(ctx context.Context, userID string, window domain.TimeWindow) ([]recommend.Recommendation, error)
}

// Runner wires the three stages together.
type Runner struct {
	store    store.Store
	computer SignalComputer
	assigner PersonaAssigner
	matcher  RecommendationGenerator
	log      zerolog.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(st store.Store, computer SignalComputer, assigner PersonaAssigner, matcher RecommendationGenerator, log zerolog.Logger) *Runner {
	return &Runner{
		store:    st,
		computer: computer,
		assigner: assigner,
		matcher:  matcher,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// RecomputeUser runs the full flow for one user and window. Users with no
// stored activity produce an empty signal set; persona assignment and
// recommendation generation are skipped for them.
func (r *Runner) RecomputeUser(ctx context.Context, userID string, window domain.TimeWindow) error {
	start := time.Now()

	set, err := r.computer.ComputeAllFeatures(ctx, userID, window)
	if err != nil {
		return fmt.Errorf("RecomputeUser: compute signals for %s: %w", userID, err)
	}
	if set.Empty() {
		r.log.Info().
			Str("user_id", userID).
			Str("time_window", window.String()).
			Msg("No signals detected, skipping persona and recommendations")
		return nil
	}

	assignment, err := r.assigner.AssignPersona(ctx, userID, window)
	if err != nil {
		return fmt.Errorf("RecomputeUser: assign persona for %s: %w", userID, err)
	}

	recs, err := r.matcher.Generate(ctx, userID, window)
	if err != nil {
		return fmt.Errorf("RecomputeUser: generate recommendations for %s: %w", userID, err)
	}

	r.log.Info().
		Str("user_id", userID).
		Str("time_window", window.String()).
		Str("persona", assignment.Persona).
		Int("recommendations", len(recs)).
		Dur("duration", time.Since(start)).
		Msg("Recompute complete")

	return nil
}

// RecomputeAll runs RecomputeUser for every stored user across the given
// windows. Per-user failures are logged and counted, not fatal.
func (r *Runner) RecomputeAll(ctx context.Context, windows []domain.TimeWindow) (int, error) {
	userIDs, err := r.store.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("RecomputeAll: list users: %w", err)
	}

	var processed, failed int
	for _, userID := range userIDs {
		for _, window := range windows {
			if err := r.RecomputeUser(ctx, userID, window); err != nil {
				r.log.Error().
					Err(err).
					Str("user_id", userID).
					Str("time_window", window.String()).
					Msg("Recompute failed for user")
				failed++
				continue
			}
			processed++
		}
	}

	r.log.Info().
		Int("users", len(userIDs)).
		Int("processed", processed).
		Int("failed", failed).
		Msg("Batch recompute complete")

	if failed > 0 {
		return processed, fmt.Errorf("RecomputeAll: %d of %d runs failed", failed, processed+failed)
	}
	return processed, nil
}

// JobHandler adapts the runner to the job queue.
func (r *Runner) JobHandler() jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		recompute, ok := job.(*jobs.RecomputeUserJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		window, err := domain.ParseTimeWindow(recompute.TimeWindow)
		if err != nil {
			return fmt.Errorf("job %s: %w", recompute.JobID, err)
		}

		r.log.Info().
			Str("job_id", recompute.JobID).
			Str("user_id", recompute.UserID).
			Str("time_window", recompute.TimeWindow).
			Msg("Processing recompute job")

		return r.RecomputeUser(ctx, recompute.UserID, window)
	}
}
