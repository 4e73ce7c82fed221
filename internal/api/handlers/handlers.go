// Package handlers contains the HTTP handlers for the insight API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendsense/internal/api/middleware"
	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/jobs"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/recommend"
	"github.com/dvloznov/spendsense/internal/signals"
	"github.com/dvloznov/spendsense/internal/store"
)

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// FeatureSource loads stored signal records; implemented by signals.Engine.
type FeatureSource interface {
	UserFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*signals.SignalSet, error)
}

// PersonaSource loads the stored persona assignment; implemented by
// persona.Assigner.
type PersonaSource interface {
	Assignment(ctx context.Context, userID string, window domain.TimeWindow) (*persona.Assignment, error)
}

// RecommendationSource loads stored recommendations; implemented by
// recommend.Matcher.
type RecommendationSource interface {
	Recommendations(ctx context.Context, userID string) ([]recommend.Recommendation, error)
}

// timeWindowParam parses the optional time_window query parameter,
// defaulting to the 30 day window.
func timeWindowParam(r *http.Request) (domain.TimeWindow, error) {
	raw := r.URL.Query().Get("time_window")
	if raw == "" {
		return domain.Window30d, nil
	}
	return domain.ParseTimeWindow(raw)
}

// SignalsHandler serves computed behavioral signals.
type SignalsHandler struct {
	features FeatureSource
	log      zerolog.Logger
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(features FeatureSource, log zerolog.Logger) *SignalsHandler {
	return &SignalsHandler{features: features, log: log}
}

// GetSignals handles GET /api/v1/signals/{user_id}?time_window=30d
func (h *SignalsHandler) GetSignals(w http.ResponseWriter, r *http.Request, userID string) {
	window, err := timeWindowParam(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := h.features.UserFeatures(r.Context(), userID, window)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load signals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load signals")
		return
	}
	if set.Empty() {
		middleware.WriteError(w, http.StatusNotFound, "No signals found for user")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":     userID,
		"time_window": window.String(),
		"signals":     set,
	})
}

// PersonaHandler serves stored persona assignments.
type PersonaHandler struct {
	personas PersonaSource
	log      zerolog.Logger
}

// NewPersonaHandler creates a new persona handler.
func NewPersonaHandler(personas PersonaSource, log zerolog.Logger) *PersonaHandler {
	return &PersonaHandler{personas: personas, log: log}
}

// GetPersona handles GET /api/v1/persona/{user_id}?time_window=30d
func (h *PersonaHandler) GetPersona(w http.ResponseWriter, r *http.Request, userID string) {
	window, err := timeWindowParam(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.personas.Assignment(r.Context(), userID, window)
	if err != nil {
		if isNotFound(err) {
			middleware.WriteError(w, http.StatusNotFound, "No persona assignment found for user")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load persona assignment")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load persona assignment")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":           userID,
		"time_window":       window.String(),
		"persona":           assignment.Persona,
		"primary_persona":   assignment.PrimaryPersona,
		"criteria_met":      assignment.CriteriaMet,
		"match_percentages": assignment.MatchPercentages(),
		"assigned_at":       assignment.AssignedAt,
	})
}

// RecommendationsHandler serves stored recommendations with their decision
// traces.
type RecommendationsHandler struct {
	recs RecommendationSource
	log  zerolog.Logger
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(recs RecommendationSource, log zerolog.Logger) *RecommendationsHandler {
	return &RecommendationsHandler{recs: recs, log: log}
}

// GetRecommendations handles GET /api/v1/recommendations/{user_id}
func (h *RecommendationsHandler) GetRecommendations(w http.ResponseWriter, r *http.Request, userID string) {
	recommendations, err := h.recs.Recommendations(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load recommendations")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load recommendations")
		return
	}
	if len(recommendations) == 0 {
		middleware.WriteError(w, http.StatusNotFound, "No recommendations found for user")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":         userID,
		"recommendations": recommendations,
		"count":           len(recommendations),
	})
}

// ComputeHandler enqueues recompute jobs.
type ComputeHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewComputeHandler creates a new compute handler.
func NewComputeHandler(publisher jobs.Publisher, log zerolog.Logger) *ComputeHandler {
	return &ComputeHandler{publisher: publisher, log: log}
}

// Compute handles POST /api/v1/compute/{user_id}?time_window=30d
// It enqueues a background job running the full pipeline for the user:
// signal computation, persona assignment and recommendation generation.
func (h *ComputeHandler) Compute(w http.ResponseWriter, r *http.Request, userID string) {
	window, err := timeWindowParam(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := &jobs.RecomputeUserJob{
		JobID:      uuid.New().String(),
		UserID:     userID,
		TimeWindow: window.String(),
	}

	if err := h.publisher.PublishRecompute(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue recompute job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue recompute job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("user_id", userID).
		Str("time_window", window.String()).
		Msg("Recompute job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"user_id":     userID,
		"time_window": window.String(),
		"status":      string(jobs.JobStatusPending),
	})
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{job_id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs?user_id=&status=&limit=&offset=
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			filter.Offset = offset
		}
	}

	jobList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobList,
		"count": len(jobList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
