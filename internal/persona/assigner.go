package persona

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/signals"
	"github.com/dvloznov/spendsense/internal/store"
)

// FeatureSource loads stored signal records; implemented by signals.Engine.
type FeatureSource interface {
	UserFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*signals.SignalSet, error)
}

// Assignment is the stored persona record for one (user, window). The match
// scores are flattened into named fields so analytics can query them as
// plain columns.
type Assignment struct {
	UserID                 string    `json:"user_id"`
	TimeWindow             string    `json:"time_window"`
	Persona                string    `json:"persona"`
	PrimaryPersona         string    `json:"primary_persona"`
	CriteriaMet            []string  `json:"criteria_met"`
	MatchHighUtilization   float64   `json:"match_high_utilization"`
	MatchVariableIncome    float64   `json:"match_variable_income"`
	MatchSubscriptionHeavy float64   `json:"match_subscription_heavy"`
	MatchSavingsBuilder    float64   `json:"match_savings_builder"`
	MatchGeneralWellness   float64   `json:"match_general_wellness"`
	AssignedAt             time.Time `json:"assigned_at"`
}

// MatchPercentages rebuilds the persona→score mapping from the flattened
// columns.
func (a *Assignment) MatchPercentages() map[string]float64 {
	return map[string]float64{
		HighUtilization:   a.MatchHighUtilization,
		VariableIncome:    a.MatchVariableIncome,
		SubscriptionHeavy: a.MatchSubscriptionHeavy,
		SavingsBuilder:    a.MatchSavingsBuilder,
		GeneralWellness:   a.MatchGeneralWellness,
	}
}

// AssignmentKey is the storage key for a window's live assignment.
func AssignmentKey(window domain.TimeWindow) string {
	return "persona_" + window.String()
}

// Assigner scores stored signals and persists the resulting assignment.
type Assigner struct {
	store    store.Store
	features FeatureSource
	log      zerolog.Logger
	now      func() time.Time
}

func NewAssigner(st store.Store, features FeatureSource, log zerolog.Logger) *Assigner {
	return &Assigner{
		store:    st,
		features: features,
		log:      log.With().Str("component", "persona").Logger(),
		now:      time.Now,
	}
}

// WithNow fixes the assigner's clock for tests.
func (a *Assigner) WithNow(now func() time.Time) *Assigner {
	a.now = now
	return a
}

// AssignPersona loads the user's stored signals, scores all personas, and
// replaces the window's assignment record.
func (a *Assigner) AssignPersona(ctx context.Context, userID string, window domain.TimeWindow) (*Assignment, error) {
	set, err := a.features.UserFeatures(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("AssignPersona: load features: %w", err)
	}

	result := CalculateScores(set)

	assignment := &Assignment{
		UserID:                 userID,
		TimeWindow:             window.String(),
		Persona:                result.PrimaryPersona,
		PrimaryPersona:         result.PrimaryPersona,
		CriteriaMet:            result.CriteriaDetails[result.PrimaryPersona],
		MatchHighUtilization:   result.MatchPercentages[HighUtilization],
		MatchVariableIncome:    result.MatchPercentages[VariableIncome],
		MatchSubscriptionHeavy: result.MatchPercentages[SubscriptionHeavy],
		MatchSavingsBuilder:    result.MatchPercentages[SavingsBuilder],
		MatchGeneralWellness:   result.MatchPercentages[GeneralWellness],
		AssignedAt:             a.now().UTC(),
	}

	if err := a.store.ReplaceRecord(ctx, userID, store.CollectionPersonaAssignments, AssignmentKey(window), assignment); err != nil {
		return nil, fmt.Errorf("AssignPersona: store assignment: %w", err)
	}

	a.log.Info().
		Str("user_id", userID).
		Str("time_window", window.String()).
		Str("persona", result.PrimaryPersona).
		Msg("Assigned persona")

	return assignment, nil
}

// Assignment fetches the stored assignment for a window. Returns
// store.ErrNotFound when the user has never been assigned.
func (a *Assigner) Assignment(ctx context.Context, userID string, window domain.TimeWindow) (*Assignment, error) {
	var assignment Assignment
	if err := a.store.FetchRecord(ctx, userID, store.CollectionPersonaAssignments, AssignmentKey(window), &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}
