// Package export pushes persona assignments into BigQuery for offline
// analytics. Match percentages are flattened into plain columns so analysts
// can query them without unnesting.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/store"
)

// AssignmentRow is the BigQuery row shape for one persona assignment.
type AssignmentRow struct {
	UserID                 string    `bigquery:"user_id"`     // REQUIRED
	TimeWindow             string    `bigquery:"time_window"` // REQUIRED
	Persona                string    `bigquery:"persona"`     // REQUIRED
	PrimaryPersona         string    `bigquery:"primary_persona"`
	CriteriaMet            []string  `bigquery:"criteria_met"` // REPEATED
	MatchHighUtilization   float64   `bigquery:"match_high_utilization"`
	MatchVariableIncome    float64   `bigquery:"match_variable_income"`
	MatchSubscriptionHeavy float64   `bigquery:"match_subscription_heavy"`
	MatchSavingsBuilder    float64   `bigquery:"match_savings_builder"`
	MatchGeneralWellness   float64   `bigquery:"match_general_wellness"`
	AssignedAt             time.Time `bigquery:"assigned_at"` // TIMESTAMP
	ExportedAt             time.Time `bigquery:"exported_at"` // TIMESTAMP
}

// AssignmentSource loads stored assignments; implemented by persona.Assigner.
type AssignmentSource interface {
	Assignment(ctx context.Context, userID string, window domain.TimeWindow) (*persona.Assignment, error)
}

// Exporter streams assignment rows into one BigQuery table.
type Exporter struct {
	client      *bigquery.Client
	assignments AssignmentSource
	store       store.Store
	dataset     string
	table       string
	log         zerolog.Logger
	now         func() time.Time
}

func NewExporter(client *bigquery.Client, assignments AssignmentSource, st store.Store, dataset, table string, log zerolog.Logger) *Exporter {
	return &Exporter{
		client:      client,
		assignments: assignments,
		store:       st,
		dataset:     dataset,
		table:       table,
		log:         log.With().Str("component", "export").Logger(),
		now:         time.Now,
	}
}

// WithNow fixes the exporter's clock for tests.
func (e *Exporter) WithNow(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// rowFromAssignment flattens one assignment for insertion.
func (e *Exporter) rowFromAssignment(a *persona.Assignment) *AssignmentRow {
	return &AssignmentRow{
		UserID:                 a.UserID,
		TimeWindow:             a.TimeWindow,
		Persona:                a.Persona,
		PrimaryPersona:         a.PrimaryPersona,
		CriteriaMet:            a.CriteriaMet,
		MatchHighUtilization:   a.MatchHighUtilization,
		MatchVariableIncome:    a.MatchVariableIncome,
		MatchSubscriptionHeavy: a.MatchSubscriptionHeavy,
		MatchSavingsBuilder:    a.MatchSavingsBuilder,
		MatchGeneralWellness:   a.MatchGeneralWellness,
		AssignedAt:             a.AssignedAt,
		ExportedAt:             e.now().UTC(),
	}
}

// ExportAssignments collects the stored assignment for every user and window
// and streams the rows into the configured table. Users without an
// assignment for a window are skipped.
func (e *Exporter) ExportAssignments(ctx context.Context, windows []domain.TimeWindow) (int, error) {
	userIDs, err := e.store.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("ExportAssignments: list users: %w", err)
	}

	var rows []*AssignmentRow
	for _, userID := range userIDs {
		for _, window := range windows {
			assignment, err := e.assignments.Assignment(ctx, userID, window)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return 0, fmt.Errorf("ExportAssignments: load assignment %s/%s: %w", userID, window, err)
			}
			rows = append(rows, e.rowFromAssignment(assignment))
		}
	}

	if len(rows) == 0 {
		e.log.Info().Msg("No assignments to export")
		return 0, nil
	}

	inserter := e.client.Dataset(e.dataset).Table(e.table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return 0, fmt.Errorf("ExportAssignments: inserting rows: %w", err)
	}

	e.log.Info().Int("rows", len(rows)).Str("table", e.dataset+"."+e.table).Msg("Exported persona assignments")
	return len(rows), nil
}
