package export

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/store"
	"github.com/dvloznov/spendsense/internal/store/memory"
)

type stubAssignments struct {
	assignments map[string]*persona.Assignment
}

func (s *stubAssignments) Assignment(ctx context.Context, userID string, window domain.TimeWindow) (*persona.Assignment, error) {
	a, ok := s.assignments[userID+"/"+window.String()]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func TestRowFromAssignmentFlattensScores(t *testing.T) {
	assignedAt := time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC)
	exportedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e := NewExporter(nil, nil, nil, "spendsense", "persona_assignments", logger.New()).
		WithNow(func() time.Time { return exportedAt })

	row := e.rowFromAssignment(&persona.Assignment{
		UserID:                 "user-1",
		TimeWindow:             "30d",
		Persona:                persona.HighUtilization,
		PrimaryPersona:         persona.HighUtilization,
		CriteriaMet:            []string{"credit_utilization >= 50%"},
		MatchHighUtilization:   75,
		MatchGeneralWellness:   20,
		AssignedAt:             assignedAt,
	})

	if row.UserID != "user-1" || row.Persona != persona.HighUtilization {
		t.Errorf("identity fields not mapped: %+v", row)
	}
	if row.MatchHighUtilization != 75 || row.MatchGeneralWellness != 20 {
		t.Errorf("match columns not mapped: %+v", row)
	}
	if !row.AssignedAt.Equal(assignedAt) || !row.ExportedAt.Equal(exportedAt) {
		t.Errorf("timestamps not mapped: assigned %v exported %v", row.AssignedAt, row.ExportedAt)
	}
}

func TestExportAssignmentsWithNoUsers(t *testing.T) {
	st := memory.New()
	e := NewExporter(nil, &stubAssignments{}, st, "spendsense", "persona_assignments", logger.New())

	n, err := e.ExportAssignments(context.Background(), []domain.TimeWindow{domain.Window30d, domain.Window180d})
	if err != nil {
		t.Fatalf("ExportAssignments: %v", err)
	}
	if n != 0 {
		t.Errorf("exported %d rows, want 0", n)
	}
}
