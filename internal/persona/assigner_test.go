package persona

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/signals"
	"github.com/dvloznov/spendsense/internal/store"
	"github.com/dvloznov/spendsense/internal/store/memory"
)

// stubFeatures returns a canned signal set.
type stubFeatures struct {
	set *signals.SignalSet
	err error
}

func (s *stubFeatures) UserFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*signals.SignalSet, error) {
	return s.set, s.err
}

func testAssigner(set *signals.SignalSet) (*Assigner, *memory.Store) {
	st := memory.New()
	log := logger.NewWithWriter(&bytes.Buffer{})
	a := NewAssigner(st, &stubFeatures{set: set}, log).WithNow(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	return a, st
}

func TestAssignPersona_PersistsAndRoundTrips(t *testing.T) {
	set := &signals.SignalSet{
		Subscriptions: &signals.SubscriptionSignal{
			RecurringMerchants: []string{"Netflix", "Spotify", "NYT"},
			MonthlyRecurring:   55,
		},
	}
	a, _ := testAssigner(set)
	ctx := context.Background()

	assigned, err := a.AssignPersona(ctx, "user_1", domain.Window30d)
	if err != nil {
		t.Fatalf("AssignPersona: %v", err)
	}
	if assigned.PrimaryPersona != SubscriptionHeavy {
		t.Errorf("primary_persona = %q, want %q", assigned.PrimaryPersona, SubscriptionHeavy)
	}

	loaded, err := a.Assignment(ctx, "user_1", domain.Window30d)
	if err != nil {
		t.Fatalf("Assignment: %v", err)
	}
	if loaded.PrimaryPersona != assigned.PrimaryPersona {
		t.Errorf("loaded persona %q != assigned %q", loaded.PrimaryPersona, assigned.PrimaryPersona)
	}
	for name, score := range assigned.MatchPercentages() {
		if loaded.MatchPercentages()[name] != score {
			t.Errorf("match percentage for %s did not round-trip: %v != %v",
				name, loaded.MatchPercentages()[name], score)
		}
	}
	if len(loaded.CriteriaMet) == 0 {
		t.Error("expected criteria_met to survive the round trip")
	}
}

func TestAssignPersona_ReplacesPriorAssignment(t *testing.T) {
	a, st := testAssigner(&signals.SignalSet{
		CreditUtilization: &signals.CreditSignal{
			TotalUtilization: 80, InterestCharged: 30, IsOverdue: true,
		},
	})
	ctx := context.Background()

	if _, err := a.AssignPersona(ctx, "user_1", domain.Window30d); err != nil {
		t.Fatalf("AssignPersona: %v", err)
	}

	// Signals change; recomputation replaces the record wholesale.
	a2 := NewAssigner(st, &stubFeatures{set: &signals.SignalSet{}}, logger.NewWithWriter(&bytes.Buffer{}))
	if _, err := a2.AssignPersona(ctx, "user_1", domain.Window30d); err != nil {
		t.Fatalf("AssignPersona (second): %v", err)
	}

	loaded, err := a2.Assignment(ctx, "user_1", domain.Window30d)
	if err != nil {
		t.Fatalf("Assignment: %v", err)
	}
	if loaded.PrimaryPersona != GeneralWellness {
		t.Errorf("primary_persona = %q, want %q after replacement", loaded.PrimaryPersona, GeneralWellness)
	}
	if loaded.MatchGeneralWellness != 100.0 {
		t.Errorf("match_general_wellness = %v, want 100.0", loaded.MatchGeneralWellness)
	}
}

func TestAssignment_NotFound(t *testing.T) {
	a, _ := testAssigner(&signals.SignalSet{})

	_, err := a.Assignment(context.Background(), "user_never_assigned", domain.Window180d)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want store.ErrNotFound", err)
	}
}

func TestAssignPersona_FeatureLoadFailurePropagates(t *testing.T) {
	st := memory.New()
	boom := errors.New("backend unavailable")
	a := NewAssigner(st, &stubFeatures{err: boom}, logger.NewWithWriter(&bytes.Buffer{}))

	_, err := a.AssignPersona(context.Background(), "user_1", domain.Window30d)
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped backend error", err)
	}
}
