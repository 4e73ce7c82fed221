package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/jobs"
	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/recommend"
	"github.com/dvloznov/spendsense/internal/signals"
	"github.com/dvloznov/spendsense/internal/store"
	"github.com/dvloznov/spendsense/internal/store/memory"
)

type fakeComputer struct {
	sets  map[string]*signals.SignalSet
	err   error
	calls []string
}

func (f *fakeComputer) ComputeAllFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*signals.SignalSet, error) {
	f.calls = append(f.calls, userID+"/"+window.String())
	if f.err != nil {
		return nil, f.err
	}
	return f.sets[userID], nil
}

type fakeAssigner struct {
	calls []string
	err   error
}

func (f *fakeAssigner) AssignPersona(ctx context.Context, userID string, window domain.TimeWindow) (*persona.Assignment, error) {
	f.calls = append(f.calls, userID+"/"+window.String())
	if f.err != nil {
		return nil, f.err
	}
	return &persona.Assignment{UserID: userID, Persona: persona.GeneralWellness}, nil
}

type fakeMatcher struct {
	calls []string
}

func (f *fakeMatcher) Generate(ctx context.Context, userID string, window domain.TimeWindow) ([]recommend.Recommendation, error) {
	f.calls = append(f.calls, userID+"/"+window.String())
	return []recommend.Recommendation{{RecommendationID: "rec_x"}}, nil
}

func activeSet() *signals.SignalSet {
	return &signals.SignalSet{Subscriptions: &signals.SubscriptionSignal{}}
}

func seedUser(t *testing.T, st store.Store, userID string) {
	t.Helper()
	err := st.ReplaceRecord(context.Background(), userID, store.CollectionComputedFeatures, "seed", map[string]string{})
	if err != nil {
		t.Fatalf("seed user %s: %v", userID, err)
	}
}

func TestRecomputeUserRunsAllStages(t *testing.T) {
	computer := &fakeComputer{sets: map[string]*signals.SignalSet{"user-1": activeSet()}}
	assigner := &fakeAssigner{}
	matcher := &fakeMatcher{}
	r := NewRunner(memory.New(), computer, assigner, matcher, logger.New())

	if err := r.RecomputeUser(context.Background(), "user-1", domain.Window30d); err != nil {
		t.Fatalf("RecomputeUser: %v", err)
	}
	if len(assigner.calls) != 1 || assigner.calls[0] != "user-1/30d" {
		t.Errorf("assigner calls = %v", assigner.calls)
	}
	if len(matcher.calls) != 1 {
		t.Errorf("matcher calls = %v", matcher.calls)
	}
}

func TestRecomputeUserSkipsDownstreamWhenNoSignals(t *testing.T) {
	computer := &fakeComputer{sets: map[string]*signals.SignalSet{}}
	assigner := &fakeAssigner{}
	matcher := &fakeMatcher{}
	r := NewRunner(memory.New(), computer, assigner, matcher, logger.New())

	if err := r.RecomputeUser(context.Background(), "ghost", domain.Window30d); err != nil {
		t.Fatalf("RecomputeUser: %v", err)
	}
	if len(assigner.calls) != 0 || len(matcher.calls) != 0 {
		t.Errorf("downstream ran for empty signals: assigner=%v matcher=%v", assigner.calls, matcher.calls)
	}
}

func TestRecomputeUserPropagatesAssignmentFailure(t *testing.T) {
	computer := &fakeComputer{sets: map[string]*signals.SignalSet{"user-1": activeSet()}}
	assigner := &fakeAssigner{err: errors.New("boom")}
	r := NewRunner(memory.New(), computer, assigner, &fakeMatcher{}, logger.New())

	if err := r.RecomputeUser(context.Background(), "user-1", domain.Window30d); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRecomputeAllCoversUsersAndWindows(t *testing.T) {
	st := memory.New()
	seedUser(t, st, "user-1")
	seedUser(t, st, "user-2")

	computer := &fakeComputer{sets: map[string]*signals.SignalSet{
		"user-1": activeSet(),
		"user-2": activeSet(),
	}}
	r := NewRunner(st, computer, &fakeAssigner{}, &fakeMatcher{}, logger.New())

	windows := []domain.TimeWindow{domain.Window30d, domain.Window180d}
	processed, err := r.RecomputeAll(context.Background(), windows)
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if processed != 4 {
		t.Errorf("processed = %d, want 4", processed)
	}
	if len(computer.calls) != 4 {
		t.Errorf("computer calls = %v", computer.calls)
	}
}

func TestJobHandler(t *testing.T) {
	computer := &fakeComputer{sets: map[string]*signals.SignalSet{"user-1": activeSet()}}
	assigner := &fakeAssigner{}
	r := NewRunner(memory.New(), computer, assigner, &fakeMatcher{}, logger.New())
	handler := r.JobHandler()

	job := &jobs.RecomputeUserJob{JobID: "job-1", UserID: "user-1", TimeWindow: "30d"}
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(assigner.calls) != 1 {
		t.Errorf("assigner calls = %v", assigner.calls)
	}

	bad := &jobs.RecomputeUserJob{JobID: "job-2", UserID: "user-1", TimeWindow: "7d"}
	if err := handler(context.Background(), bad); err == nil {
		t.Fatal("expected error for invalid window")
	}
}
