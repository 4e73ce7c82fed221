package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/jobs"
	"github.com/dvloznov/spendsense/internal/jobs/inmemory"
	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/recommend"
	"github.com/dvloznov/spendsense/internal/signals"
	"github.com/dvloznov/spendsense/internal/store"
)

type stubFeatures struct {
	set *signals.SignalSet
	err error
}

func (s *stubFeatures) UserFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*signals.SignalSet, error) {
	return s.set, s.err
}

type stubPersonas struct {
	assignment *persona.Assignment
	err        error
}

func (s *stubPersonas) Assignment(ctx context.Context, userID string, window domain.TimeWindow) (*persona.Assignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.assignment, nil
}

type stubRecommendations struct {
	recs []recommend.Recommendation
	err  error
}

func (s *stubRecommendations) Recommendations(ctx context.Context, userID string) ([]recommend.Recommendation, error) {
	return s.recs, s.err
}

type stubPublisher struct {
	published []*jobs.RecomputeUserJob
	err       error
}

func (p *stubPublisher) PublishRecompute(ctx context.Context, job *jobs.RecomputeUserJob) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, job)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestGetSignals(t *testing.T) {
	set := &signals.SignalSet{
		Subscriptions: &signals.SubscriptionSignal{
			RecurringMerchants: []string{"Netflix", "Spotify"},
			MonthlyRecurring:   25.98,
		},
	}
	h := NewSignalsHandler(&stubFeatures{set: set}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/signals/user-1?time_window=180d", nil)
	w := httptest.NewRecorder()
	h.GetSignals(w, r, "user-1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["user_id"] != "user-1" || body["time_window"] != "180d" {
		t.Errorf("identity fields = %v / %v", body["user_id"], body["time_window"])
	}
	if _, ok := body["signals"].(map[string]any)["subscriptions"]; !ok {
		t.Error("subscriptions signal missing from response")
	}
}

func TestGetSignalsDefaultsTo30d(t *testing.T) {
	set := &signals.SignalSet{Subscriptions: &signals.SubscriptionSignal{}}
	h := NewSignalsHandler(&stubFeatures{set: set}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/signals/user-1", nil)
	w := httptest.NewRecorder()
	h.GetSignals(w, r, "user-1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := decodeBody(t, w); body["time_window"] != "30d" {
		t.Errorf("time_window = %v, want 30d", body["time_window"])
	}
}

func TestGetSignalsRejectsBadWindow(t *testing.T) {
	h := NewSignalsHandler(&stubFeatures{}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/signals/user-1?time_window=7d", nil)
	w := httptest.NewRecorder()
	h.GetSignals(w, r, "user-1")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetSignalsEmptySetIs404(t *testing.T) {
	h := NewSignalsHandler(&stubFeatures{set: &signals.SignalSet{}}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/signals/user-1", nil)
	w := httptest.NewRecorder()
	h.GetSignals(w, r, "user-1")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetSignalsSourceFailureIs500(t *testing.T) {
	h := NewSignalsHandler(&stubFeatures{err: errors.New("boom")}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/signals/user-1", nil)
	w := httptest.NewRecorder()
	h.GetSignals(w, r, "user-1")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestGetPersona(t *testing.T) {
	h := NewPersonaHandler(&stubPersonas{assignment: &persona.Assignment{
		UserID:               "user-1",
		TimeWindow:           "30d",
		Persona:              persona.HighUtilization,
		PrimaryPersona:       persona.HighUtilization,
		CriteriaMet:          []string{"credit_utilization >= 50%"},
		MatchHighUtilization: 75,
	}}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/persona/user-1", nil)
	w := httptest.NewRecorder()
	h.GetPersona(w, r, "user-1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["persona"] != persona.HighUtilization {
		t.Errorf("persona = %v", body["persona"])
	}
	matches, ok := body["match_percentages"].(map[string]any)
	if !ok || matches[persona.HighUtilization].(float64) != 75 {
		t.Errorf("match_percentages = %v", body["match_percentages"])
	}
}

func TestGetPersonaNotFound(t *testing.T) {
	h := NewPersonaHandler(&stubPersonas{err: store.ErrNotFound}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/persona/user-1", nil)
	w := httptest.NewRecorder()
	h.GetPersona(w, r, "user-1")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetRecommendations(t *testing.T) {
	h := NewRecommendationsHandler(&stubRecommendations{recs: []recommend.Recommendation{
		{RecommendationID: "rec_aaa", Type: recommend.TypeEducation},
		{RecommendationID: "rec_bbb", Type: recommend.TypePartnerOffer},
	}}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user-1", nil)
	w := httptest.NewRecorder()
	h.GetRecommendations(w, r, "user-1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := decodeBody(t, w); body["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", body["count"])
	}
}

func TestGetRecommendationsEmptyIs404(t *testing.T) {
	h := NewRecommendationsHandler(&stubRecommendations{}, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user-1", nil)
	w := httptest.NewRecorder()
	h.GetRecommendations(w, r, "user-1")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCompute(t *testing.T) {
	pub := &stubPublisher{}
	h := NewComputeHandler(pub, logger.New())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/compute/user-1?time_window=180d", nil)
	w := httptest.NewRecorder()
	h.Compute(w, r, "user-1")

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d jobs, want 1", len(pub.published))
	}
	job := pub.published[0]
	if job.UserID != "user-1" || job.TimeWindow != "180d" {
		t.Errorf("job = %+v", job)
	}
	body := decodeBody(t, w)
	if body["job_id"] == "" || body["status"] != string(jobs.JobStatusPending) {
		t.Errorf("response = %v", body)
	}
}

func TestComputePublishFailureIs500(t *testing.T) {
	h := NewComputeHandler(&stubPublisher{err: errors.New("queue closed")}, logger.New())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/compute/user-1", nil)
	w := httptest.NewRecorder()
	h.Compute(w, r, "user-1")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestJobsEndpoints(t *testing.T) {
	ctx := context.Background()
	jobStore := inmemory.NewStore()
	if err := jobStore.SaveJob(ctx, &jobs.RecomputeUserJob{
		JobID: "job-1", UserID: "user-1", Status: jobs.JobStatusCompleted,
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	h := NewJobsHandler(jobStore, logger.New())

	r := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil)
	w := httptest.NewRecorder()
	h.GetJob(w, r, "job-1")
	if w.Code != http.StatusOK {
		t.Fatalf("GetJob status = %d, want 200", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil)
	w = httptest.NewRecorder()
	h.GetJob(w, r, "missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GetJob missing status = %d, want 404", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/jobs?user_id=user-1&status=completed", nil)
	w = httptest.NewRecorder()
	h.ListJobs(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("ListJobs status = %d, want 200", w.Code)
	}
	if body := decodeBody(t, w); body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}
}
