package signals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/store"
)

// Engine fetches a user's history once, runs all four detectors, and
// persists each signal record with a full replace so recomputation is
// idempotent.
type Engine struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewEngine creates a signal engine backed by the given store.
func NewEngine(st store.Store, log zerolog.Logger) *Engine {
	return &Engine{
		store: st,
		log:   log.With().Str("component", "signals").Logger(),
		now:   time.Now,
	}
}

// WithNow fixes the engine's reference clock. Tests use it for determinism.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// FeatureKey is the storage key for one computed signal record.
func FeatureKey(window domain.TimeWindow, signalType string) string {
	return fmt.Sprintf("%s_%s", window, signalType)
}

// ComputeAllFeatures runs every detector for the user over the given window
// and stores the results. The subscription detector and the savings monthly
// average always use their fixed 90-day windows; the fetch covers the
// larger of that and the requested window.
func (e *Engine) ComputeAllFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*SignalSet, error) {
	ref := civil.DateOf(e.now())

	fetchDays := window.Days()
	if fetchDays < subscriptionWindowDays {
		fetchDays = subscriptionWindowDays
	}
	since := ref.AddDays(-fetchDays)

	txns, err := e.store.FetchTransactions(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("ComputeAllFeatures: fetch transactions: %w", err)
	}
	accounts, err := e.store.FetchAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ComputeAllFeatures: fetch accounts: %w", err)
	}

	set := &SignalSet{
		Subscriptions:     DetectSubscriptions(txns, ref, subscriptionWindowDays),
		CreditUtilization: DetectCreditUtilization(txns, accounts, ref, window.Days()),
		SavingsBehavior:   DetectSavingsBehavior(txns, accounts, ref, window.Days()),
		IncomeStability:   DetectIncomeStability(txns, accounts, ref, window.Days()),
	}

	computedAt := e.now().UTC()
	for _, feature := range []struct {
		signalType string
		data       any
	}{
		{SignalSubscriptions, set.Subscriptions},
		{SignalCreditUtilization, set.CreditUtilization},
		{SignalSavingsBehavior, set.SavingsBehavior},
		{SignalIncomeStability, set.IncomeStability},
	} {
		if err := e.storeFeature(ctx, userID, window, feature.signalType, feature.data, computedAt); err != nil {
			return nil, err
		}
	}

	e.log.Info().
		Str("user_id", userID).
		Str("time_window", window.String()).
		Int("transactions", len(txns)).
		Int("accounts", len(accounts)).
		Msg("Computed all signal features")

	return set, nil
}

func (e *Engine) storeFeature(ctx context.Context, userID string, window domain.TimeWindow, signalType string, data any, computedAt time.Time) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("storeFeature: marshal %s: %w", signalType, err)
	}
	record := FeatureRecord{
		UserID:     userID,
		TimeWindow: window.String(),
		SignalType: signalType,
		SignalData: raw,
		ComputedAt: computedAt,
	}
	if err := e.store.ReplaceRecord(ctx, userID, store.CollectionComputedFeatures, FeatureKey(window, signalType), record); err != nil {
		return fmt.Errorf("storeFeature: store %s: %w", signalType, err)
	}
	return nil
}

// UserFeatures loads the stored signal records for a user and window.
// Absent records leave the corresponding member nil; a malformed stored
// record is logged and skipped rather than failing the whole set.
func (e *Engine) UserFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*SignalSet, error) {
	set := &SignalSet{}

	var subscriptions SubscriptionSignal
	if ok, err := e.loadFeature(ctx, userID, window, SignalSubscriptions, &subscriptions); err != nil {
		return nil, err
	} else if ok {
		set.Subscriptions = &subscriptions
	}

	var credit CreditSignal
	if ok, err := e.loadFeature(ctx, userID, window, SignalCreditUtilization, &credit); err != nil {
		return nil, err
	} else if ok {
		set.CreditUtilization = &credit
	}

	var savings SavingsSignal
	if ok, err := e.loadFeature(ctx, userID, window, SignalSavingsBehavior, &savings); err != nil {
		return nil, err
	} else if ok {
		set.SavingsBehavior = &savings
	}

	var income IncomeSignal
	if ok, err := e.loadFeature(ctx, userID, window, SignalIncomeStability, &income); err != nil {
		return nil, err
	} else if ok {
		set.IncomeStability = &income
	}

	return set, nil
}

func (e *Engine) loadFeature(ctx context.Context, userID string, window domain.TimeWindow, signalType string, out any) (bool, error) {
	var record FeatureRecord
	err := e.store.FetchRecord(ctx, userID, store.CollectionComputedFeatures, FeatureKey(window, signalType), &record)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loadFeature: fetch %s: %w", signalType, err)
	}
	if err := json.Unmarshal(record.SignalData, out); err != nil {
		e.log.Warn().
			Str("user_id", userID).
			Str("signal_type", signalType).
			Err(err).
			Msg("Malformed stored signal record, skipping")
		return false, nil
	}
	return true, nil
}
