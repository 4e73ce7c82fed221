package signals

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/logger"
	"github.com/dvloznov/spendsense/internal/store"
	"github.com/dvloznov/spendsense/internal/store/memory"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func seedEngineFixture(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	st.SeedAccounts("user_1", []domain.Account{
		checkingAccount("check_1", 3000),
		savingsAccount("sav_1", 1100),
		creditAccount("card_1", 900, 1000),
	})
	st.SeedTransactions("user_1", []domain.Transaction{
		debit("check_1", "Netflix", d(2025, 3, 10), 15.99, "online"),
		debit("check_1", "Netflix", d(2025, 4, 9), 15.99, "online"),
		debit("check_1", "Netflix", d(2025, 5, 9), 15.99, "online"),
		deposit("check_1", "Acme Payroll", d(2025, 4, 17), 2000),
		deposit("check_1", "Acme Payroll", d(2025, 5, 1), 2000),
		deposit("sav_1", "Deposit", d(2025, 4, 1), 100),
	})
	return st
}

func TestComputeAllFeatures_Idempotent(t *testing.T) {
	st := seedEngineFixture(t)
	log := logger.NewWithWriter(&bytes.Buffer{})
	engine := NewEngine(st, log).WithNow(fixedNow)
	ctx := context.Background()

	first, err := engine.ComputeAllFeatures(ctx, "user_1", domain.Window30d)
	if err != nil {
		t.Fatalf("ComputeAllFeatures: %v", err)
	}
	firstRecords := fetchRawFeatures(t, st, domain.Window30d)

	second, err := engine.ComputeAllFeatures(ctx, "user_1", domain.Window30d)
	if err != nil {
		t.Fatalf("ComputeAllFeatures (second run): %v", err)
	}
	secondRecords := fetchRawFeatures(t, st, domain.Window30d)

	if first.Empty() || second.Empty() {
		t.Fatal("expected computed signal sets to be non-empty")
	}
	for signalType, raw := range firstRecords {
		if !bytes.Equal(raw, secondRecords[signalType]) {
			t.Errorf("signal %s differs between identical runs:\nfirst:  %s\nsecond: %s",
				signalType, raw, secondRecords[signalType])
		}
	}
}

func fetchRawFeatures(t *testing.T, st store.Store, window domain.TimeWindow) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	for _, signalType := range []string{
		SignalSubscriptions, SignalCreditUtilization, SignalSavingsBehavior, SignalIncomeStability,
	} {
		var record FeatureRecord
		if err := st.FetchRecord(context.Background(), "user_1", store.CollectionComputedFeatures,
			FeatureKey(window, signalType), &record); err != nil {
			t.Fatalf("FetchRecord %s: %v", signalType, err)
		}
		out[signalType] = record.SignalData
	}
	return out
}

func TestComputeAllFeatures_SubscriptionsUseFixedWindow(t *testing.T) {
	st := seedEngineFixture(t)
	log := logger.NewWithWriter(&bytes.Buffer{})
	engine := NewEngine(st, log).WithNow(fixedNow)

	// The Netflix cadence spans ~60 days; a strict 30-day fetch would see a
	// single transaction and detect nothing.
	set, err := engine.ComputeAllFeatures(context.Background(), "user_1", domain.Window30d)
	if err != nil {
		t.Fatalf("ComputeAllFeatures: %v", err)
	}

	if len(set.Subscriptions.RecurringMerchants) != 1 {
		t.Errorf("recurring_merchants = %v, want [Netflix] under the fixed 90-day window",
			set.Subscriptions.RecurringMerchants)
	}
}

func TestUserFeatures_RoundTrip(t *testing.T) {
	st := seedEngineFixture(t)
	log := logger.NewWithWriter(&bytes.Buffer{})
	engine := NewEngine(st, log).WithNow(fixedNow)
	ctx := context.Background()

	computed, err := engine.ComputeAllFeatures(ctx, "user_1", domain.Window180d)
	if err != nil {
		t.Fatalf("ComputeAllFeatures: %v", err)
	}

	loaded, err := engine.UserFeatures(ctx, "user_1", domain.Window180d)
	if err != nil {
		t.Fatalf("UserFeatures: %v", err)
	}

	if loaded.CreditUtilization == nil ||
		loaded.CreditUtilization.TotalUtilization != computed.CreditUtilization.TotalUtilization {
		t.Error("credit utilization did not round-trip through the store")
	}
	if loaded.IncomeStability == nil ||
		loaded.IncomeStability.Frequency != computed.IncomeStability.Frequency {
		t.Error("income stability did not round-trip through the store")
	}
}

func TestUserFeatures_AbsentRecordsAreNil(t *testing.T) {
	st := memory.New()
	log := logger.NewWithWriter(&bytes.Buffer{})
	engine := NewEngine(st, log)

	set, err := engine.UserFeatures(context.Background(), "user_missing", domain.Window30d)
	if err != nil {
		t.Fatalf("UserFeatures: %v", err)
	}
	if !set.Empty() {
		t.Error("expected an empty signal set for a user with no stored features")
	}
}
