package signals

import (
	"testing"

	"github.com/dvloznov/spendsense/internal/domain"
)

func creditAccount(id string, balance, limit float64) domain.Account {
	return domain.Account{AccountID: id, Type: "credit", Balance: balance, Limit: limit}
}

func TestDetectCreditUtilization_AggregateBeforeDivide(t *testing.T) {
	// A maxed-out small card next to an unused large card: 1000/10000 = 10%,
	// not the 45.6% an average of the per-account percentages would give.
	accounts := []domain.Account{
		creditAccount("card_small", 900, 1000),
		creditAccount("card_large", 100, 9000),
	}

	sig := DetectCreditUtilization(nil, accounts, testRef, 30)

	if sig.TotalUtilization != 10.0 {
		t.Errorf("total_utilization = %v, want 10.0", sig.TotalUtilization)
	}
	if sig.UtilizationLevel != "low" {
		t.Errorf("utilization_level = %q, want low", sig.UtilizationLevel)
	}
	if len(sig.Accounts) != 2 {
		t.Fatalf("got %d account details, want 2", len(sig.Accounts))
	}
	if sig.Accounts[0].Utilization != 90.0 || sig.Accounts[0].UtilizationLevel != "high" {
		t.Errorf("small card detail = %v/%q, want 90.0/high",
			sig.Accounts[0].Utilization, sig.Accounts[0].UtilizationLevel)
	}
}

func TestDetectCreditUtilization_InterestAndOverdue(t *testing.T) {
	accounts := []domain.Account{creditAccount("card_1", 1000, 5000)}
	txns := []domain.Transaction{
		{
			AccountID:    "card_1",
			Date:         d(2025, 5, 20),
			Amount:       -35,
			MerchantName: "Bank",
			Category:     []string{"Bank Fees", "Interest Charged"},
		},
	}

	sig := DetectCreditUtilization(txns, accounts, testRef, 30)

	if sig.InterestCharged != 35.0 {
		t.Errorf("interest_charged = %v, want 35.0", sig.InterestCharged)
	}
	if !sig.IsOverdue {
		t.Error("is_overdue = false, want true when interest charged")
	}
}

func TestDetectCreditUtilization_OverdueFromHighUtilization(t *testing.T) {
	accounts := []domain.Account{creditAccount("card_1", 4600, 5000)}

	sig := DetectCreditUtilization(nil, accounts, testRef, 30)

	if sig.TotalUtilization != 92.0 {
		t.Errorf("total_utilization = %v, want 92.0", sig.TotalUtilization)
	}
	if !sig.IsOverdue {
		t.Error("is_overdue = false, want true at 92% utilization")
	}
}

func TestDetectCreditUtilization_MinimumPaymentHeuristic(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		payment float64
		want    bool
	}{
		// Estimated minimum for a $1000 balance is max(20, 25) = $25.
		{"payment at estimate", 1000, 25, true},
		{"payment within 5 dollars", 1000, 29.50, true},
		{"payment well above", 1000, 400, false},
		// Estimated minimum for a $5000 balance is $100.
		{"two percent of large balance", 5000, 102, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := []domain.Account{creditAccount("card_1", tt.balance, 10000)}
			txns := []domain.Transaction{
				deposit("card_1", "Payment", d(2025, 5, 25), tt.payment),
			}

			sig := DetectCreditUtilization(txns, accounts, testRef, 30)

			if sig.MinimumPaymentOnly != tt.want {
				t.Errorf("minimum_payment_only = %v, want %v", sig.MinimumPaymentOnly, tt.want)
			}
		})
	}
}

func TestDetectCreditUtilization_MostRecentPaymentWins(t *testing.T) {
	accounts := []domain.Account{creditAccount("card_1", 1000, 10000)}
	txns := []domain.Transaction{
		deposit("card_1", "Payment", d(2025, 5, 10), 25), // minimum-sized, but older
		deposit("card_1", "Payment", d(2025, 5, 25), 500),
	}

	sig := DetectCreditUtilization(txns, accounts, testRef, 30)

	if sig.MinimumPaymentOnly {
		t.Error("minimum_payment_only = true, want false: latest payment was $500")
	}
}

func TestDetectCreditUtilization_NoQualifyingAccounts(t *testing.T) {
	accounts := []domain.Account{
		{AccountID: "check_1", Type: "depository", Subtype: "checking", Balance: 100},
		creditAccount("card_no_limit", 500, 0),
	}

	sig := DetectCreditUtilization(nil, accounts, testRef, 30)

	if sig.TotalUtilization != 0 || sig.UtilizationLevel != "low" {
		t.Errorf("got %v/%q, want 0/low", sig.TotalUtilization, sig.UtilizationLevel)
	}
	if sig.IsOverdue || sig.MinimumPaymentOnly {
		t.Error("expected all flags false with no qualifying accounts")
	}
	if len(sig.Accounts) != 0 {
		t.Errorf("got %d account details, want 0", len(sig.Accounts))
	}
}

func TestDetectCreditUtilization_OnlineSpendingShare(t *testing.T) {
	accounts := []domain.Account{creditAccount("card_1", 100, 1000)}
	txns := []domain.Transaction{
		debit("card_1", "Web Shop", d(2025, 5, 10), 75, "online"),
		debit("card_1", "Grocery", d(2025, 5, 12), 25, "in store"),
	}

	sig := DetectCreditUtilization(txns, accounts, testRef, 30)

	if sig.OnlineSpendingShare != 75.0 {
		t.Errorf("online_spending_share = %v, want 75.0", sig.OnlineSpendingShare)
	}
}
