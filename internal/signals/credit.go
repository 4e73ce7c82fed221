package signals

import (
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendsense/internal/category"
	"github.com/dvloznov/spendsense/internal/domain"
)

// DetectCreditUtilization computes aggregate and per-account utilization for
// credit accounts with a positive limit.
//
// The overall utilization sums balances and limits across accounts before
// dividing, so a maxed-out small-limit card is not diluted by averaging
// per-account percentages. No liability data exists, so overdue status is
// inferred: utilization >= 90 or any interest charged in the window.
func DetectCreditUtilization(txns []domain.Transaction, accounts []domain.Account, ref civil.Date, windowDays int) *CreditSignal {
	cutoff := ref.AddDays(-windowDays)

	var creditAccounts []domain.Account
	for _, a := range accounts {
		if a.Type == "credit" && a.Limit > 0 {
			creditAccounts = append(creditAccounts, a)
		}
	}

	sig := &CreditSignal{
		UtilizationLevel: "low",
		Accounts:         []CreditAccountDetail{},
	}
	if len(creditAccounts) == 0 {
		return sig
	}

	creditIDs := make(map[string]bool, len(creditAccounts))
	for _, a := range creditAccounts {
		creditIDs[a.AccountID] = true
	}

	var payments []domain.Transaction
	interestByAccount := make(map[string]float64)
	totalSpending := 0.0
	onlineSpending := 0.0

	for _, t := range txns {
		if !creditIDs[t.AccountID] || t.Date.Before(cutoff) {
			continue
		}
		if t.Amount > 0 {
			payments = append(payments, t)
			continue
		}
		if t.Amount < 0 {
			amt := math.Abs(t.Amount)
			totalSpending += amt
			if t.PaymentChannel == "online" {
				onlineSpending += amt
			}
			if category.ContainsAny(t.Category, "interest", "fee") ||
				strings.Contains(strings.ToLower(t.MerchantName), "interest") {
				interestByAccount[t.AccountID] += amt
			}
		}
	}

	// Most recent payment first; the minimum-payment heuristic looks at the
	// latest payment only.
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[j].Date.Before(payments[i].Date)
	})

	totalBalance := 0.0
	totalLimit := 0.0
	totalInterest := 0.0
	anyMinimumOnly := false

	for _, acc := range creditAccounts {
		utilization := 0.0
		if acc.Limit > 0 {
			utilization = acc.Balance / acc.Limit * 100
		}

		minimumOnly := false
		for _, p := range payments {
			if p.AccountID != acc.AccountID {
				continue
			}
			// Expected minimum payment: 2% of balance, floor $25.
			estimatedMin := math.Max(acc.Balance*0.02, 25.0)
			if math.Abs(p.Amount-estimatedMin) <= 5.0 {
				minimumOnly = true
			}
			break
		}
		if minimumOnly {
			anyMinimumOnly = true
		}

		interest := interestByAccount[acc.AccountID]
		totalInterest += interest

		sig.Accounts = append(sig.Accounts, CreditAccountDetail{
			AccountID:          acc.AccountID,
			Balance:            acc.Balance,
			Limit:              acc.Limit,
			Utilization:        round2(utilization),
			UtilizationLevel:   utilizationLevel(utilization),
			InterestCharged:    round2(interest),
			MinimumPaymentOnly: minimumOnly,
		})

		totalBalance += acc.Balance
		totalLimit += acc.Limit
	}

	overall := 0.0
	if totalLimit > 0 {
		overall = totalBalance / totalLimit * 100
	}

	onlineShare := 0.0
	if totalSpending > 0 {
		onlineShare = onlineSpending / totalSpending * 100
	}

	sig.TotalUtilization = round2(overall)
	sig.UtilizationLevel = utilizationLevel(overall)
	sig.InterestCharged = round2(totalInterest)
	sig.MinimumPaymentOnly = anyMinimumOnly
	sig.IsOverdue = overall >= 90 || totalInterest > 0
	sig.OnlineSpendingShare = round2(onlineShare)
	return sig
}

func utilizationLevel(utilization float64) string {
	switch {
	case utilization >= 50:
		return "high"
	case utilization >= 30:
		return "medium"
	default:
		return "low"
	}
}
