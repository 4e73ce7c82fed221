package signals

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendsense/internal/domain"
)

// savingsMonthlyWindowDays is the fixed sub-window for avg_monthly_savings;
// a stable monthly average needs the same span regardless of the requested
// time window.
const savingsMonthlyWindowDays = 90

func isSavingsAccount(a domain.Account) bool {
	switch a.Subtype {
	case "savings", "money market", "hsa":
		return true
	}
	return a.Type == "depository" && strings.Contains(strings.ToLower(a.Subtype), "savings")
}

// DetectSavingsBehavior measures savings balance growth over windowDays.
//
// There is no balance-history store, so the historical balance is
// reconstructed as current balance minus net inflow. Transactions at a
// never-before-seen location that differs from the previous one are treated
// as travel and excluded from the flow sums, so one-off trip transfers do
// not skew the growth estimate.
func DetectSavingsBehavior(txns []domain.Transaction, accounts []domain.Account, ref civil.Date, windowDays int) *SavingsSignal {
	cutoff := ref.AddDays(-windowDays)

	var savingsAccounts []domain.Account
	for _, a := range accounts {
		if isSavingsAccount(a) {
			savingsAccounts = append(savingsAccounts, a)
		}
	}

	sig := &SavingsSignal{
		CoverageLevel: "low",
		Accounts:      []SavingsAccountDetail{},
	}
	if len(savingsAccounts) == 0 {
		return sig
	}

	savingsIDs := make(map[string]bool, len(savingsAccounts))
	for _, a := range savingsAccounts {
		savingsIDs[a.AccountID] = true
	}

	windowTxns := filterByAccountAndDate(txns, savingsIDs, cutoff)

	netInflow := 0.0
	accountFlows := make(map[string]float64)
	travelCount := 0
	for i, flagged := range travelFiltered(windowTxns) {
		if flagged {
			travelCount++
			continue
		}
		t := windowTxns[i]
		accountFlows[t.AccountID] += t.Amount
		netInflow += t.Amount
	}

	// Monthly savings average over its own fixed sub-window, bucketed by
	// calendar month.
	savingsCutoff := ref.AddDays(-savingsMonthlyWindowDays)
	monthlyTxns := filterByAccountAndDate(txns, savingsIDs, savingsCutoff)

	monthlyBuckets := make(map[string]float64)
	for i, flagged := range travelFiltered(monthlyTxns) {
		if flagged {
			continue
		}
		t := monthlyTxns[i]
		monthKey := fmt.Sprintf("%04d-%02d", t.Date.Year, int(t.Date.Month))
		monthlyBuckets[monthKey] += t.Amount
	}
	avgMonthlySavings := 0.0
	if len(monthlyBuckets) > 0 {
		total := 0.0
		for _, v := range monthlyBuckets {
			total += v
		}
		avgMonthlySavings = total / float64(len(monthlyBuckets))
	}

	totalSavings := 0.0
	for _, a := range savingsAccounts {
		totalSavings += a.Balance
	}

	historicalBalance := totalSavings - netInflow
	growthRate := 0.0
	if historicalBalance > 0 {
		growthRate = (totalSavings - historicalBalance) / historicalBalance * 100
	} else if totalSavings > 0 {
		// Started from zero or negative; any positive balance counts as
		// full growth rather than a division-by-negative artifact.
		growthRate = 100.0
	}

	checkingIDs := make(map[string]bool)
	for _, a := range accounts {
		if a.Subtype == "checking" {
			checkingIDs[a.AccountID] = true
		}
	}
	totalSpend := 0.0
	for _, t := range txns {
		if checkingIDs[t.AccountID] && !t.Date.Before(cutoff) && t.Amount < 0 {
			totalSpend += math.Abs(t.Amount)
		}
	}

	monthsInWindow := float64(windowDays) / 30.0
	avgMonthlyExpenses := 0.0
	if monthsInWindow > 0 {
		avgMonthlyExpenses = totalSpend / monthsInWindow
	}

	coverage := 0.0
	if avgMonthlyExpenses > 0 {
		coverage = totalSavings / avgMonthlyExpenses
	}

	switch {
	case coverage >= 6:
		sig.CoverageLevel = "excellent"
	case coverage >= 3:
		sig.CoverageLevel = "good"
	case coverage > 0:
		sig.CoverageLevel = "building"
	default:
		sig.CoverageLevel = "low"
	}

	for _, a := range savingsAccounts {
		sig.Accounts = append(sig.Accounts, SavingsAccountDetail{
			AccountID: a.AccountID,
			Balance:   a.Balance,
			NetInflow: round2(accountFlows[a.AccountID]),
			Subtype:   a.Subtype,
		})
	}

	sig.TotalSavings = round2(totalSavings)
	sig.NetInflow = round2(netInflow)
	sig.GrowthRate = round2(growthRate)
	sig.EmergencyFundCoverage = round2(coverage)
	sig.AvgMonthlyExpenses = round2(avgMonthlyExpenses)
	sig.AvgMonthlySavings = round2(avgMonthlySavings)
	sig.TravelFilteredTransactions = travelCount
	return sig
}

// filterByAccountAndDate returns the matching transactions sorted oldest
// first; the travel filter depends on walk order.
func filterByAccountAndDate(txns []domain.Transaction, accountIDs map[string]bool, cutoff civil.Date) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range txns {
		if accountIDs[t.AccountID] && !t.Date.Before(cutoff) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// travelFiltered flags transactions whose location differs from the
// previously seen one and has never been seen before (first divergence).
// The first located transaction is never flagged. Flagged transactions
// still update the location tracking.
func travelFiltered(txns []domain.Transaction) []bool {
	flags := make([]bool, len(txns))
	seen := make(map[string]bool)
	previous := ""

	for i, t := range txns {
		key := ""
		switch {
		case t.LocationCity != "" && t.LocationRegion != "":
			key = t.LocationCity + "," + t.LocationRegion
		case t.LocationCity != "":
			key = t.LocationCity
		}

		if key != "" && previous != "" && key != previous && !seen[key] {
			flags[i] = true
		}
		if key != "" {
			seen[key] = true
			previous = key
		}
	}
	return flags
}
