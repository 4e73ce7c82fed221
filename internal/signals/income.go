package signals

import (
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendsense/internal/category"
	"github.com/dvloznov/spendsense/internal/domain"
)

var (
	payrollKeywords   = []string{"payroll", "employer", "salary", "direct deposit"}
	payrollExclusions = []string{"savings", "transfer", "refund", "tax"}
)

// DetectIncomeStability classifies the cadence and variability of payroll
// deposits into the user's first checking account.
//
// A deposit qualifies as payroll when it is over $500 with a payroll-style
// merchant keyword, or carries an income/payroll category; deposits that
// look like transfers, refunds or tax payments are excluded, as are
// non-USD deposits (a missing currency code is allowed). Fewer than two
// qualifying deposits yields the unknown/irregular default record.
func DetectIncomeStability(txns []domain.Transaction, accounts []domain.Account, ref civil.Date, windowDays int) *IncomeSignal {
	cutoff := ref.AddDays(-windowDays)

	unknown := &IncomeSignal{Frequency: "unknown", IrregularFrequency: true}

	var checking *domain.Account
	for i := range accounts {
		if accounts[i].Subtype == "checking" {
			checking = &accounts[i]
			break
		}
	}
	if checking == nil {
		return unknown
	}

	var payroll []domain.Transaction
	for _, t := range txns {
		if t.AccountID != checking.AccountID || t.Date.Before(cutoff) || t.Amount <= 0 {
			continue
		}
		if t.ISOCurrencyCode != "" && t.ISOCurrencyCode != "USD" {
			continue
		}
		merchant := strings.ToLower(t.MerchantName)

		hasKeyword := false
		for _, kw := range payrollKeywords {
			if strings.Contains(merchant, kw) {
				hasKeyword = true
				break
			}
		}
		hasIncomeCategory := category.ContainsAny(t.Category, "income", "payroll")
		if !(t.Amount > 500 && hasKeyword) && !hasIncomeCategory {
			continue
		}

		excluded := false
		for _, kw := range payrollExclusions {
			if strings.Contains(merchant, kw) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		payroll = append(payroll, t)
	}

	if len(payroll) < 2 {
		return unknown
	}

	sort.SliceStable(payroll, func(i, j int) bool {
		return payroll[i].EffectiveDate().Before(payroll[j].EffectiveDate())
	})

	var payAmounts []float64
	var intervals []float64
	for i, t := range payroll {
		payAmounts = append(payAmounts, t.Amount)
		if i > 0 {
			intervals = append(intervals, float64(t.EffectiveDate().DaysSince(payroll[i-1].EffectiveDate())))
		}
	}

	medianGap := median(intervals)

	frequency := "irregular"
	switch {
	case medianGap >= 6 && medianGap <= 8:
		frequency = "weekly"
	case medianGap >= 13 && medianGap <= 15:
		frequency = "biweekly"
	case medianGap >= 28 && medianGap <= 31:
		frequency = "monthly"
	}

	cov := 0.0
	if m := mean(payAmounts); m > 0 {
		cov = sampleStdev(payAmounts) / m * 100
	}

	totalIncome := 0.0
	for _, a := range payAmounts {
		totalIncome += a
	}
	monthsInWindow := float64(windowDays) / 30.0
	avgMonthlyIncome := 0.0
	if monthsInWindow > 0 {
		avgMonthlyIncome = totalIncome / monthsInWindow
	}

	totalSpend := 0.0
	for _, t := range txns {
		if t.AccountID == checking.AccountID && !t.Date.Before(cutoff) && t.Amount < 0 {
			totalSpend += math.Abs(t.Amount)
		}
	}
	avgMonthlyExpenses := 0.0
	if monthsInWindow > 0 {
		avgMonthlyExpenses = totalSpend / monthsInWindow
	}

	buffer := 0.0
	if avgMonthlyExpenses > 0 {
		buffer = checking.Balance / avgMonthlyExpenses
	}

	return &IncomeSignal{
		Frequency:              frequency,
		MedianPayGap:           int(medianGap),
		IrregularFrequency:     isIrregularFrequency(medianGap, intervals),
		CoefficientOfVariation: round2(cov),
		CashFlowBuffer:         round2(buffer),
		AvgMonthlyIncome:       round2(avgMonthlyIncome),
		AvgMonthlyExpenses:     round2(avgMonthlyExpenses),
	}
}

// isIrregularFrequency: a median gap inside a known band is regular; outside
// the bands, high interval variance (stdev > 7 days) marks irregularity,
// and with a single interval there is not enough evidence of regularity.
func isIrregularFrequency(medianGap float64, intervals []float64) bool {
	switch {
	case medianGap >= 6 && medianGap <= 8:
		return false
	case medianGap >= 13 && medianGap <= 15:
		return false
	case medianGap >= 28 && medianGap <= 31:
		return false
	}
	if len(intervals) > 1 {
		return sampleStdev(intervals) > 7
	}
	return true
}
