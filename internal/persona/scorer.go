// Package persona maps a user's signal records to one of five behavioral
// personas via additive, human-auditable scoring rules.
package persona

import (
	"fmt"

	"github.com/dvloznov/spendsense/internal/signals"
)

// Persona names.
const (
	HighUtilization   = "high_utilization"
	VariableIncome    = "variable_income"
	SubscriptionHeavy = "subscription_heavy"
	SavingsBuilder    = "savings_builder"
	GeneralWellness   = "general_wellness"
)

// Order is the fixed enumeration order. Score ties resolve to the earliest
// entry, so the general-wellness catch-all only wins when nothing else is
// competitive.
var Order = []string{
	HighUtilization,
	VariableIncome,
	SubscriptionHeavy,
	SavingsBuilder,
	GeneralWellness,
}

// ScoreResult holds the per-persona match percentages, the criteria each
// persona satisfied, and the winning persona.
type ScoreResult struct {
	MatchPercentages map[string]float64  `json:"match_percentages"`
	CriteriaDetails  map[string][]string `json:"criteria_details"`
	PrimaryPersona   string              `json:"primary_persona"`
}

// CalculateScores scores all five personas against the signal set. A nil or
// absent signal record contributes nothing; with no signals at all the user
// short-circuits to general wellness at 100.
func CalculateScores(set *signals.SignalSet) ScoreResult {
	if set.Empty() {
		return ScoreResult{
			MatchPercentages: map[string]float64{GeneralWellness: 100.0},
			CriteriaDetails:  map[string][]string{GeneralWellness: {"No signals available"}},
			PrimaryPersona:   GeneralWellness,
		}
	}

	percentages := make(map[string]float64, len(Order))
	details := make(map[string][]string, len(Order))

	score, criteria := scoreHighUtilization(set.CreditUtilization)
	percentages[HighUtilization] = score
	details[HighUtilization] = criteria

	score, criteria = scoreVariableIncome(set.IncomeStability)
	percentages[VariableIncome] = score
	details[VariableIncome] = criteria

	score, criteria = scoreSubscriptionHeavy(set.Subscriptions)
	percentages[SubscriptionHeavy] = score
	details[SubscriptionHeavy] = criteria

	score, criteria = scoreSavingsBuilder(set.SavingsBehavior, set.CreditUtilization)
	percentages[SavingsBuilder] = score
	details[SavingsBuilder] = criteria

	score, criteria = scoreGeneralWellness(percentages)
	percentages[GeneralWellness] = score
	details[GeneralWellness] = criteria

	return ScoreResult{
		MatchPercentages: percentages,
		CriteriaDetails:  details,
		PrimaryPersona:   primaryPersona(percentages),
	}
}

// primaryPersona is the arg-max over Order; an equal score never displaces
// an earlier persona.
func primaryPersona(percentages map[string]float64) string {
	best := Order[0]
	bestScore := percentages[best]
	for _, name := range Order[1:] {
		if percentages[name] > bestScore {
			best = name
			bestScore = percentages[name]
		}
	}
	return best
}

// scoreHighUtilization: +25 for each of utilization >= 50%, interest
// charged, minimum-payment-only, and overdue. Account-level utilization is
// deliberately not scored; the aggregate already reflects it.
func scoreHighUtilization(credit *signals.CreditSignal) (float64, []string) {
	score := 0.0
	criteria := []string{}
	if credit == nil {
		return score, criteria
	}

	if credit.TotalUtilization/100.0 >= 0.50 {
		score += 25.0
		criteria = append(criteria, "credit_utilization >= 50%")
	}
	if credit.InterestCharged > 0 {
		score += 25.0
		criteria = append(criteria, "interest_charged > 0")
	}
	if credit.MinimumPaymentOnly {
		score += 25.0
		criteria = append(criteria, "minimum_payment_only")
	}
	if credit.IsOverdue {
		score += 25.0
		criteria = append(criteria, "is_overdue")
	}
	return score, criteria
}

func scoreVariableIncome(income *signals.IncomeSignal) (float64, []string) {
	score := 0.0
	criteria := []string{}
	if income == nil {
		return score, criteria
	}

	if income.MedianPayGap > 45 || income.IrregularFrequency {
		score += 50.0
		criteria = append(criteria, "irregular_income_pattern")
	}
	if income.CashFlowBuffer < 1.0 {
		score += 50.0
		criteria = append(criteria, "cash_flow_buffer < 1.0")
	}
	return score, criteria
}

func scoreSubscriptionHeavy(subs *signals.SubscriptionSignal) (float64, []string) {
	score := 0.0
	criteria := []string{}
	if subs == nil {
		return score, criteria
	}

	if len(subs.RecurringMerchants) >= 3 {
		score += 50.0
		criteria = append(criteria, fmt.Sprintf("recurring_merchants >= 3 (%d found)", len(subs.RecurringMerchants)))
	}
	if subs.MonthlyRecurring >= 50.0 || subs.SubscriptionShare/100.0 >= 0.10 {
		score += 50.0
		criteria = append(criteria, "monthly_recurring >= $50 OR subscription_share >= 10%")
	}
	return score, criteria
}

// scoreSavingsBuilder requires a savings signal; without one neither
// criterion scores, including the credit-low check.
func scoreSavingsBuilder(savings *signals.SavingsSignal, credit *signals.CreditSignal) (float64, []string) {
	score := 0.0
	criteria := []string{}
	if savings == nil {
		return score, criteria
	}

	if savings.GrowthRate/100.0 >= 0.02 || savings.NetInflow >= 200.0 {
		score += 50.0
		criteria = append(criteria, "savings_growth_rate >= 2% OR net_inflow >= $200")
	}

	// Vacuously true with no credit signal or no credit accounts.
	allCreditLow := true
	if credit != nil {
		if credit.TotalUtilization/100.0 >= 0.30 {
			allCreditLow = false
		} else {
			for _, acc := range credit.Accounts {
				if acc.Utilization/100.0 >= 0.30 {
					allCreditLow = false
					break
				}
			}
		}
	}
	if allCreditLow {
		score += 50.0
		criteria = append(criteria, "all_credit_utilization < 30%")
	}
	return score, criteria
}

// scoreGeneralWellness: a 20-point baseline plus 30 when no other persona
// reaches 50.
func scoreGeneralWellness(percentages map[string]float64) (float64, []string) {
	score := 20.0
	criteria := []string{"baseline_score"}

	maxOther := 0.0
	for _, name := range []string{HighUtilization, VariableIncome, SubscriptionHeavy, SavingsBuilder} {
		if percentages[name] > maxOther {
			maxOther = percentages[name]
		}
	}
	if maxOther < 50.0 {
		score += 30.0
		criteria = append(criteria, "no_other_persona_strong_match")
	}
	return score, criteria
}
