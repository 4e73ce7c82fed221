// Package signals derives behavioral signals from a user's transaction and
// account history. Four independent detectors (subscriptions, credit
// utilization, savings behavior, income stability) each produce a typed
// record; the Engine orchestrates fetching, detection and persistence.
package signals

import (
	"encoding/json"
	"time"
)

// Signal type names used as storage keys and API fields.
const (
	SignalSubscriptions     = "subscriptions"
	SignalCreditUtilization = "credit_utilization"
	SignalSavingsBehavior   = "savings_behavior"
	SignalIncomeStability   = "income_stability"
)

// SubscriptionSignal describes detected recurring-merchant spend.
type SubscriptionSignal struct {
	RecurringMerchants []string         `json:"recurring_merchants"`
	MonthlyRecurring   float64          `json:"monthly_recurring"`
	SubscriptionShare  float64          `json:"subscription_share"`
	MerchantDetails    []MerchantDetail `json:"merchant_details"`
}

// MerchantDetail is the per-merchant breakdown of a confirmed subscription.
type MerchantDetail struct {
	Merchant          string  `json:"merchant"`
	Frequency         string  `json:"frequency"` // "monthly" or "weekly"
	Amount            float64 `json:"amount"`
	MonthlyEquivalent float64 `json:"monthly_equivalent"`
	Occurrences       int     `json:"occurrences"`
	PaymentChannel    string  `json:"payment_channel"`
	OnlineRatio       float64 `json:"online_ratio"`
}

// CreditSignal describes aggregate and per-account credit utilization.
type CreditSignal struct {
	TotalUtilization    float64               `json:"total_utilization"`
	UtilizationLevel    string                `json:"utilization_level"` // "high", "medium", "low"
	Accounts            []CreditAccountDetail `json:"accounts"`
	InterestCharged     float64               `json:"interest_charged"`
	MinimumPaymentOnly  bool                  `json:"minimum_payment_only"`
	IsOverdue           bool                  `json:"is_overdue"`
	OnlineSpendingShare float64               `json:"online_spending_share"`
}

type CreditAccountDetail struct {
	AccountID          string  `json:"account_id"`
	Balance            float64 `json:"balance"`
	Limit              float64 `json:"limit"`
	Utilization        float64 `json:"utilization"`
	UtilizationLevel   string  `json:"utilization_level"`
	InterestCharged    float64 `json:"interest_charged"`
	MinimumPaymentOnly bool    `json:"minimum_payment_only"`
}

// SavingsSignal describes savings-account balance growth and coverage.
type SavingsSignal struct {
	TotalSavings               float64                `json:"total_savings"`
	NetInflow                  float64                `json:"net_inflow"`
	GrowthRate                 float64                `json:"growth_rate"`
	EmergencyFundCoverage      float64                `json:"emergency_fund_coverage"`
	CoverageLevel              string                 `json:"coverage_level"` // "excellent", "good", "building", "low"
	Accounts                   []SavingsAccountDetail `json:"accounts"`
	AvgMonthlyExpenses         float64                `json:"avg_monthly_expenses"`
	AvgMonthlySavings          float64                `json:"avg_monthly_savings"`
	TravelFilteredTransactions int                    `json:"travel_filtered_transactions"`
}

type SavingsAccountDetail struct {
	AccountID string  `json:"account_id"`
	Balance   float64 `json:"balance"`
	NetInflow float64 `json:"net_inflow"`
	Subtype   string  `json:"subtype"`
}

// IncomeSignal describes payroll-deposit cadence and variability.
type IncomeSignal struct {
	Frequency              string  `json:"frequency"` // "weekly", "biweekly", "monthly", "irregular", "unknown"
	MedianPayGap           int     `json:"median_pay_gap"`
	IrregularFrequency     bool    `json:"irregular_frequency"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	CashFlowBuffer         float64 `json:"cash_flow_buffer"`
	AvgMonthlyIncome       float64 `json:"avg_monthly_income"`
	AvgMonthlyExpenses     float64 `json:"avg_monthly_expenses"`
}

// SignalSet holds the four signal records for one (user, window). A nil
// member means the signal was never computed or never stored; downstream
// scoring treats that as "criteria not met", not as zero-valued metrics.
type SignalSet struct {
	Subscriptions     *SubscriptionSignal `json:"subscriptions,omitempty"`
	CreditUtilization *CreditSignal       `json:"credit_utilization,omitempty"`
	SavingsBehavior   *SavingsSignal      `json:"savings_behavior,omitempty"`
	IncomeStability   *IncomeSignal       `json:"income_stability,omitempty"`
}

// Empty reports whether no signal record is present at all.
func (s *SignalSet) Empty() bool {
	return s == nil || (s.Subscriptions == nil && s.CreditUtilization == nil &&
		s.SavingsBehavior == nil && s.IncomeStability == nil)
}

// FeatureRecord is the storage envelope for one computed signal.
type FeatureRecord struct {
	UserID     string          `json:"user_id"`
	TimeWindow string          `json:"time_window"`
	SignalType string          `json:"signal_type"`
	SignalData json.RawMessage `json:"signal_data"`
	ComputedAt time.Time       `json:"computed_at"`
}
