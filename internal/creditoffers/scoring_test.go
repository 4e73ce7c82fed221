package creditoffers

import (
	"math"
	"strings"
	"testing"
)

// healthyCustomer pays in full with low utilization and a solid fund.
func healthyCustomer() CustomerInfo {
	return CustomerInfo{
		TotalUtilization:      12.0,
		UtilizationLevel:      UtilizationLow,
		InterestCharged:       0,
		EmergencyFundCoverage: 6.5,
		GrowthRate:            8.0,
		TotalSavings:          12000,
		AvgMonthlySavings:     400,
	}
}

// strugglingCustomer carries interest and only makes minimum payments.
func strugglingCustomer() CustomerInfo {
	return CustomerInfo{
		TotalUtilization:   72.0,
		UtilizationLevel:   UtilizationHigh,
		InterestCharged:    180,
		MinimumPaymentOnly: true,
		IsOverdue:          false,
	}
}

func TestDetermineCreditRating(t *testing.T) {
	tests := []struct {
		name     string
		customer CustomerInfo
		want     CreditRating
	}{
		{"low utilization, no interest", healthyCustomer(), RatingExcellent},
		{"overdue with minimum payments", CustomerInfo{IsOverdue: true, MinimumPaymentOnly: true}, RatingPoor},
		{"overdue paying above minimum", CustomerInfo{IsOverdue: true}, RatingFair},
		{"high utilization level", CustomerInfo{UtilizationLevel: UtilizationHigh}, RatingFair},
		{"minimum payments only", CustomerInfo{UtilizationLevel: UtilizationMedium, MinimumPaymentOnly: true}, RatingFair},
		{"moderate utilization", CustomerInfo{TotalUtilization: 40, UtilizationLevel: UtilizationMedium}, RatingGood},
		{"heavy interest", CustomerInfo{TotalUtilization: 10, UtilizationLevel: UtilizationLow, InterestCharged: 150}, RatingGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineCreditRating(tt.customer); got != tt.want {
				t.Errorf("DetermineCreditRating = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateMatchPercentage_BalanceTransfer(t *testing.T) {
	customer := strugglingCustomer()

	score, reason, ok := calculateMatchPercentage(customer, productCatalog[0].rules, ProductBalanceTransfer)
	if !ok {
		t.Fatal("expected qualification, got hard disqualification")
	}
	// 100 + min(180/100*2, 25)=3.6 + 10 (min-payment cycle) - 15 (high
	// utilization), capped at 100.
	if got := math.Round(score*100) / 100; got != 98.6 {
		t.Errorf("score = %v, want 98.6", got)
	}
	if !strings.Contains(reason, "Could save ~$270 in interest over 18 months") {
		t.Errorf("reason missing estimated savings: %q", reason)
	}
	if !strings.Contains(reason, "Break free from minimum payment cycle") {
		t.Errorf("reason missing minimum-payment callout: %q", reason)
	}
}

func TestCalculateMatchPercentage_BalanceTransferGates(t *testing.T) {
	overdue := strugglingCustomer()
	overdue.IsOverdue = true
	if _, _, ok := calculateMatchPercentage(overdue, productCatalog[0].rules, ProductBalanceTransfer); ok {
		t.Error("overdue customer should be hard-disqualified")
	}

	maxed := strugglingCustomer()
	maxed.TotalUtilization = 90
	if _, _, ok := calculateMatchPercentage(maxed, productCatalog[0].rules, ProductBalanceTransfer); ok {
		t.Error("customer above the utilization ceiling should be hard-disqualified")
	}
}

func TestCalculateMatchPercentage_SecuredAlwaysQualifies(t *testing.T) {
	customer := strugglingCustomer()
	customer.IsOverdue = true
	customer.TotalUtilization = 98

	score, reason, ok := calculateMatchPercentage(customer, qualificationRules{}, ProductSecured)
	if !ok {
		t.Fatal("secured card should qualify everyone")
	}
	if score != 80.0 {
		t.Errorf("score = %v, want flat 80.0", score)
	}
	if !strings.Contains(reason, "Improve credit score with responsible use") {
		t.Errorf("reason should mention improvement above 80%% utilization: %q", reason)
	}
}

func TestCalculateMatchPercentage_BankBonusTiers(t *testing.T) {
	base := healthyCustomer()

	base.AvgMonthlySavings = 1000
	if _, _, ok := calculateMatchPercentage(base, productCatalog[5].rules, ProductBankBonus); ok {
		t.Error("below the savings floor should be hard-disqualified")
	}

	base.AvgMonthlySavings = 1700
	score, _, ok := calculateMatchPercentage(base, productCatalog[5].rules, ProductBankBonus)
	if !ok || score != 85.0 {
		t.Errorf("got %v/%v, want 85.0 at the basic tier", score, ok)
	}

	base.AvgMonthlySavings = 2600
	score, _, ok = calculateMatchPercentage(base, productCatalog[5].rules, ProductBankBonus)
	if !ok || score != 95.0 {
		t.Errorf("got %v/%v, want 95.0 at 1.5x the floor", score, ok)
	}
}

func TestCalculateMatchPercentage_PremiumRejectsMinimumPayers(t *testing.T) {
	customer := healthyCustomer()
	customer.MinimumPaymentOnly = true

	for _, productType := range []string{ProductRestaurant, ProductTravel} {
		if _, _, ok := calculateMatchPercentage(customer, qualificationRules{maxUtilization: 30}, productType); ok {
			t.Errorf("%s should hard-disqualify minimum-only payers", productType)
		}
	}
}

func TestCreatePrequalification_ThresholdSortAndPriorities(t *testing.T) {
	preq := CreatePrequalification(healthyCustomer())

	if len(preq.QualifiedProducts) == 0 {
		t.Fatal("healthy customer should qualify for something")
	}
	for i, offer := range preq.QualifiedProducts {
		if offer.MatchPercentage < prequalificationThreshold {
			t.Errorf("offer %s scored %v, below threshold", offer.Code, offer.MatchPercentage)
		}
		if offer.Priority != i+1 {
			t.Errorf("offer %d priority = %d, want %d", i, offer.Priority, i+1)
		}
		if i > 0 && offer.MatchPercentage > preq.QualifiedProducts[i-1].MatchPercentage {
			t.Errorf("offers not sorted descending at index %d", i)
		}
	}
	if preq.CustomerCreditRating != RatingExcellent {
		t.Errorf("credit rating = %v, want EXCELLENT", preq.CustomerCreditRating)
	}
	if preq.PrequalificationID == "" || preq.Timestamp == "" {
		t.Error("expected id and timestamp to be populated")
	}
}

func TestCreatePrequalification_EstimatedSavingsOnBalanceTransfer(t *testing.T) {
	preq := CreatePrequalification(strugglingCustomer())

	var bt *ProductOffer
	for i := range preq.QualifiedProducts {
		if preq.QualifiedProducts[i].ProductID == "BT-001" {
			bt = &preq.QualifiedProducts[i]
		}
	}
	if bt == nil {
		t.Fatal("struggling customer should qualify for the balance transfer card")
	}
	if bt.EstimatedSavings != "$270" {
		t.Errorf("estimatedSavings = %q, want $270", bt.EstimatedSavings)
	}
}

func TestGenerateCardSVG_DataURL(t *testing.T) {
	url := generateCardSVG("Test Card", "PREMIUM", colorScheme{start: "#000000", end: "#ffffff"})
	if !strings.HasPrefix(url, "data:image/svg+xml;base64,") {
		t.Errorf("expected an SVG data URL, got %q", url[:40])
	}
}
