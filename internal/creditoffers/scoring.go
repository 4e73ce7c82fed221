package creditoffers

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// calculateMatchPercentage scores one product for the customer. The bool is
// false when a hard gate disqualified the product (no score at all, as
// opposed to a low one). Scores start at 100 and are adjusted by
// product-specific heuristics, capped at 100.
func calculateMatchPercentage(customer CustomerInfo, rules qualificationRules, productType string) (float64, string, bool) {
	score := 100.0
	var reasons []string

	switch productType {
	case ProductBankBonus:
		if customer.AvgMonthlySavings < rules.minAvgMonthlySavings {
			return 0, "", false
		}
		if customer.IsOverdue && !rules.allowOverdue {
			return 0, "", false
		}
		if customer.AvgMonthlySavings >= rules.minAvgMonthlySavings*1.5 {
			return 95.0, "Strong savings history qualifies for $500 bonus", true
		}
		return 85.0, "Qualified for $500 bonus with current savings rate", true

	case ProductBalanceTransfer:
		if customer.IsOverdue && !rules.allowOverdue {
			return 0, "", false
		}
		if customer.TotalUtilization > rules.maxUtilization {
			return 0, "", false
		}

		if customer.InterestCharged >= rules.minInterestCharged {
			// Up to a 25-point boost, $2 of score per $100 of interest.
			score += math.Min(customer.InterestCharged/100*2, 25)
			estimatedSavings := customer.InterestCharged * 18 / 12
			reasons = append(reasons, fmt.Sprintf("Could save ~$%.0f in interest over 18 months", estimatedSavings))
		}
		if customer.MinimumPaymentOnly && customer.InterestCharged > 100 {
			score += 10
			reasons = append(reasons, "Break free from minimum payment cycle")
		}
		if customer.UtilizationLevel == UtilizationHigh {
			score -= 15
			reasons = append(reasons, "High utilization - consolidate to improve credit")
		}
		reasons = append(reasons, "0% APR for 18 months on balance transfers")
		return math.Min(score, 100.0), strings.Join(reasons, "; "), true

	case ProductSavings:
		if customer.IsOverdue && !rules.allowOverdue {
			return 0, "", false
		}
		if customer.MinimumPaymentOnly && !rules.allowMinimumPaymentOnly {
			return 0, "", false
		}
		if customer.TotalUtilization > rules.maxUtilization {
			return 0, "", false
		}

		needsSavingsHelp := false
		if customer.EmergencyFundCoverage < rules.maxEmergencyFundCoverage {
			score += 15
			needsSavingsHelp = true
			reasons = append(reasons, fmt.Sprintf("Build emergency fund (currently %.1f months)", customer.EmergencyFundCoverage))
		}
		if customer.GrowthRate < rules.maxGrowthRate {
			score += 10
			needsSavingsHelp = true
			reasons = append(reasons, "Automatic savings to boost your savings rate")
		}
		if !needsSavingsHelp {
			score -= 20
		}
		reasons = append(reasons, "Round-up purchases automatically into savings")
		return math.Min(score, 100.0), strings.Join(reasons, "; "), true

	case ProductRestaurant, ProductTravel:
		if customer.IsOverdue && !rules.allowOverdue {
			return 0, "", false
		}
		if customer.MinimumPaymentOnly && !rules.allowMinimumPaymentOnly {
			return 0, "", false
		}
		if customer.TotalUtilization > rules.maxUtilization {
			return 0, "", false
		}

		if customer.UtilizationLevel == UtilizationLow {
			score += 10
			reasons = append(reasons, "Excellent credit utilization")
		}
		if customer.InterestCharged < 10 {
			score += 5
			reasons = append(reasons, "Strong payment history")
		}
		if productType == ProductRestaurant {
			reasons = append(reasons, "4X points on dining")
		} else {
			reasons = append(reasons, "5X points on travel")
		}
		return math.Min(score, 100.0), strings.Join(reasons, "; "), true

	case ProductSecured:
		reasons = append(reasons, "Build credit with secured deposit")
		if customer.TotalUtilization > 80 {
			reasons = append(reasons, "Improve credit score with responsible use")
		}
		return 80.0, strings.Join(reasons, "; "), true
	}

	// Unknown product types get a baseline qualification.
	if customer.IsOverdue {
		return 0, "", false
	}
	if customer.TotalUtilization > 85 {
		return 0, "", false
	}
	return 70.0, "Qualified for this product", true
}

// DetermineCreditRating infers a display rating from behavior.
func DetermineCreditRating(customer CustomerInfo) CreditRating {
	if customer.IsOverdue || customer.UtilizationLevel == UtilizationHigh {
		if customer.MinimumPaymentOnly {
			return RatingPoor
		}
		return RatingFair
	}
	if customer.MinimumPaymentOnly || customer.TotalUtilization > 50 {
		return RatingFair
	}
	if customer.TotalUtilization > 30 || customer.InterestCharged > 100 {
		return RatingGood
	}
	return RatingExcellent
}

// prequalificationThreshold is the minimum match score a product needs to
// appear in the response.
const prequalificationThreshold = 60.0

// CreatePrequalification evaluates the whole catalog, keeps products at or
// above the threshold, sorts them by match score descending and reassigns
// priorities 1..N.
func CreatePrequalification(customer CustomerInfo) Prequalification {
	rating := DetermineCreditRating(customer)
	var qualified []ProductOffer

	for _, p := range productCatalog {
		matchPct, reason, ok := calculateMatchPercentage(customer, p.rules, p.key)
		if !ok || matchPct < prequalificationThreshold {
			continue
		}

		cardArt := generateCardSVG(p.displayName, p.tier, p.colors)

		estimatedSavings := ""
		if p.key == ProductBalanceTransfer && customer.InterestCharged > 0 {
			// 18 months of interest at the current monthly rate.
			estimatedSavings = fmt.Sprintf("$%.0f", customer.InterestCharged*18/12)
		}

		qualified = append(qualified, ProductOffer{
			ProductID:          p.productID,
			Code:               p.code,
			ProductDisplayName: p.displayName,
			Priority:           len(qualified) + 1,
			Tier:               p.tier,
			CreditRating:       rating,
			Images: map[string]ImageData{
				"cardArt": {
					ImageType: "CardArt",
					URL:       cardArt,
					AltText:   p.displayName + " card art",
				},
				"cardName": {
					ImageType: "CardName",
					URL:       cardArt,
					AltText:   p.displayName,
				},
			},
			IntroPurchaseAPR:        p.introPurchaseAPR,
			PurchaseAPR:             p.purchaseAPR,
			IntroBalanceTransferAPR: p.introBalanceTransferAPR,
			BalanceTransferFee:      p.balanceTransferFee,
			AnnualMembershipFee:     p.annualMembershipFee,
			MainMarketingCopy:       p.mainMarketingCopy,
			ExtraMarketingCopy:      p.extraMarketingCopy,
			ApplyNowLink:            "https://example.com/apply/" + p.code,
			MatchPercentage:         math.Round(matchPct*100) / 100,
			MatchReason:             reason,
			BonusAmount:             p.bonusAmount,
			BonusRequirement:        p.bonusRequirement,
			EstimatedSavings:        estimatedSavings,
		})
	}

	// Stable sort preserves catalog order between equal scores.
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].MatchPercentage > qualified[j].MatchPercentage
	})
	for i := range qualified {
		qualified[i].Priority = i + 1
	}

	return Prequalification{
		PrequalificationID:   uuid.NewString(),
		QualifiedProducts:    qualified,
		CustomerCreditRating: rating,
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
	}
}
