package recommend

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendsense/internal/catalog"
	"github.com/dvloznov/spendsense/internal/creditoffers"
	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/persona"
	"github.com/dvloznov/spendsense/internal/signals"
	"github.com/dvloznov/spendsense/internal/store"
)

const (
	maxEducationItems = 5
	maxOffers         = 3

	// Offer threshold shared with the prequalifier.
	creditOfferMinMatch = 60.0
)

// FeatureSource loads stored signal records; implemented by signals.Engine.
type FeatureSource interface {
	UserFeatures(ctx context.Context, userID string, window domain.TimeWindow) (*signals.SignalSet, error)
}

// PersonaSource loads stored persona assignments; implemented by
// persona.Assigner.
type PersonaSource interface {
	Assignment(ctx context.Context, userID string, window domain.TimeWindow) (*persona.Assignment, error)
}

// Matcher generates and persists recommendations for one user at a time.
type Matcher struct {
	store     store.Store
	features  FeatureSource
	personas  PersonaSource
	catalog   *catalog.Catalog
	rationale RationaleGenerator
	tone      ToneValidator
	log       zerolog.Logger
	now       func() time.Time
}

func NewMatcher(
	st store.Store,
	features FeatureSource,
	personas PersonaSource,
	cat *catalog.Catalog,
	rationale RationaleGenerator,
	tone ToneValidator,
	log zerolog.Logger,
) *Matcher {
	return &Matcher{
		store:     st,
		features:  features,
		personas:  personas,
		catalog:   cat,
		rationale: rationale,
		tone:      tone,
		log:       log.With().Str("component", "recommend").Logger(),
		now:       time.Now,
	}
}

// WithNow fixes the matcher's clock for tests.
func (m *Matcher) WithNow(now func() time.Time) *Matcher {
	m.now = now
	return m
}

// Generate builds, persists and returns the user's recommendations for a
// window. Returns an empty list when the user has no persona assignment or
// no stored signals. Items failing tone validation are dropped and never
// stored.
func (m *Matcher) Generate(ctx context.Context, userID string, window domain.TimeWindow) ([]Recommendation, error) {
	assignment, err := m.personas.Assignment(ctx, userID, window)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("Generate: load persona: %w", err)
	}

	personaName := assignment.PrimaryPersona
	if personaName == "" {
		personaName = assignment.Persona
	}

	set, err := m.features.UserFeatures(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("Generate: load features: %w", err)
	}
	if set.Empty() {
		return nil, nil
	}

	var recs []Recommendation

	for _, item := range m.matchEducationContent(personaName, set) {
		rec, ok, err := m.buildRecommendation(ctx, userID, personaName, set, TypeEducation, item.ContentID, item.Title, item.RationaleTemplate)
		if err != nil {
			return nil, err
		}
		if ok {
			recs = append(recs, rec)
		}
	}

	for _, offer := range m.matchOffers(set) {
		rec, ok, err := m.buildRecommendation(ctx, userID, personaName, set, TypePartnerOffer, offer.OfferID, offer.Title, offer.RationaleTemplate)
		if err != nil {
			return nil, err
		}
		if ok {
			recs = append(recs, rec)
		}
	}

	for _, rec := range recs {
		if err := m.store.ReplaceRecord(ctx, userID, store.CollectionRecommendations, rec.RecommendationID, rec); err != nil {
			return nil, fmt.Errorf("Generate: store recommendation %s: %w", rec.RecommendationID, err)
		}
	}

	m.log.Info().
		Str("user_id", userID).
		Str("time_window", window.String()).
		Str("persona", personaName).
		Int("count", len(recs)).
		Msg("Generated recommendations")

	return recs, nil
}

// buildRecommendation renders the rationale, applies the tone gate and
// assembles the decision trace. The bool is false when the item was dropped.
func (m *Matcher) buildRecommendation(
	ctx context.Context,
	userID, personaName string,
	set *signals.SignalSet,
	recType, contentID, title, template string,
) (Recommendation, bool, error) {
	rationale, err := m.rationale.Generate(ctx, template, set)
	if err != nil {
		return Recommendation{}, false, fmt.Errorf("buildRecommendation: rationale for %s: %w", contentID, err)
	}

	toneValid, violations := m.tone.Validate(rationale)
	if !toneValid {
		m.log.Warn().
			Str("user_id", userID).
			Str("content_id", contentID).
			Strs("violations", violations).
			Msg("Dropping recommendation failing tone validation")
		return Recommendation{}, false, nil
	}

	rec := Recommendation{
		RecommendationID: newRecommendationID(),
		UserID:           userID,
		Type:             recType,
		ContentID:        contentID,
		Title:            title,
		Rationale:        rationale,
		ToneValid:        true,
		Eligible:         true,
		ShownAt:          m.now().UTC(),
	}
	rec.DecisionTrace = m.decisionTrace(rec, set, personaName)
	return rec, true, nil
}

func newRecommendationID() string {
	id := uuid.New()
	return "rec_" + hex.EncodeToString(id[:])[:12]
}

// matchEducationContent filters the persona's content by trigger signals.
// Items with no triggers always match; if trigger filtering leaves nothing,
// all persona content is returned so over-filtering never empties the list.
func (m *Matcher) matchEducationContent(personaName string, set *signals.SignalSet) []catalog.EducationContent {
	personaContent := m.catalog.ContentByPersona(personaName)
	if len(personaContent) == 0 {
		return nil
	}

	var matched []catalog.EducationContent
	for _, item := range personaContent {
		if len(item.TriggerSignals) == 0 {
			matched = append(matched, item)
			continue
		}
		for _, trigger := range item.TriggerSignals {
			if triggerSatisfied(trigger, set) {
				matched = append(matched, item)
				break
			}
		}
	}

	if len(matched) == 0 {
		matched = personaContent
	}
	if len(matched) > maxEducationItems {
		matched = matched[:maxEducationItems]
	}
	return matched
}

// triggerSatisfied evaluates one named trigger. A missing signal record
// reads as all-zero fields.
func triggerSatisfied(trigger string, set *signals.SignalSet) bool {
	var (
		credit  signals.CreditSignal
		subs    signals.SubscriptionSignal
		savings signals.SavingsSignal
		income  signals.IncomeSignal
	)
	if set != nil {
		if set.CreditUtilization != nil {
			credit = *set.CreditUtilization
		}
		if set.Subscriptions != nil {
			subs = *set.Subscriptions
		}
		if set.SavingsBehavior != nil {
			savings = *set.SavingsBehavior
		}
		if set.IncomeStability != nil {
			income = *set.IncomeStability
		}
	}

	switch trigger {
	case catalog.TriggerCreditUtilizationHigh:
		return credit.TotalUtilization >= 50.0
	case catalog.TriggerMinimumPaymentOnly:
		return credit.MinimumPaymentOnly
	case catalog.TriggerInterestCharged:
		return credit.InterestCharged > 0
	case catalog.TriggerIrregularFrequency:
		return income.IrregularFrequency
	case catalog.TriggerMedianPayGapHigh:
		return income.MedianPayGap > 45
	case catalog.TriggerCashFlowBufferLow:
		return income.CashFlowBuffer < 1.0
	case catalog.TriggerSubscriptionCountHigh:
		return len(subs.RecurringMerchants) >= 3
	case catalog.TriggerMonthlyRecurringHigh:
		return subs.MonthlyRecurring >= 50.0
	case catalog.TriggerSavingsGrowthRatePositive:
		return savings.GrowthRate > 0
	case catalog.TriggerEmergencyFundAdequate:
		return savings.EmergencyFundCoverage >= 3.0
	case catalog.TriggerSavingsBalancePositive:
		return savings.TotalSavings > 0
	}
	return false
}

// matchOffers combines eligible catalog partner offers with prequalified
// credit products mapped into the same shape, capped at maxOffers.
func (m *Matcher) matchOffers(set *signals.SignalSet) []catalog.PartnerOffer {
	var eligible []catalog.PartnerOffer
	for _, offer := range m.catalog.PartnerOffers {
		if offerEligible(offer, set) {
			eligible = append(eligible, offer)
		}
	}

	preq := creditoffers.CreatePrequalification(customerInfoFromSignals(set))
	for _, product := range preq.QualifiedProducts {
		if product.MatchPercentage < creditOfferMinMatch {
			continue
		}
		eligible = append(eligible, catalog.PartnerOffer{
			OfferID:           product.ProductID,
			Title:             product.ProductDisplayName,
			Partner:           "Credit Partner",
			Summary:           strings.Join(product.MainMarketingCopy, ". "),
			RationaleTemplate: product.MatchReason,
		})
	}

	if len(eligible) > maxOffers {
		eligible = eligible[:maxOffers]
	}
	return eligible
}

// offerEligible checks every present criterion; an empty criteria map means
// the offer is open to everyone. Unknown criterion names are ignored.
func offerEligible(offer catalog.PartnerOffer, set *signals.SignalSet) bool {
	if len(offer.EligibilityCriteria) == 0 {
		return true
	}

	var (
		credit  signals.CreditSignal
		subs    signals.SubscriptionSignal
		savings signals.SavingsSignal
	)
	if set != nil {
		if set.CreditUtilization != nil {
			credit = *set.CreditUtilization
		}
		if set.Subscriptions != nil {
			subs = *set.Subscriptions
		}
		if set.SavingsBehavior != nil {
			savings = *set.SavingsBehavior
		}
	}

	if crit, ok := offer.EligibilityCriteria["credit_utilization"]; ok {
		// Criteria express utilization as a 0..1 fraction.
		fraction := credit.TotalUtilization / 100.0
		if crit.Min != nil && fraction < *crit.Min {
			return false
		}
		if crit.Max != nil && fraction > *crit.Max {
			return false
		}
	}

	if crit, ok := offer.EligibilityCriteria["is_overdue"]; ok {
		expected := false
		if crit.Equals != nil {
			expected = *crit.Equals
		}
		if credit.IsOverdue != expected {
			return false
		}
	}

	if crit, ok := offer.EligibilityCriteria["subscription_count"]; ok {
		if crit.Min != nil && float64(len(subs.RecurringMerchants)) < *crit.Min {
			return false
		}
	}

	if crit, ok := offer.EligibilityCriteria["savings_balance"]; ok {
		if crit.Min != nil && savings.TotalSavings < *crit.Min {
			return false
		}
	}

	return true
}

// customerInfoFromSignals maps the credit and savings signals onto the
// prequalifier's input shape. Absent signals map to zero values.
func customerInfoFromSignals(set *signals.SignalSet) creditoffers.CustomerInfo {
	var info creditoffers.CustomerInfo
	if set == nil {
		return info
	}

	if credit := set.CreditUtilization; credit != nil {
		info.TotalUtilization = credit.TotalUtilization
		info.UtilizationLevel = credit.UtilizationLevel
		info.InterestCharged = credit.InterestCharged
		info.MinimumPaymentOnly = credit.MinimumPaymentOnly
		info.IsOverdue = credit.IsOverdue
		info.OnlineSpendingShare = credit.OnlineSpendingShare
		for _, acc := range credit.Accounts {
			info.PerAccountUtilization = append(info.PerAccountUtilization, creditoffers.AccountUtilization{
				AccountID:   acc.AccountID,
				Utilization: acc.Utilization,
				CreditLimit: acc.Limit,
				Balance:     acc.Balance,
			})
		}
	}
	if info.UtilizationLevel == "" {
		info.UtilizationLevel = creditoffers.UtilizationLow
	}

	if savings := set.SavingsBehavior; savings != nil {
		info.TotalSavings = savings.TotalSavings
		info.NetInflow = savings.NetInflow
		info.GrowthRate = savings.GrowthRate
		info.EmergencyFundCoverage = savings.EmergencyFundCoverage
		info.AvgMonthlySavings = savings.AvgMonthlySavings
	}

	return info
}

// decisionTrace records which signals drove the selection. Education items
// trace the utilization and subscription-count checks; offers trace only the
// guardrail outcomes.
func (m *Matcher) decisionTrace(rec Recommendation, set *signals.SignalSet, personaName string) DecisionTrace {
	var used []SignalUsage

	if rec.Type == TypeEducation && set != nil {
		if credit := set.CreditUtilization; credit != nil && credit.TotalUtilization > 0 {
			used = append(used, SignalUsage{
				Signal:    "credit_utilization",
				Value:     credit.TotalUtilization,
				Threshold: 50.0,
			})
		}
		if subs := set.Subscriptions; subs != nil && len(subs.RecurringMerchants) > 0 {
			used = append(used, SignalUsage{
				Signal:    "subscription_count",
				Value:     float64(len(subs.RecurringMerchants)),
				Threshold: 3,
			})
		}
	}

	return DecisionTrace{
		PersonaMatch: personaName,
		ContentID:    rec.ContentID,
		SignalsUsed:  used,
		GuardrailsPassed: map[string]bool{
			"tone_check":        rec.ToneValid,
			"eligibility_check": rec.Eligible,
		},
		Timestamp: m.now().UTC().Format(time.RFC3339),
	}
}

// Recommendations returns all stored recommendations for a user, ordered by
// recommendation ID.
func (m *Matcher) Recommendations(ctx context.Context, userID string) ([]Recommendation, error) {
	var recs []Recommendation
	err := m.store.ListRecords(ctx, userID, store.CollectionRecommendations, func(raw []byte) error {
		var rec Recommendation
		if err := json.Unmarshal(raw, &rec); err != nil {
			m.log.Warn().Str("user_id", userID).Err(err).Msg("Skipping malformed recommendation record")
			return nil
		}
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Recommendations: list records: %w", err)
	}
	return recs, nil
}
