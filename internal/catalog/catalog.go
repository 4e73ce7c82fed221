// Package catalog holds the education content and partner offers the
// recommendation matcher selects from. The built-in default catalog covers
// every persona; deployments can override it with a JSON document in GCS.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// Trigger signal names recognized by the recommendation matcher. Content
// items reference these in TriggerSignals.
const (
	TriggerCreditUtilizationHigh     = "credit_utilization_high"
	TriggerMinimumPaymentOnly        = "minimum_payment_only"
	TriggerInterestCharged           = "interest_charged"
	TriggerIrregularFrequency        = "irregular_frequency"
	TriggerMedianPayGapHigh          = "median_pay_gap_high"
	TriggerCashFlowBufferLow         = "cash_flow_buffer_low"
	TriggerSubscriptionCountHigh     = "subscription_count_high"
	TriggerMonthlyRecurringHigh      = "monthly_recurring_high"
	TriggerSavingsGrowthRatePositive = "savings_growth_rate_positive"
	TriggerEmergencyFundAdequate     = "emergency_fund_adequate"
	TriggerSavingsBalancePositive    = "savings_balance_positive"
)

// Criterion is one min/max/equality check against a named signal field.
// Nil members are not checked.
type Criterion struct {
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Equals *bool    `json:"equals,omitempty"`
}

// EducationContent is one persona-tagged article or guide. Items with no
// trigger signals match unconditionally for their persona.
type EducationContent struct {
	ContentID         string   `json:"content_id"`
	Persona           string   `json:"persona"`
	Title             string   `json:"title"`
	Summary           string   `json:"summary"`
	RationaleTemplate string   `json:"rationale_template"`
	TriggerSignals    []string `json:"trigger_signals,omitempty"`
}

// PartnerOffer is a third-party offer gated by eligibility criteria.
// An empty criteria map means the offer is available to everyone.
type PartnerOffer struct {
	OfferID             string               `json:"offer_id"`
	Title               string               `json:"title"`
	Partner             string               `json:"partner"`
	Summary             string               `json:"summary"`
	RationaleTemplate   string               `json:"rationale_template"`
	EligibilityCriteria map[string]Criterion `json:"eligibility_criteria,omitempty"`
}

// Catalog is the full content set the matcher draws from.
type Catalog struct {
	EducationContent []EducationContent `json:"education_content"`
	PartnerOffers    []PartnerOffer     `json:"partner_offers"`
}

// ContentByPersona returns the education items tagged with the given persona,
// preserving catalog order.
func (c *Catalog) ContentByPersona(persona string) []EducationContent {
	var out []EducationContent
	for _, item := range c.EducationContent {
		if item.Persona == persona {
			out = append(out, item)
		}
	}
	return out
}

// LoadFromGCS fetches a catalog override document from a GCS object.
// It assumes Application Default Credentials are configured.
func LoadFromGCS(ctx context.Context, bucketName, objectName string) (*Catalog, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadFromGCS: create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadFromGCS: open object %s/%s: %w", bucketName, objectName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("LoadFromGCS: read object: %w", err)
	}

	return Parse(data)
}

// Parse decodes a catalog JSON document and checks it is usable.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("Parse: decode catalog: %w", err)
	}
	if len(c.EducationContent) == 0 {
		return nil, fmt.Errorf("Parse: catalog has no education content")
	}
	return &c, nil
}
