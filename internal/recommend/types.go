// Package recommend matches education content and partner offers to a user's
// persona and signals, generates a rationale per item, gates every item on
// tone validation, and records a decision trace explaining each selection.
package recommend

import "time"

// Recommendation types.
const (
	TypeEducation    = "education"
	TypePartnerOffer = "partner_offer"
)

// SignalUsage records one signal value inspected while selecting an item.
type SignalUsage struct {
	Signal    string  `json:"signal"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// DecisionTrace is the audit record embedded in every recommendation. It is
// never persisted on its own.
type DecisionTrace struct {
	PersonaMatch     string          `json:"persona_match"`
	ContentID        string          `json:"content_id"`
	SignalsUsed      []SignalUsage   `json:"signals_used"`
	GuardrailsPassed map[string]bool `json:"guardrails_passed"`
	Timestamp        string          `json:"timestamp"`
}

// Recommendation is one selected content item or offer. Stored
// recommendations always have ToneValid true; items failing the tone gate
// are dropped before persistence.
type Recommendation struct {
	RecommendationID string        `json:"recommendation_id"`
	UserID           string        `json:"user_id"`
	Type             string        `json:"type"`
	ContentID        string        `json:"content_id"`
	Title            string        `json:"title"`
	Rationale        string        `json:"rationale"`
	ToneValid        bool          `json:"tone_valid"`
	Eligible         bool          `json:"eligible"`
	DecisionTrace    DecisionTrace `json:"decision_trace"`
	ShownAt          time.Time     `json:"shown_at"`
}
