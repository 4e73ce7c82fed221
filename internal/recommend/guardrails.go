package recommend

import "strings"

// ToneValidator is the guardrail gate every rationale must pass before its
// recommendation is stored. Validate returns false and the offending phrases
// when the text fails.
type ToneValidator interface {
	Validate(text string) (bool, []string)
}

// judgmentalPhrases fail tone validation. User-facing copy stays neutral and
// educational; these shame or prescribe.
var judgmentalPhrases = []string{
	"overspending",
	"bad habits",
	"poor choices",
	"irresponsible",
	"wasteful",
	"reckless",
	"you should invest",
	"you must",
	"shameful",
	"lazy",
}

// RuleToneValidator is a phrase-blacklist implementation of ToneValidator.
type RuleToneValidator struct {
	blocked []string
}

func NewToneValidator() *RuleToneValidator {
	return &RuleToneValidator{blocked: judgmentalPhrases}
}

// Validate reports whether the text is free of blocked phrases. Matching is
// case-insensitive substring containment.
func (v *RuleToneValidator) Validate(text string) (bool, []string) {
	lowered := strings.ToLower(text)

	var violations []string
	for _, phrase := range v.blocked {
		if strings.Contains(lowered, phrase) {
			violations = append(violations, phrase)
		}
	}
	return len(violations) == 0, violations
}
