package domain

import "strings"

// Eligibility is the tri-state flag derived from a decision label, plus unknown.
type Eligibility string

// Eligibility values.
const (
	EligibilityNotEligible   Eligibility = "not_eligible"
	EligibilityEligible      Eligibility = "eligible"
	EligibilityNeedsMoreInfo Eligibility = "needs_more_info"
	EligibilityUnknown       Eligibility = "unknown"
)

// ClassifyEligibility maps a decision label to exactly one Eligibility value.
// "not eligible" is checked before "eligible" because the latter is a substring of the former.
// "partially eligible" counts as needing more information.
func ClassifyEligibility(decision string) Eligibility {
	d := strings.ToLower(strings.TrimSpace(decision))
	switch {
	case d == "":
		return EligibilityUnknown
	case strings.Contains(d, "not eligible"), strings.Contains(d, "ineligible"):
		return EligibilityNotEligible
	case strings.Contains(d, "partially eligible"):
		return EligibilityNeedsMoreInfo
	case strings.Contains(d, "eligible"), strings.Contains(d, "yes"):
		return EligibilityEligible
	case strings.Contains(d, "insufficient"), strings.Contains(d, "need more"):
		return EligibilityNeedsMoreInfo
	default:
		return EligibilityUnknown
	}
}

// String returns the string representation.
func (e Eligibility) String() string {
	return string(e)
}

// Description returns a human-readable label for display.
func (e Eligibility) Description() string {
	switch e {
	case EligibilityEligible:
		return "Yes"
	case EligibilityNotEligible:
		return "No"
	case EligibilityNeedsMoreInfo:
		return "Need more information"
	default:
		return "Unknown"
	}
}
