package domain

import "encoding/json"

// Decision labels produced by the response parser and fact reconciliation.
const (
	DecisionEligible             = "Eligible"
	DecisionNotEligible          = "Not Eligible"
	DecisionInsufficient         = "Insufficient information"
	DecisionEligibleOnFactsGiven = "Eligible (based on information provided)"
)

// DefaultExplanation is used when no explanation could be recovered from text output.
const DefaultExplanation = "Please see the documents for detailed analysis."

// DecisionRecord is the structured reading of one model answer.
// An empty Decision means no decision could be identified; Raw then holds the text for display.
type DecisionRecord struct {
	// Decision is one of the Decision* labels, or a model-supplied label from JSON output.
	Decision string

	// Explanation is the free-text reason.
	Explanation string

	// Citations are the context snippet numbers the answer refers to.
	Citations []int

	// AdditionalFacts lists suggested next actions or missing information.
	AdditionalFacts []string

	// Confidence is the model's self-reported confidence in [0,1], nil when absent.
	Confidence *float64

	// ImmigrationPathway is an optional pathway name from JSON output.
	ImmigrationPathway string

	// Raw is the model text the record was parsed from.
	Raw string

	// Error holds the message of an error-marked generation result.
	Error string

	// Structured is true when the record came from a JSON object.
	Structured bool
}

// HasDecision reports whether a decision label was identified.
func (r DecisionRecord) HasDecision() bool {
	return r.Decision != ""
}

// decisionJSON is the wire form of DecisionRecord.
type decisionJSON struct {
	Decision           *string  `json:"decision"`
	Explanation        string   `json:"explanation,omitempty"`
	Citations          []int    `json:"citations"`
	AdditionalFacts    []string `json:"additional_facts_required"`
	Confidence         *float64 `json:"confidence"`
	ImmigrationPathway string   `json:"immigration_pathway,omitempty"`
	Raw                string   `json:"raw,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// MarshalJSON renders an empty decision as null and nil lists as empty arrays.
func (r DecisionRecord) MarshalJSON() ([]byte, error) {
	out := decisionJSON{
		Explanation:        r.Explanation,
		Citations:          r.Citations,
		AdditionalFacts:    r.AdditionalFacts,
		Confidence:         r.Confidence,
		ImmigrationPathway: r.ImmigrationPathway,
		Error:              r.Error,
	}
	if r.Decision != "" {
		d := r.Decision
		out.Decision = &d
	}
	if !r.Structured {
		out.Raw = r.Raw
	}
	if out.Citations == nil {
		out.Citations = []int{}
	}
	if out.AdditionalFacts == nil {
		out.AdditionalFacts = []string{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the wire form written by MarshalJSON.
func (r *DecisionRecord) UnmarshalJSON(data []byte) error {
	var in decisionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = DecisionRecord{
		Explanation:        in.Explanation,
		Citations:          in.Citations,
		AdditionalFacts:    in.AdditionalFacts,
		Confidence:         in.Confidence,
		ImmigrationPathway: in.ImmigrationPathway,
		Raw:                in.Raw,
		Error:              in.Error,
		Structured:         in.Raw == "",
	}
	if in.Decision != nil {
		r.Decision = *in.Decision
	}
	return nil
}
