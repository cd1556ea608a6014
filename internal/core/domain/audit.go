package domain

import "time"

// MaxAuditPromptChars is the number of prompt characters kept in an audit record.
const MaxAuditPromptChars = 2000

// AuditRecord is one append-only entry in the decision log.
type AuditRecord struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Query       string       `json:"query"`
	Profile     *UserProfile `json:"user_profile,omitempty"`
	Retrieved   []AuditHit   `json:"retrieved"`
	Decision    string       `json:"decision"`
	Eligibility Eligibility  `json:"eligibility"`
	Confidence  float64      `json:"confidence"`
	Prompt      string       `json:"prompt"`
}

// AuditHit summarises one retrieved chunk in the audit log.
type AuditHit struct {
	UID    string  `json:"uid"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// NewAuditRecord builds an audit record for an answer.
// The timestamp is normalised to UTC and the prompt is truncated.
func NewAuditRecord(id string, at time.Time, query string, profile *UserProfile, answer *Answer) AuditRecord {
	hits := make([]AuditHit, len(answer.Retrieved))
	for i, r := range answer.Retrieved {
		hits[i] = AuditHit{UID: r.UID, Score: r.Score, Source: r.Meta.Source}
	}
	return AuditRecord{
		ID:          id,
		Timestamp:   at.UTC(),
		Query:       query,
		Profile:     profile,
		Retrieved:   hits,
		Decision:    answer.Parsed.Decision,
		Eligibility: answer.YesNo,
		Confidence:  answer.FinalConfidence,
		Prompt:      TruncatePrompt(answer.Prompt, MaxAuditPromptChars),
	}
}

// TruncatePrompt keeps the first limit characters of prompt and marks the cut with "...".
func TruncatePrompt(prompt string, limit int) string {
	runes := []rune(prompt)
	if limit < 0 || len(runes) <= limit {
		return prompt
	}
	return string(runes[:limit]) + "..."
}
