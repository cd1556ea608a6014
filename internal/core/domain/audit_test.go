package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncatePrompt(t *testing.T) {
	assert.Equal(t, "short", TruncatePrompt("short", 2000))
	assert.Equal(t, "abc...", TruncatePrompt("abcdef", 3))
	assert.Equal(t, "£££...", TruncatePrompt("££££", 3))

	long := strings.Repeat("x", 2500)
	got := TruncatePrompt(long, MaxAuditPromptChars)
	assert.Len(t, got, MaxAuditPromptChars+3)
}

func TestNewAuditRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	answer := &Answer{
		Parsed:          DecisionRecord{Decision: DecisionNotEligible},
		FinalConfidence: 0.71,
		Retrieved: []RetrievedChunk{
			{UID: "4", Score: 0.9, Meta: ChunkMeta{Source: "spouse.pdf", ChunkID: "4"}},
		},
		YesNo:  EligibilityNotEligible,
		Prompt: strings.Repeat("p", 2100),
	}

	rec := NewAuditRecord("id-1", at, "Am I eligible?", nil, answer)

	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
	assert.Equal(t, 11, rec.Timestamp.Hour())
	assert.Equal(t, DecisionNotEligible, rec.Decision)
	assert.Equal(t, EligibilityNotEligible, rec.Eligibility)
	assert.Equal(t, []AuditHit{{UID: "4", Score: 0.9, Source: "spouse.pdf"}}, rec.Retrieved)
	assert.True(t, strings.HasSuffix(rec.Prompt, "..."))
}

func TestUserProfile_Lines(t *testing.T) {
	var nilProfile *UserProfile
	assert.Nil(t, nilProfile.Lines())
	assert.False(t, nilProfile.HasFacts())

	p := &UserProfile{Age: "31", Nationality: " Indian ", Income: ""}
	assert.Equal(t, []string{"age: 31", "nationality: Indian"}, p.Lines())
	assert.True(t, p.HasFacts())
	assert.False(t, p.HasIncome())
}
