package services

import (
	"strings"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// reconciledConfidence replaces the declared confidence when every requested
// fact turns out to be already supplied.
const reconciledConfidence = 0.65

var (
	reconcileFinancialTerms   = []string{"salary", "income", "40k", "50k", "60k"}
	reconcileSponsorshipTerms = []string{"sponsor", "sponsorship", "company", "employer"}

	financialFactMarkers   = []string{"salary", "income", "financial"}
	sponsorshipFactMarkers = []string{"sponsor", "employer", "employment"}
)

// ReconcileFacts drops requests for facts the user already gave.
//
// It only acts on "insufficient" decisions where the query or profile carries
// financial or sponsorship facts. If no request survives, the decision becomes
// DecisionEligibleOnFactsGiven.
func ReconcileFacts(query string, profile *domain.UserProfile, rec domain.DecisionRecord) domain.DecisionRecord {
	if !strings.Contains(strings.ToLower(rec.Decision), "insufficient") {
		return rec
	}

	lower := strings.ToLower(query)
	financial := containsAny(lower, reconcileFinancialTerms) || profile.HasIncome()
	sponsorship := containsAny(lower, reconcileSponsorshipTerms)
	if !financial && !sponsorship && !profile.HasFacts() {
		return rec
	}

	remaining := make([]string, 0, len(rec.AdditionalFacts))
	for _, fact := range rec.AdditionalFacts {
		f := strings.ToLower(fact)
		if financial && containsAny(f, financialFactMarkers) {
			continue
		}
		if sponsorship && containsAny(f, sponsorshipFactMarkers) {
			continue
		}
		remaining = append(remaining, fact)
	}
	rec.AdditionalFacts = remaining

	if len(remaining) == 0 {
		logger.Debug("All requested facts already supplied, upgrading decision")
		conf := reconciledConfidence
		rec.Decision = domain.DecisionEligibleOnFactsGiven
		rec.Confidence = &conf
	}
	return rec
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
