package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// defaultTextConfidence is used when prose output states no confidence.
const defaultTextConfidence = 0.5

// maxExplanationLines bounds the explanation recovered from prose output.
const maxExplanationLines = 4

var (
	decisionPattern   = regexp.MustCompile(`(?i)(?:decision|assessment)\s*:?\s*([^.\n,]*(?:eligible|need more|insufficient)[^.\n,]*)`)
	confidencePattern = regexp.MustCompile(`(?i)confidence\s*:?\s*([0-9]+(?:\.[0-9]+)?)`)
	citationPattern   = regexp.MustCompile(`\[(\d+)\]`)
	digitsPattern     = regexp.MustCompile(`\d+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// JSON field names accepted for each record field, in preference order.
var (
	decisionFields    = []string{"decision", "eligibility_status", "status", "eligibility"}
	explanationFields = []string{"explanation", "reason", "reasoning"}
	confidenceFields  = []string{"confidence", "confidence_score"}
	citationFields    = []string{"citations", "sources"}
	factsFields       = []string{"additional_facts_required", "missing_information", "next_steps", "suggested_actions"}
	pathwayFields     = []string{"immigration_pathway"}
)

// labelMarkers identify lines that restate fields rather than explain them.
var labelMarkers = []string{
	"decision:", "assessment:", "confidence:", "reason:", "document numbers", "documents used:", "brief reason",
}

// ParseDecision extracts a decision record from model output.
//
// JSON objects (optionally inside code fences) are mapped field by field. Anything
// else goes through labelled-text heuristics where the last stated decision and
// confidence win. When no decision is found the record's Decision stays empty and
// Raw keeps the text.
func ParseDecision(raw string) domain.DecisionRecord {
	rec := domain.DecisionRecord{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return rec
	}
	if IsErrorText(trimmed) {
		rec.Error = strings.TrimSpace(strings.TrimPrefix(trimmed, ErrorMarker))
	}

	clean := stripFences(trimmed)
	if parsed, ok := parseJSONDecision(clean); ok {
		parsed.Raw = raw
		parsed.Error = rec.Error
		return parsed
	}
	return parseTextDecision(clean, rec)
}

// stripFences removes a surrounding markdown code fence and its language tag.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.Trim(text, "` \n\r\t")
	if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
		text = text[4:]
	}
	return strings.TrimSpace(text)
}

// parseJSONDecision maps the outermost JSON object in text. It only succeeds when
// the object carries a non-null decision.
func parseJSONDecision(text string) (domain.DecisionRecord, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return domain.DecisionRecord{}, false
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return domain.DecisionRecord{}, false
	}
	obj := gjson.Parse(candidate)
	if !obj.IsObject() {
		return domain.DecisionRecord{}, false
	}

	decision := firstString(obj, decisionFields)
	if decision == "" {
		return domain.DecisionRecord{}, false
	}

	rec := domain.DecisionRecord{
		Decision:           canonicalDecision(decision, decision),
		Explanation:        firstString(obj, explanationFields),
		Citations:          asCitations(first(obj, citationFields)),
		AdditionalFacts:    asStringList(first(obj, factsFields)),
		Confidence:         asConfidence(first(obj, confidenceFields)),
		ImmigrationPathway: firstString(obj, pathwayFields),
		Structured:         true,
	}
	return rec, true
}

// parseTextDecision applies the labelled-text heuristics.
func parseTextDecision(text string, rec domain.DecisionRecord) domain.DecisionRecord {
	if matches := decisionPattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		last := strings.TrimSpace(matches[len(matches)-1][1])
		rec.Decision = canonicalDecision(last, "")
	}

	conf := defaultTextConfidence
	if matches := confidencePattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		if v, err := strconv.ParseFloat(matches[len(matches)-1][1], 64); err == nil {
			conf = normaliseConfidence(v)
		}
	}
	rec.Confidence = &conf

	rec.Citations = textCitations(text)
	rec.Explanation = textExplanation(text)
	return rec
}

// canonicalDecision maps a stated decision onto the known labels.
// Unrecognised statements return fallback.
func canonicalDecision(stated, fallback string) string {
	lower := strings.ToLower(stated)
	head := lower
	if len(head) > 20 {
		head = head[:20]
	}
	switch {
	case strings.Contains(lower, "not eligible"):
		return domain.DecisionNotEligible
	case strings.Contains(lower, "based on information provided"):
		return domain.DecisionEligibleOnFactsGiven
	case strings.Contains(lower, "partially eligible"):
		return domain.DecisionInsufficient
	case strings.Contains(lower, "eligible") && !strings.Contains(head, "not"):
		return domain.DecisionEligible
	case strings.Contains(lower, "need more"), strings.Contains(lower, "insufficient"):
		return domain.DecisionInsufficient
	default:
		return strings.TrimSpace(fallback)
	}
}

// textCitations returns the unique [n] markers in ascending order.
func textCitations(text string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// textExplanation joins the first substantive lines and trims to a sentence boundary.
func textExplanation(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if len(lines) == maxExplanationLines {
			break
		}
		trimmed := strings.TrimSpace(line)
		if isLabelLine(trimmed) || len(trimmed) <= 10 || strings.HasPrefix(trimmed, "[") {
			continue
		}
		lines = append(lines, trimmed)
	}

	explanation := strings.TrimSpace(whitespacePattern.ReplaceAllString(strings.Join(lines, " "), " "))
	if explanation == "" {
		return domain.DefaultExplanation
	}
	if !strings.HasSuffix(explanation, ".") {
		if i := strings.LastIndex(explanation, "."); i > 0 {
			explanation = explanation[:i+1]
		} else {
			explanation += "."
		}
	}
	return explanation
}

func isLabelLine(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range labelMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// normaliseConfidence treats values above 1 as percentages and clamps to [0,1].
func normaliseConfidence(v float64) float64 {
	if v > 1 {
		v /= 100
	}
	return clamp01(v)
}

// isNullish reports JSON null and the textual null equivalents.
func isNullish(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return true
	}
	if v.Type != gjson.String {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v.Str)) {
	case "", "null", "not provided", "n/a", "none":
		return true
	default:
		return false
	}
}

// first returns the first non-null field among names.
func first(obj gjson.Result, names []string) gjson.Result {
	for _, name := range names {
		if v := obj.Get(gjson.Escape(name)); !isNullish(v) {
			return v
		}
	}
	return gjson.Result{}
}

func firstString(obj gjson.Result, names []string) string {
	v := first(obj, names)
	if isNullish(v) {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// asConfidence coerces a number or numeric string to a confidence in [0,1].
func asConfidence(v gjson.Result) *float64 {
	if isNullish(v) {
		return nil
	}
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v.Str), "%"), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	f = normaliseConfidence(f)
	return &f
}

// asStringList wraps scalars into a one-element list and drops null entries.
func asStringList(v gjson.Result) []string {
	if isNullish(v) {
		return nil
	}
	if !v.IsArray() {
		return []string{strings.TrimSpace(v.String())}
	}
	var out []string
	for _, item := range v.Array() {
		if isNullish(item) {
			continue
		}
		out = append(out, strings.TrimSpace(item.String()))
	}
	return out
}

// asCitations accepts numbers, "[n]" strings or a scalar and returns the numbers found.
func asCitations(v gjson.Result) []int {
	var out []int
	for _, item := range asStringList(v) {
		for _, digits := range digitsPattern.FindAllString(item, -1) {
			if n, err := strconv.Atoi(digits); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}
