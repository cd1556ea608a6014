package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

var (
	colorHeading = color.New(color.Bold)
	colorGood    = color.New(color.FgGreen, color.Bold)
	colorBad     = color.New(color.FgRed, color.Bold)
	colorMaybe   = color.New(color.FgYellow, color.Bold)
	colorFaint   = color.New(color.Faint)
)

// decisionColor picks a color for an eligibility flag.
func decisionColor(e domain.Eligibility) *color.Color {
	switch e {
	case domain.EligibilityEligible:
		return colorGood
	case domain.EligibilityNotEligible:
		return colorBad
	default:
		return colorMaybe
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// printDecision renders a decision-mode answer.
func printDecision(cmd *cobra.Command, answer *domain.Answer) {
	parsed := answer.Parsed

	decision := parsed.Decision
	if decision == "" {
		decision = "(no decision)"
	}
	cmd.Printf("%s %s\n", colorHeading.Sprint("Decision:"), decisionColor(answer.YesNo).Sprint(decision))
	cmd.Printf("%s %s\n", colorHeading.Sprint("Eligible:"), answer.YesNo.Description())
	cmd.Printf("%s %.2f\n", colorHeading.Sprint("Confidence:"), answer.FinalConfidence)

	if parsed.ImmigrationPathway != "" {
		cmd.Printf("%s %s\n", colorHeading.Sprint("Pathway:"), parsed.ImmigrationPathway)
	}
	if parsed.Explanation != "" {
		cmd.Println()
		cmd.Println(colorHeading.Sprint("Explanation"))
		cmd.Printf("  %s\n", parsed.Explanation)
	}
	if len(parsed.Citations) > 0 {
		refs := make([]string, len(parsed.Citations))
		for i, c := range parsed.Citations {
			refs[i] = fmt.Sprintf("[%d]", c)
		}
		cmd.Printf("%s %s\n", colorHeading.Sprint("Citations:"), strings.Join(refs, " "))
	}
	if len(parsed.AdditionalFacts) > 0 {
		cmd.Println()
		cmd.Println(colorHeading.Sprint("Additional facts required"))
		for _, f := range parsed.AdditionalFacts {
			cmd.Printf("  - %s\n", f)
		}
	}
	if parsed.Error != "" {
		cmd.Println()
		cmd.Printf("%s %s\n", colorBad.Sprint("Model error:"), parsed.Error)
	}

	printSources(cmd, answer.Retrieved)
	printDegraded(cmd, answer)
}

// printInformational renders an informational-mode answer.
func printInformational(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(strings.TrimSpace(answer.RawLLM))
	printSources(cmd, answer.Retrieved)
	printDegraded(cmd, answer)
}

func printSources(cmd *cobra.Command, retrieved []domain.RetrievedChunk) {
	if len(retrieved) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(colorHeading.Sprint("Sources"))
	for i, r := range retrieved {
		source := r.Meta.Source
		if source == "" {
			source = "unknown"
		}
		cmd.Printf("  [%d] %s %s\n", i+1, source,
			colorFaint.Sprintf("(chunk %s, score %.2f)", r.UID, r.Score))
	}
}

func printDegraded(cmd *cobra.Command, answer *domain.Answer) {
	if answer.Degraded {
		cmd.Println()
		cmd.Println(colorMaybe.Sprint("Note: embeddings were unavailable, results use keyword matching only."))
	}
}
