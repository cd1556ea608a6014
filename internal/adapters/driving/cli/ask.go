package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

var (
	askTopK         int
	askMode         string
	askJSON         bool
	askAge          string
	askIncome       string
	askFamilyStatus string
	askNationality  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a visa eligibility question",
	Long: `Retrieves the most relevant guidance passages and asks the model for a
decision grounded in them.

Decision mode (the default) returns a verdict, explanation, citations and a
blended confidence. Informational mode answers general questions without a
verdict.

Profile flags add facts about the applicant to the prompt.`,
	Example: `  swiftvisa ask "Can I apply for a Skilled Worker visa?" --income "£29,000"
  swiftvisa ask "What documents do I need for a student visa?" --mode informational`,
	Args:        cobra.ExactArgs(1),
	Annotations: needs(needQuery),
	RunE:        runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of context passages (0 = configured default)")
	askCmd.Flags().StringVarP(&askMode, "mode", "m", string(domain.PromptModeDecision), "prompt mode: decision or informational")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().StringVar(&askAge, "age", "", "applicant age")
	askCmd.Flags().StringVar(&askIncome, "income", "", "applicant income, e.g. £29,000")
	askCmd.Flags().StringVar(&askFamilyStatus, "family-status", "", "applicant family status")
	askCmd.Flags().StringVar(&askNationality, "nationality", "", "applicant nationality")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	mode := domain.PromptMode(askMode)
	if !mode.IsValid() {
		return fmt.Errorf("%w: mode must be %q or %q", domain.ErrInvalidInput,
			domain.PromptModeDecision, domain.PromptModeInformational)
	}

	req := domain.QueryRequest{
		Query:   args[0],
		TopK:    askTopK,
		Mode:    mode,
		Profile: askProfile(),
	}

	answer, err := queryService.Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		return writeJSON(cmd, answer)
	}

	if mode == domain.PromptModeInformational {
		printInformational(cmd, answer)
	} else {
		printDecision(cmd, answer)
	}
	return nil
}

// askProfile builds a profile from the flags, or nil when none were given.
func askProfile() *domain.UserProfile {
	p := &domain.UserProfile{
		Age:          askAge,
		Income:       askIncome,
		FamilyStatus: askFamilyStatus,
		Nationality:  askNationality,
	}
	if !p.HasFacts() {
		return nil
	}
	return p
}
