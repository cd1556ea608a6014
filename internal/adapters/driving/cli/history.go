package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:         "history",
	Short:       "Show recent decisions",
	Long:        `Lists past answers from the audit log, newest first.`,
	Args:        cobra.NoArgs,
	Annotations: needs(needHistory),
	RunE:        runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of records")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	if historyLimit <= 0 {
		return fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}

	records, err := historyService.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if historyJSON {
		if records == nil {
			records = []domain.AuditRecord{}
		}
		return writeJSON(cmd, records)
	}

	if len(records) == 0 {
		cmd.Println("No decisions recorded yet.")
		return nil
	}

	for i := range records {
		r := &records[i]
		decision := r.Decision
		if decision == "" {
			decision = "(no decision)"
		}
		cmd.Printf("%s  %s  %s\n",
			colorFaint.Sprint(r.Timestamp.Format("2006-01-02 15:04:05")),
			decisionColor(r.Eligibility).Sprint(decision),
			colorFaint.Sprintf("(%.2f)", r.Confidence))
		cmd.Printf("  %s\n", r.Query)
	}
	return nil
}
