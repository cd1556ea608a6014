package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

var batchOut string

// batchQuery is one entry of a batch input file.
type batchQuery struct {
	Query   string              `json:"query"`
	Profile *domain.UserProfile `json:"user_profile,omitempty"`
}

// batchResult pairs a query with its answer, or with an error object.
type batchResult struct {
	Query    string              `json:"query"`
	Profile  *domain.UserProfile `json:"user_profile,omitempty"`
	Response any                 `json:"response"`
}

type batchError struct {
	Error string `json:"error"`
}

var batchCmd = &cobra.Command{
	Use:   "batch [queries.json]",
	Short: "Answer a file of queries",
	Long: `Runs every query in a JSON file and writes the answers to a results file.

The input is a list of objects with a "query" and an optional
"user_profile". A query that fails is recorded with an "error" response
and the batch continues.`,
	Args:        cobra.ExactArgs(1),
	Annotations: needs(needQuery),
	RunE:        runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "query_results.json", "results file")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}

	var queries []batchQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return fmt.Errorf("parsing queries: %w", err)
	}

	cmd.Printf("Processing %d queries...\n", len(queries))

	results := make([]batchResult, 0, len(queries))
	failed := 0
	for i, q := range queries {
		cmd.Printf("[%d/%d] %s\n", i+1, len(queries), q.Query)

		result := batchResult{Query: q.Query, Profile: q.Profile}
		answer, err := queryService.Run(cmd.Context(), domain.QueryRequest{Query: q.Query, Profile: q.Profile})
		if err != nil {
			failed++
			cmd.PrintErrf("  error: %v\n", err)
			result.Response = batchError{Error: err.Error()}
		} else {
			result.Response = answer
		}
		results = append(results, result)
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(batchOut, out, 0o600); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	cmd.Printf("Finished %d queries (%d failed). Results saved to %s\n", len(queries), failed, batchOut)
	return nil
}
