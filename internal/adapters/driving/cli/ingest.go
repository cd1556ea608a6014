package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driving/watch"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
)

var (
	ingestReset bool
	ingestWatch bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Index guidance documents",
	Long: `Extracts text from PDF, Markdown and plain text files, splits it into
chunks, embeds them and adds them to the index.

Directories are walked recursively. Use --reset to rebuild the index from
scratch and --watch to rebuild it whenever the files change.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: needs(needIngest),
	RunE:        runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "discard the existing index first")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest when files change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	report, err := ingestService.Ingest(cmd.Context(), driving.IngestRequest{Paths: args, Reset: ingestReset})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printIngestReport(cmd, report)

	if !ingestWatch {
		return nil
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	w := watch.New(ingestService, args)
	defer w.Close() //nolint:errcheck

	return w.Run(cmd.Context(), func(report *domain.IngestReport, err error) {
		if err != nil {
			cmd.PrintErrf("Re-ingest failed: %v\n", err)
			return
		}
		printIngestReport(cmd, report)
	})
}

func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) {
	if report == nil {
		return
	}
	cmd.Printf("Indexed %d chunks from %d files (%d skipped). Index size: %d\n",
		report.ChunksAdded, report.FilesSeen-report.FilesSkipped, report.FilesSkipped, report.IndexSize)

	if len(report.Skipped) == 0 {
		return
	}
	paths := make([]string, 0, len(report.Skipped))
	for p := range report.Skipped {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		cmd.Printf("  skipped %s: %s\n", p, report.Skipped[p])
	}
}
