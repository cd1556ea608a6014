// Package cli provides the swiftvisa command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driving/api"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driving"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Options carries the global flags a factory needs.
type Options struct {
	// ConfigDir overrides the configuration directory.
	ConfigDir string

	// NoLog keeps audit records in memory instead of writing them.
	NoLog bool
}

// Factory builds the services a command needs.
// Settings is always called first; the other methods use the settings it loaded.
type Factory interface {
	Settings(opts Options) (driving.SettingsService, error)
	Query(ctx context.Context) (driving.QueryService, error)
	History(ctx context.Context) (driving.HistoryService, error)
	Ingest(ctx context.Context) (driving.IngestService, error)
	Health() api.HealthSource
	Close()
}

// Service names used in the needs annotation.
const (
	annotationNeeds = "swiftvisa/needs"
	needSettings    = "settings"
	needQuery       = "query"
	needHistory     = "history"
	needIngest      = "ingest"
)

var version = "dev"

var (
	verbose   bool
	configDir string
	noColor   bool
	noLog     bool
)

// Services available to commands. PersistentPreRunE fills them from the factory.
var (
	factory         Factory
	settingsService driving.SettingsService
	queryService    driving.QueryService
	historyService  driving.HistoryService
	ingestService   driving.IngestService
	healthSource    api.HealthSource
)

var rootCmd = &cobra.Command{
	Use:   "swiftvisa",
	Short: "Visa eligibility answers grounded in official guidance",
	Long: `SwiftVisa answers visa eligibility questions using retrieval over an
indexed corpus of official guidance and a generative model.

Index your guidance documents with 'swiftvisa ingest', then ask questions
with 'swiftvisa ask', serve the HTTP API with 'swiftvisa serve', or expose
the pipeline to AI assistants with 'swiftvisa mcp serve'.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.swiftvisa)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noLog, "no-log", false, "do not write decisions to the audit log")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetFactory sets the factory used to build services on demand.
func SetFactory(f Factory) {
	factory = f
}

// Execute runs the root command until it completes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if factory != nil {
			factory.Close()
		}
	}()

	// cobra's Print helpers default to stderr.
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	color.NoColor = noColor || !term.IsTerminal(int(os.Stdout.Fd()))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Reading .env: %v", err)
	}

	return prepareServices(cmd)
}

// prepareServices builds the services named by the command's needs annotation.
// Commands without the annotation, or runs without a factory, are left untouched.
func prepareServices(cmd *cobra.Command) error {
	needs := cmd.Annotations[annotationNeeds]
	if factory == nil || needs == "" {
		return nil
	}

	svc, err := factory.Settings(Options{ConfigDir: configDir, NoLog: noLog})
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	settingsService = svc

	ctx := cmd.Context()
	for _, need := range strings.Split(needs, ",") {
		switch need {
		case needSettings:
		case needQuery:
			q, err := factory.Query(ctx)
			if err != nil {
				return withGuidance(err)
			}
			queryService = q
			healthSource = factory.Health()
		case needHistory:
			h, err := factory.History(ctx)
			if err != nil {
				return fmt.Errorf("opening audit log: %w", err)
			}
			historyService = h
		case needIngest:
			i, err := factory.Ingest(ctx)
			if err != nil {
				return withGuidance(err)
			}
			ingestService = i
		default:
			return fmt.Errorf("unknown service %q", need)
		}
	}
	return nil
}

// withGuidance appends a next step to errors a user can fix.
func withGuidance(err error) error {
	switch {
	case errors.Is(err, domain.ErrIndexMissing):
		return fmt.Errorf("%w\nRun 'swiftvisa ingest <paths>' to build the index", err)
	case errors.Is(err, domain.ErrAPIKeyMissing):
		return fmt.Errorf("%w\nSet GEMINI_API_KEY in .env or run 'swiftvisa settings set llm.api_key <key>'", err)
	case errors.Is(err, domain.ErrDimensionMismatch):
		return fmt.Errorf("%w\nRe-run 'swiftvisa ingest --reset <paths>' after changing the embedding model", err)
	default:
		return err
	}
}

// needs returns a command annotation declaring the services it uses.
func needs(services ...string) map[string]string {
	return map[string]string{annotationNeeds: strings.Join(services, ",")}
}
