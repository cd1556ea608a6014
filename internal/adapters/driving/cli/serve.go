package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driving/api"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the query pipeline over a JSON HTTP API.

Endpoints:
  POST /api/v1/query     {query, top_k, mode, user_profile} -> answer
  GET  /api/v1/history   ?limit=n -> recent audit records
  GET  /health           index size and component failure counts`,
	Args:        cobra.NoArgs,
	Annotations: needs(needQuery, needHistory),
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	addr, rateLimit, err := serverSettings()
	if err != nil {
		return err
	}

	router := api.NewRouter(api.NewHandler(queryService, historyService, healthSource), rateLimit)

	cmd.Printf("SwiftVisa API listening on %s (index size %d)\n", addr, queryService.IndexSize())
	return api.Serve(cmd.Context(), addr, router)
}

// serverSettings resolves the listen address and rate limit from flags and settings.
func serverSettings() (string, float64, error) {
	defaults := domain.DefaultAppSettings().Server
	addr, rateLimit := defaults.Addr, defaults.RateLimit

	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return "", 0, fmt.Errorf("failed to get settings: %w", err)
		}
		addr, rateLimit = settings.Server.Addr, settings.Server.RateLimit
	}
	if serveAddr != "" {
		addr = serveAddr
	}
	return addr, rateLimit, nil
}
