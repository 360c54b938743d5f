package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snfsearch/internal/cli/config"
	"github.com/leapstack-labs/snfsearch/internal/search"
	"github.com/leapstack-labs/snfsearch/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve facility search over HTTP",
		Long: `Start an HTTP server answering facility searches.

Endpoints:
  GET /facilities?zip=&limit=&min_rating=&max_deficiencies=&max_penalties=
  GET /facilities/{zip}
  GET /healthz

With --watch, the CSV files are reloaded when they change.`,
		Example: `  # Serve on the default port
  snfsearch serve

  # Serve on port 3000 and reload when the data files change
  snfsearch serve --port 3000 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().Bool("watch", false, "Reload data when the CSV files change")
	cmd.Flags().String("source", "", "Data source: csv or sql")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := config.GetLogger(ctx)

	engine, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	watch := cfg.Serve.Watch
	if watch && cfg.Source != config.SourceCSV {
		logger.Warn("--watch only applies to the csv source, disabling")
		watch = false
	}

	srv := server.NewServer(server.Config{
		Engine:     engine,
		Port:       cfg.Serve.Port,
		Logger:     logger,
		Watch:      watch,
		WatchFiles: cfg.Files.Paths(),
		Reload: func(ctx context.Context) (*search.Engine, error) {
			return newEngine(ctx, cfg, logger)
		},
	})
	return srv.Serve(ctx)
}
