// Package commands implements the snfsearch subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snfsearch/internal/cli/config"
	"github.com/leapstack-labs/snfsearch/internal/cli/output"
	"github.com/leapstack-labs/snfsearch/internal/ingest"
	"github.com/leapstack-labs/snfsearch/internal/search"
	"github.com/leapstack-labs/snfsearch/internal/state"
	"github.com/leapstack-labs/snfsearch/internal/store"
)

// getConfig returns the configuration loaded by the root command, loading
// it from the working directory when a command runs on its own.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

func getRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Format(cfg.OutputFormat))
}

// targetLabel identifies a target in logs and the run ledger without
// credentials.
func targetLabel(t *store.Config) string {
	if t.Host != "" {
		return fmt.Sprintf("%s://%s:%d/%s", t.Type, t.Host, t.Port, t.Database)
	}
	return t.Type + ":" + t.Database
}

// openTarget connects to the configured target database.
func openTarget(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Adapter, error) {
	adapter, err := store.NewAdapter(*cfg.Target, logger)
	if err != nil {
		return nil, err
	}
	if err := adapter.Connect(ctx, *cfg.Target); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", targetLabel(cfg.Target), err)
	}
	return adapter, nil
}

// openLedger opens the run ledger, creating its directory if needed.
func openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*state.Ledger, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.Open(ctx, cfg.StatePath, logger)
}

// loadDataset reads the dataset from the configured source.
func loadDataset(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ingest.Dataset, error) {
	loader := ingest.NewLoader(cfg.Unit(), logger)

	if cfg.Source == config.SourceSQL {
		adapter, err := openTarget(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = adapter.Close() }()
		return loader.LoadSQL(ctx, adapter.Database())
	}

	if err := cfg.ValidateFiles(); err != nil {
		return nil, err
	}
	return loader.LoadCSV(ctx, cfg.Files)
}

// newEngine loads the dataset and builds a search engine over it.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*search.Engine, error) {
	ds, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return search.NewEngine(ds, cfg.Weights, logger)
}
