package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snfsearch/internal/cli/config"
	"github.com/leapstack-labs/snfsearch/internal/cli/output"
	"github.com/leapstack-labs/snfsearch/internal/ingest"
	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/internal/state"
	"github.com/leapstack-labs/snfsearch/internal/store"
	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the CSV files into the target database",
		Long: `Create the zipcode_mapping, provider, deficiency and penalty tables in the
target database and bulk-load the four CSV files into them.

All tables are loaded in one transaction: any failure leaves the database
unchanged. Each load is recorded in the run ledger; see 'snfsearch runs'.`,
		Example: `  # Load into the default SQLite database
  snfsearch load --data-dir ./data

  # Load into DuckDB
  snfsearch load --target-type duckdb --database snf.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd)
		},
	}

	cmd.Flags().String("database", "", "Target database path or name")
	cmd.Flags().String("target-type", "", "Target database type (sqlite, duckdb, postgres)")

	return cmd
}

func runLoad(cmd *cobra.Command) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := config.GetLogger(ctx)

	// Schema errors abort before any file or database is opened.
	if err := models.Validate(); err != nil {
		return err
	}
	tables, err := models.Tables()
	if err != nil {
		return err
	}
	if err := cfg.ValidateFiles(); err != nil {
		return err
	}

	ledger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = ledger.Close() }()

	target := targetLabel(cfg.Target)
	run, err := ledger.CreateRun(ctx, target)
	if err != nil {
		return err
	}
	logger.Info("loading data", "run", run.ID, "target", target)

	results, outcome, err := loadTables(ctx, cfg, tables, logger)
	if err != nil {
		if ferr := ledger.FailRun(ctx, run.ID, err); ferr != nil {
			logger.Error("failed to record run failure", "run", run.ID, "error", ferr)
		}
		return err
	}

	counts := make([]state.TableCount, len(results))
	for i, r := range results {
		counts[i] = state.TableCount{Table: r.Table, Rows: r.Rows}
	}
	if err := ledger.CompleteRun(ctx, run.ID, counts, outcome); err != nil {
		return err
	}

	return getRenderer(cmd, cfg).Load(output.LoadSummary{
		RunID:   run.ID,
		Target:  target,
		Tables:  results,
		Outcome: outcome,
	})
}

// loadTables bulk-loads each input file into its table, in table order.
func loadTables(ctx context.Context, cfg *config.Config, tables []*orm.Table, logger *slog.Logger) ([]store.TableResult, state.Outcome, error) {
	var outcome state.Outcome

	paths := make([]string, len(tables))
	for i, t := range tables {
		path, ok := cfg.Files.Path(t.Name())
		if !ok {
			return nil, outcome, fmt.Errorf("no input file for table %s", t.Name())
		}
		paths[i] = path
	}

	adapter, err := openTarget(ctx, cfg, logger)
	if err != nil {
		return nil, outcome, err
	}
	defer func() { _ = adapter.Close() }()

	factory := orm.NewFactory(logger)
	var audit *ingest.PenaltyAudit

	batches := make([]store.Batch, len(tables))
	for i, t := range tables {
		path := paths[i]
		open := func() (store.Source, error) {
			return ingest.OpenCSV(path)
		}
		if t.Name() == models.PenaltyTable {
			open = func() (store.Source, error) {
				src, err := ingest.OpenCSV(path)
				if err != nil {
					return nil, err
				}
				audit = ingest.AuditPenalties(src, factory, logger)
				return audit, nil
			}
		}
		batches[i] = store.Batch{Table: t, Open: open}
	}

	results, err := store.NewLoader(adapter, factory, logger).Load(ctx, batches)
	if err != nil {
		return nil, outcome, err
	}

	outcome.CastFallbacks = factory.TotalCastFallbacks()
	if audit != nil {
		outcome.UnknownPenalties = audit.Unknown()
	}
	return results, outcome, nil
}
