package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snfsearch/internal/cli/config"
	"github.com/leapstack-labs/snfsearch/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run_id]",
		Short: "List recent load runs",
		Long: `List load runs recorded in the state database, most recent first.
With a run id, show only that run.`,
		Example: `  snfsearch runs
  snfsearch runs --limit 5 -o json
  snfsearch runs 3f2b8c1e-52d4-4a3e-9d1f-0c5e7a9b2d11 -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ledger, err := openLedger(ctx, cfg, config.GetLogger(ctx))
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			if len(args) == 1 {
				run, err := ledger.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				return getRenderer(cmd, cfg).Runs([]*state.Run{run})
			}

			runs, err := ledger.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			return getRenderer(cmd, cfg).Runs(runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}
