package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snfsearch/internal/cli/config"
	"github.com/leapstack-labs/snfsearch/internal/search"
)

// SearchOptions holds options for the search command.
type SearchOptions struct {
	NumFacilities   int
	MinRating       int
	MaxDeficiencies int
	MaxPenalties    int
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search <zip_code>",
		Short: "Rank nursing facilities near a zip code",
		Long: `Score every facility against a zip code and print the best matches.

Each facility is scored as the weighted mean of four percentiles within the
full population: overall rating, deficiency count, penalty count, and the
share of people commuting farther than the distance to the facility.

Facilities are filtered by minimum overall rating and maximum deficiency and
penalty counts before ranking. Data is read from the CSV files by default,
or from a database populated by 'snfsearch load' with --source sql.`,
		Example: `  # Top 20 facilities near 35653
  snfsearch search 35653

  # Five facilities rated 4 or better with no penalties, as a table
  snfsearch search 35653 -n 5 --min-overall-rating 4 --max-penalties 0 -o table

  # Read from the loaded database instead of the CSV files
  snfsearch search 35653 --source sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.NumFacilities, "num-facilities", "n", search.DefaultLimit, "Maximum number of facilities to return")
	cmd.Flags().IntVar(&opts.MinRating, "min-overall-rating", search.DefaultMinRating, "Minimum overall rating (1-5)")
	cmd.Flags().IntVar(&opts.MaxDeficiencies, "max-deficiencies", search.Unlimited, "Maximum number of deficiencies (-1 for unlimited)")
	cmd.Flags().IntVar(&opts.MaxPenalties, "max-penalties", search.Unlimited, "Maximum number of penalties (-1 for unlimited)")
	cmd.Flags().String("source", "", "Data source: csv or sql")

	_ = cmd.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.SourceCSV, config.SourceSQL}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runSearch(cmd *cobra.Command, zip string, opts *SearchOptions) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := config.GetLogger(ctx)

	q := search.Query{
		Zip:             zip,
		Limit:           opts.NumFacilities,
		MinRating:       opts.MinRating,
		MaxDeficiencies: opts.MaxDeficiencies,
		MaxPenalties:    opts.MaxPenalties,
	}
	// Reject bad filters before reading any data.
	if err := q.Validate(); err != nil {
		return err
	}

	engine, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	results, err := engine.Search(q)
	if err != nil {
		return err
	}
	return getRenderer(cmd, cfg).Facilities(zip, results)
}
