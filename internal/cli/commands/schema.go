package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snfsearch/internal/cli/config"
	"github.com/leapstack-labs/snfsearch/internal/cli/output"
	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/internal/store"
)

// TableSchema holds the generated statements of one table.
type TableSchema struct {
	Table   string   `json:"table" yaml:"table"`
	Columns []string `json:"columns" yaml:"columns"`
	Create  string   `json:"create" yaml:"create"`
	Indexes []string `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	Insert  string   `json:"insert" yaml:"insert"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the generated table DDL and insert statements",
		Long: `Print the CREATE TABLE, CREATE INDEX and INSERT statements 'snfsearch load'
would run, without connecting to a database. Placeholders follow the
configured target type.`,
		Example: `  # Statements for the default SQLite target
  snfsearch schema

  # PostgreSQL placeholders, as JSON
  snfsearch schema --target-type postgres -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd)
		},
	}

	cmd.Flags().String("target-type", "", "Target database type (sqlite, duckdb, postgres)")

	return cmd
}

func runSchema(cmd *cobra.Command) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}

	if err := models.Validate(); err != nil {
		return err
	}
	tables, err := models.Tables()
	if err != nil {
		return err
	}

	adapter, err := store.NewAdapter(*cfg.Target, config.GetLogger(cmd.Context()))
	if err != nil {
		return err
	}
	ph := adapter.Placeholder()

	schemas := make([]TableSchema, len(tables))
	for i, t := range tables {
		schemas[i] = TableSchema{
			Table:   t.Name(),
			Columns: t.Columns(),
			Create:  t.CreateStatement(),
			Indexes: t.IndexStatements(),
			Insert:  t.InsertStatement(ph),
		}
	}

	r := getRenderer(cmd, cfg)
	if r.Format() != output.FormatJSONL && r.Format() != output.FormatTable {
		_, err := output.Structured(r, schemas)
		return err
	}

	for i, s := range schemas {
		if i > 0 {
			r.Println()
		}
		r.Println("-- " + s.Table)
		r.Println(s.Create + ";")
		for _, idx := range s.Indexes {
			r.Println(idx + ";")
		}
		r.Println(s.Insert + ";")
	}
	return nil
}
