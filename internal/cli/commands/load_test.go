package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/snfsearch/internal/cli/config"
	"github.com/leapstack-labs/snfsearch/internal/ingest"
	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/internal/store"
	_ "github.com/leapstack-labs/snfsearch/internal/store/sqlite"
	"github.com/leapstack-labs/snfsearch/internal/testutil"
	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

func TestLoadTables_PairsFilesByTableName(t *testing.T) {
	dir := t.TempDir()
	testutil.SampleData(t, dir)
	cfg := &config.Config{
		Files:  ingest.DefaultFiles(dir),
		Target: &store.Config{Type: "sqlite", Database: filepath.Join(dir, "snf.db")},
	}

	tables, err := models.Tables()
	require.NoError(t, err)
	byName := make(map[string]*orm.Table, len(tables))
	for _, tbl := range tables {
		byName[tbl.Name()] = tbl
	}
	reordered := []*orm.Table{
		byName[models.ZipCodeTable],
		byName[models.ProviderTable],
		byName[models.PenaltyTable],
		byName[models.DeficiencyTable],
	}

	results, outcome, err := loadTables(context.Background(), cfg, reordered, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []store.TableResult{
		{Table: models.ZipCodeTable, Rows: 3},
		{Table: models.ProviderTable, Rows: 3},
		{Table: models.PenaltyTable, Rows: 3},
		{Table: models.DeficiencyTable, Rows: 7},
	}, results)
	assert.Equal(t, 1, outcome.CastFallbacks)
	assert.Equal(t, 1, outcome.UnknownPenalties)
}

func TestLoadTables_UnknownTable(t *testing.T) {
	tbl, err := orm.NewTable("inspection", []*orm.Model{
		orm.NewModel("inspection", &orm.Field{Name: "id", SQLType: "TEXT"}),
	})
	require.NoError(t, err)

	cfg := &config.Config{Target: &store.Config{Type: "sqlite"}}
	_, _, err = loadTables(context.Background(), cfg, []*orm.Table{tbl}, nil)
	assert.EqualError(t, err, "no input file for table inspection")
}
