package models

import (
	"slices"
	"strings"
	"testing"

	"github.com/leapstack-labs/snfsearch/internal/dag"
	"github.com/leapstack-labs/snfsearch/pkg/orm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate())
}

func TestTables(t *testing.T) {
	tables, err := Tables()
	require.NoError(t, err)

	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name()
	}
	assert.Equal(t, []string{ZipCodeTable, ProviderTable, DeficiencyTable, PenaltyTable}, names)

	assert.Equal(t, []string{"zip_code", "lat", "lng"}, tables[0].Columns())
	assert.Equal(t, []string{"num", "name", "street", "city", "state", "zip", "phone", "overall_rating"}, tables[1].Columns())
	assert.Equal(t, []string{"provider_num", "survey_date", "tag", "survey_type", "desc", "defpref"}, tables[2].Columns())
	assert.Equal(t, []string{
		"provider_num", "penalty_date", "file_date", "type",
		"fine_amount",
		"payment_denial_start_date", "payment_denial_days",
	}, tables[3].Columns())
}

func TestTables_Statements(t *testing.T) {
	tables, err := Tables()
	require.NoError(t, err)

	provider := tables[1]
	assert.True(t, strings.HasPrefix(provider.CreateStatement(), "CREATE TABLE IF NOT EXISTS provider("))
	assert.Contains(t, provider.CreateStatement(), `"zip" TEXT REFERENCES zipcode_mapping(zip_code)`)
	assert.Equal(t,
		[]string{`CREATE INDEX IF NOT EXISTS provider_overall_rating ON provider("overall_rating")`},
		provider.IndexStatements())

	penalty := tables[3]
	assert.Contains(t, penalty.CreateStatement(), `"fine_amount" REAL NULL`)
	assert.Contains(t, penalty.CreateStatement(), `"payment_denial_days" INTEGER NULL`)
}

func TestLoadOrder(t *testing.T) {
	tables, err := Tables()
	require.NoError(t, err)

	reversed := slices.Clone(tables)
	slices.Reverse(reversed)
	sorted, err := LoadOrder(reversed)
	require.NoError(t, err)

	names := make([]string, len(sorted))
	for i, tbl := range sorted {
		names[i] = tbl.Name()
	}
	assert.Equal(t, []string{ZipCodeTable, ProviderTable, PenaltyTable, DeficiencyTable}, names)
}

func TestLoadOrder_Errors(t *testing.T) {
	orphan, err := orm.NewTable("orphan", []*orm.Model{
		orm.NewModel("orphan", &orm.Field{Name: "p", SQLType: "TEXT REFERENCES missing(id)"}),
	})
	require.NoError(t, err)
	_, err = LoadOrder([]*orm.Table{orphan})
	assert.ErrorContains(t, err, `table orphan: referenced table "missing" does not exist`)

	a, err := orm.NewTable("a", []*orm.Model{orm.NewModel("a", &orm.Field{Name: "b_id", SQLType: "TEXT REFERENCES b(id)"})})
	require.NoError(t, err)
	b, err := orm.NewTable("b", []*orm.Model{orm.NewModel("b", &orm.Field{Name: "a_id", SQLType: "TEXT REFERENCES a(id)"})})
	require.NoError(t, err)
	_, err = LoadOrder([]*orm.Table{a, b})
	var cycleErr *dag.CycleError
	assert.ErrorAs(t, err, &cycleErr)
}
