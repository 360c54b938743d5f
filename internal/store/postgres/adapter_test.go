package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/snfsearch/internal/store"
	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   store.Config
		expected string
	}{
		{
			name: "basic connection",
			config: store.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "snf",
				User:     "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=snf sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: store.Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "snf",
				User:     "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=snf sslmode=require user=admin",
		},
		{
			name:     "defaults",
			config:   store.Config{Database: "snf"},
			expected: "host=localhost port=5432 dbname=snf sslmode=disable",
		},
		{
			name:     "schema",
			config:   store.Config{Database: "snf", Schema: "cms"},
			expected: "host=localhost port=5432 dbname=snf sslmode=disable search_path=cms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestAdapter_Registered(t *testing.T) {
	a, err := store.NewAdapter(store.Config{Type: "postgres"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", a.DialectName())
	assert.Equal(t, "$3", a.Placeholder()(3))
	assert.Equal(t, "INSERT INTO t(\"a\", \"b\") VALUES($1, $2)", mustTable(t).InsertStatement(a.Placeholder()))
}

func TestAdapter_NotConnected(t *testing.T) {
	a := New(nil)
	assert.Nil(t, a.Database())
	assert.ErrorIs(t, a.Exec(context.Background(), "SELECT 1"), store.ErrNotConnected)
	assert.NoError(t, a.Close())
}

func mustTable(t *testing.T) *orm.Table {
	t.Helper()
	m := orm.NewModel("t",
		&orm.Field{Name: "a", SQLType: "TEXT"},
		&orm.Field{Name: "b", SQLType: "TEXT"},
	)
	tbl, err := orm.NewTable("t", []*orm.Model{m})
	require.NoError(t, err)
	return tbl
}
