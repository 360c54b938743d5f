package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/snfsearch/internal/cli/config"
	clitestutil "github.com/leapstack-labs/snfsearch/internal/cli/testutil"
	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/internal/search"
	"github.com/leapstack-labs/snfsearch/internal/state"
	"github.com/leapstack-labs/snfsearch/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeLines(t *testing.T, s string) []models.Provider {
	t.Helper()
	var providers []models.Provider
	for _, line := range clitestutil.NonEmptyLines(s) {
		var p models.Provider
		require.NoError(t, json.Unmarshal([]byte(line), &p), line)
		providers = append(providers, p)
	}
	return providers
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"search", "load", "schema", "runs", "serve", "version", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSearch_CSV(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t)

	out, _, err := execute(t, "--config", cfgPath, "search", "35653")
	require.NoError(t, err)

	providers := decodeLines(t, out)
	require.Len(t, providers, 2)
	assert.Equal(t, "015009", providers[0].Num)
	assert.Equal(t, "015010", providers[1].Num)
	require.NotNil(t, providers[0].Score)
	assert.Greater(t, *providers[0].Score, *providers[1].Score)
	require.NotNil(t, providers[0].Distance)
	assert.Equal(t, 0.0, *providers[0].Distance)
	assert.Equal(t, "miles", providers[0].DistanceUnit)
	assert.Equal(t, 1, providers[0].NumDeficiencies)
	assert.Equal(t, 1, providers[1].NumPenalties)
}

func TestSearch_Flags(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "limit", args: []string{"-n", "1"}, want: []string{"015009"}},
		{name: "min rating", args: []string{"--min-overall-rating", "4"}, want: []string{"015009"}},
		{name: "max penalties", args: []string{"--max-penalties", "0"}, want: []string{"015009"}},
		{name: "max deficiencies", args: []string{"--max-deficiencies", "0"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", cfgPath, "search", "35653"}, tt.args...)
			out, _, err := execute(t, args...)
			require.NoError(t, err)

			var nums []string
			for _, p := range decodeLines(t, out) {
				nums = append(nums, p.Num)
			}
			assert.Equal(t, tt.want, nums)
		})
	}
}

func TestSearch_Table(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t)

	out, _, err := execute(t, "--config", cfgPath, "search", "35653", "-o", "table", "--distance-unit", "km")
	require.NoError(t, err)
	assert.Contains(t, out, "Facilities near 35653")
	assert.Contains(t, out, "Burns Nursing Home")
	assert.Contains(t, out, "km")
	clitestutil.AssertNoANSI(t, out)
}

func TestSearch_Errors(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t)

	_, _, err := execute(t, "--config", cfgPath, "search", "35653", "--min-overall-rating", "9")
	assert.ErrorIs(t, err, search.ErrInvalidQuery)

	_, _, err = execute(t, "--config", cfgPath, "search")
	assert.Error(t, err)

	_, _, err = execute(t, "--config", cfgPath, "--data-dir", t.TempDir(), "search", "35653")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file does not exist")

	_, _, err = execute(t, "--config", cfgPath, "search", "35653", "--source", "parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source")
}

func TestLoad_RunsAndSQLSearch(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t)

	out, _, err := execute(t, "--config", cfgPath, "load")
	require.NoError(t, err)

	var summary struct {
		RunID  string `json:"run_id"`
		Tables []struct {
			Table string `json:"table"`
			Rows  int64  `json:"rows"`
		} `json:"tables"`
		CastFallbacks    int `json:"cast_fallbacks"`
		UnknownPenalties int `json:"unknown_penalties"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &summary))
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Tables, 4)
	rows := map[string]int64{}
	for _, tr := range summary.Tables {
		rows[tr.Table] = tr.Rows
	}
	assert.Equal(t, map[string]int64{
		models.ZipCodeTable:    3,
		models.ProviderTable:   3,
		models.DeficiencyTable: 7,
		models.PenaltyTable:    3,
	}, rows)
	assert.Equal(t, 1, summary.CastFallbacks)
	assert.Equal(t, 1, summary.UnknownPenalties)

	root := filepath.Dir(cfgPath)
	assert.FileExists(t, filepath.Join(root, "snf.db"))
	assert.FileExists(t, filepath.Join(root, ".snfsearch", "state.db"))

	out, _, err = execute(t, "--config", cfgPath, "runs", "-o", "json")
	require.NoError(t, err)
	var runs []state.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)
	assert.Equal(t, state.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 1, runs[0].CastFallbacks)

	out, _, err = execute(t, "--config", cfgPath, "runs", summary.RunID, "-o", "json")
	require.NoError(t, err)
	var one []state.Run
	require.NoError(t, json.Unmarshal([]byte(out), &one))
	require.Len(t, one, 1)
	assert.Equal(t, summary.RunID, one[0].ID)
	assert.Len(t, one[0].Tables, 4)

	_, _, err = execute(t, "--config", cfgPath, "runs", "no-such-run")
	assert.ErrorIs(t, err, state.ErrRunNotFound)

	csvOut, _, err := execute(t, "--config", cfgPath, "search", "35653")
	require.NoError(t, err)
	sqlOut, _, err := execute(t, "--config", cfgPath, "search", "35653", "--source", "sql")
	require.NoError(t, err)
	assert.Equal(t, decodeLines(t, csvOut), decodeLines(t, sqlOut))
}

func TestLoad_FailureIsRecorded(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t)
	root := filepath.Dir(cfgPath)

	// A duplicate provider violates the primary key.
	testutil.WriteFile(t, filepath.Join(root, "data"), "ProviderInfo_Download.csv", testutil.CSV(
		"provnum,PROVNAME,ADDRESS,CITY,STATE,ZIP,PHONE,overall_rating",
		"015009,BURNS NURSING HOME,701 MONROE ST NW,RUSSELLVILLE,AL,35653,2563324110,5",
		"015009,BURNS NURSING HOME,701 MONROE ST NW,RUSSELLVILLE,AL,35653,2563324110,5",
	))

	_, _, err := execute(t, "--config", cfgPath, "load")
	require.Error(t, err)

	out, _, err := execute(t, "--config", cfgPath, "runs", "-o", "json")
	require.NoError(t, err)
	var runs []state.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestLoad_MissingFilesFailBeforeLedger(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t)
	root := filepath.Dir(cfgPath)
	require.NoError(t, os.Remove(filepath.Join(root, "data", "Penalties_Download.csv")))

	_, _, err := execute(t, "--config", cfgPath, "load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Penalties_Download.csv")
	assert.NoFileExists(t, filepath.Join(root, ".snfsearch", "state.db"))
}

func TestSchema(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t)

	out, _, err := execute(t, "--config", cfgPath, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS zipcode_mapping(")
	assert.Contains(t, out, "CREATE INDEX IF NOT EXISTS provider_overall_rating ON provider(\"overall_rating\");")
	assert.Contains(t, out, "INSERT INTO penalty(")
	assert.Contains(t, out, "?")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(cfgPath), "snf.db"))

	out, _, err = execute(t, "--config", cfgPath, "schema", "--target-type", "postgres", "-o", "json")
	require.NoError(t, err)
	var schemas []struct {
		Table  string `json:"table"`
		Insert string `json:"insert"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &schemas))
	require.Len(t, schemas, 4)
	assert.Equal(t, models.ProviderTable, schemas[1].Table)
	assert.Contains(t, schemas[1].Insert, "$8")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "snfsearch v"+Version)
}

func TestCompletion(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "snfsearch")
}
