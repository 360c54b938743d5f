package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intconfig "github.com/leapstack-labs/snfsearch/internal/config"
	"github.com/leapstack-labs/snfsearch/internal/ingest"
	"github.com/leapstack-labs/snfsearch/internal/score"
	"github.com/leapstack-labs/snfsearch/internal/store"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/snfsearch/internal/store/postgres"
	_ "github.com/leapstack-labs/snfsearch/internal/store/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), intconfig.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "verbose: false\n")
	root := filepath.Dir(cfgPath)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, intconfig.DefaultDataDir), cfg.DataDir)
	assert.Equal(t, ingest.DefaultFiles(cfg.DataDir), cfg.Files)
	assert.Equal(t, SourceCSV, cfg.Source)
	assert.Equal(t, filepath.Join(root, intconfig.DefaultStateFile), cfg.StatePath)
	assert.Equal(t, "miles", cfg.DistanceUnit)
	assert.Equal(t, score.DefaultWeights(), cfg.Weights)
	assert.Equal(t, OutputJSONL, cfg.OutputFormat)
	assert.Equal(t, intconfig.DefaultServePort, cfg.Serve.Port)
	assert.False(t, cfg.Serve.Watch)

	require.NotNil(t, cfg.Target)
	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, filepath.Join(root, intconfig.DefaultDatabase), cfg.Target.Database)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `data_dir: /srv/cms
files:
  providers: providers_2015.csv
source: SQL
distance_unit: km
output: table
weights:
  rating: 2
  distance: 0
target:
  type: postgres
  host: db.internal
  database: snf
serve:
  port: 9000
  watch: true
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "/srv/cms", cfg.DataDir)
	assert.Equal(t, "/srv/cms/providers_2015.csv", cfg.Files.Providers)
	assert.Equal(t, "/srv/cms/"+ingest.DefaultZipCodesFile, cfg.Files.ZipCodes)
	assert.Equal(t, SourceSQL, cfg.Source)
	assert.Equal(t, OutputTable, cfg.OutputFormat)
	assert.Equal(t, score.Weights{Rating: 2, Deficiencies: 1, Penalties: 1, Distance: 0}, cfg.Weights)
	assert.Equal(t, store.Config{Type: "postgres", Host: "db.internal", Port: 5432, Database: "snf", Schema: "public"}, *cfg.Target)
	assert.Equal(t, ServeConfig{Port: 9000, Watch: true}, cfg.Serve)
}

func TestLoadConfig_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		flag    string
		want    string
		setFlag bool
	}{
		{name: "file", want: "table"},
		{name: "env over file", env: "yaml", want: "yaml"},
		{name: "flag over env", env: "yaml", flag: "json", setFlag: true, want: "json"},
		{name: "unset flag uses env", env: "yaml", want: "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			cfgPath := writeConfig(t, "output: table\n")
			if tt.env != "" {
				t.Setenv("SNFSEARCH_OUTPUT", tt.env)
			}

			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.StringP("output", "o", "", "output format")
			if tt.setFlag {
				require.NoError(t, flags.Set("output", tt.flag))
			}

			cfg, err := LoadConfig(cfgPath, flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.OutputFormat)
		})
	}
}

func TestLoadConfig_NestedEnv(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "verbose: false\n")
	t.Setenv("SNFSEARCH_SERVE__PORT", "9100")
	t.Setenv("SNFSEARCH_WEIGHTS__PENALTIES", "3")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Serve.Port)
	assert.Equal(t, 3.0, cfg.Weights.Penalties)
}

func TestLoadConfig_FlagPaths(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "data_dir: from_file\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("data-dir", "", "")
	flags.String("database", "", "")
	flags.Int("port", 0, "")
	flags.Int("num-facilities", 20, "")
	require.NoError(t, flags.Set("data-dir", "from_flag"))
	require.NoError(t, flags.Set("database", ":memory:"))
	require.NoError(t, flags.Set("port", "8080"))
	require.NoError(t, flags.Set("num-facilities", "5"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	want, err := filepath.Abs("from_flag")
	require.NoError(t, err)
	assert.Equal(t, want, cfg.DataDir)
	assert.Equal(t, ":memory:", cfg.Target.Database)
	assert.Equal(t, 8080, cfg.Serve.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "source", content: "source: parquet\n", errSubstr: "invalid source"},
		{name: "distance unit", content: "distance_unit: furlongs\n", errSubstr: "invalid distance_unit"},
		{name: "output", content: "output: xml\n", errSubstr: "invalid output format"},
		{name: "negative weight", content: "weights:\n  rating: -1\n", errSubstr: "rating weight is negative"},
		{
			name:      "zero weights",
			content:   "weights:\n  rating: 0\n  deficiencies: 0\n  penalties: 0\n  distance: 0\n",
			errSubstr: "all weights are zero",
		},
		{name: "target type", content: "target:\n  type: mysql\n", errSubstr: "unknown target type"},
		{name: "port", content: "serve:\n  port: 70000\n", errSubstr: "invalid serve.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_TargetEnvExpansion(t *testing.T) {
	ResetConfig()
	t.Setenv("SNF_DB_PASSWORD", "s3cret")
	cfgPath := writeConfig(t, `target:
  type: postgres
  user: snf
  password: ${SNF_DB_PASSWORD}
  host: ${UNSET_SNF_HOST}
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, "${UNSET_SNF_HOST}", cfg.Target.Host)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestConfig_ValidateFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Files: ingest.DefaultFiles(dir)}
	err := cfg.ValidateFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ingest.DefaultZipCodesFile)

	for _, p := range cfg.Files.Paths() {
		require.NoError(t, os.WriteFile(p, []byte("x\n"), 0o600))
	}
	assert.NoError(t, cfg.ValidateFiles())
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	assert.Same(t, logger, GetLogger(WithLogger(context.Background(), logger)))
}
