package config

import "github.com/leapstack-labs/snfsearch/internal/store"

// Default configuration values.
const (
	DefaultDataDir      = "data"
	DefaultStateFile    = ".snfsearch/state.db"
	DefaultSource       = "csv"
	DefaultDistanceUnit = "miles"
	DefaultOutput       = "jsonl"
	DefaultTargetType   = "sqlite"
	DefaultDatabase     = "snf.db"
	DefaultServePort    = 8765
)

// ApplyTargetDefaults applies default values to a target based on its type.
func ApplyTargetDefaults(t *store.Config) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}

	switch t.Type {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
		if t.Schema == "" {
			t.Schema = "public"
		}
	case "sqlite", "duckdb":
		if t.Database == "" {
			t.Database = DefaultDatabase
		}
		if t.Schema == "" {
			t.Schema = "main"
		}
	}
}
