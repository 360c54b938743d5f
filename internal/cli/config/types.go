// Package config loads snfsearch command-line configuration.
//
// Values are layered, highest precedence last: built-in defaults, the
// snfsearch.yaml config file, SNFSEARCH_ environment variables, and flags set
// on the command line.
package config

import (
	"github.com/leapstack-labs/snfsearch/internal/ingest"
	"github.com/leapstack-labs/snfsearch/internal/score"
	"github.com/leapstack-labs/snfsearch/internal/store"
)

// Ingestion sources.
const (
	SourceCSV = "csv"
	SourceSQL = "sql"
)

// Output formats.
const (
	OutputJSONL = "jsonl"
	OutputJSON  = "json"
	OutputTable = "table"
	OutputYAML  = "yaml"
)

// ServeConfig holds configuration for the HTTP server.
type ServeConfig struct {
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`
}

// Config holds all CLI configuration options.
type Config struct {
	DataDir      string        `koanf:"data_dir"`
	Files        ingest.Files  `koanf:"files"`
	Source       string        `koanf:"source"`
	Target       *store.Config `koanf:"target"`
	StatePath    string        `koanf:"state_path"`
	DistanceUnit string        `koanf:"distance_unit"`
	Weights      score.Weights `koanf:"weights"`
	OutputFormat string        `koanf:"output"`
	Verbose      bool          `koanf:"verbose"`
	Serve        ServeConfig   `koanf:"serve"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}
