package config

import (
	"fmt"
	"slices"

	intconfig "github.com/leapstack-labs/snfsearch/internal/config"
	"github.com/leapstack-labs/snfsearch/pkg/geo"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains([]string{SourceCSV, SourceSQL}, c.Source) {
		return fmt.Errorf("invalid source %q: must be %s or %s", c.Source, SourceCSV, SourceSQL)
	}
	if _, err := geo.ParseUnit(c.DistanceUnit); err != nil {
		return fmt.Errorf("invalid distance_unit: %w", err)
	}
	formats := []string{OutputJSONL, OutputJSON, OutputTable, OutputYAML}
	if !slices.Contains(formats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q: must be one of %v", c.OutputFormat, formats)
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("invalid serve.port %d", c.Serve.Port)
	}
	if err := intconfig.ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	return nil
}

// Unit returns the configured distance unit. Call after Validate.
func (c *Config) Unit() geo.Unit {
	u, _ := geo.ParseUnit(c.DistanceUnit)
	return u
}

// ValidateFiles checks that the CSV input files exist.
func (c *Config) ValidateFiles() error {
	for _, path := range c.Files.Paths() {
		if !fileExists(path) {
			return fmt.Errorf("input file does not exist: %s\nHint: set data_dir or files.* in %s, or use --data-dir", path, intconfig.ConfigFileName)
		}
	}
	return nil
}
