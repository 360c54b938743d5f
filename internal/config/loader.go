package config

import (
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "snfsearch.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "snfsearch.yml"

// FindConfigFile returns the config file in dir, or "" if there is none.
func FindConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file, giving up after maxLevels parents. Returns "" if not found.
func FindProjectRoot(startDir string, maxLevels int) string {
	dir := startDir
	for i := 0; i <= maxLevels; i++ {
		if FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
	return ""
}
