package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	intconfig "github.com/leapstack-labs/snfsearch/internal/config"
	"github.com/leapstack-labs/snfsearch/internal/ingest"
	"github.com/leapstack-labs/snfsearch/internal/store"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// envPrefix prefixes every environment variable read as configuration.
const envPrefix = "SNFSEARCH_"

// Package-level config file tracking
var (
	configFileUsed string
	currentConfig  *Config
)

// flagKeys maps command-line flags to the config keys they override. Flags
// not listed here are command options, not configuration.
var flagKeys = map[string]string{
	"data-dir":      "data_dir",
	"source":        "source",
	"state":         "state_path",
	"database":      "target.database",
	"target-type":   "target.type",
	"distance-unit": "distance_unit",
	"output":        "output",
	"verbose":       "verbose",
	"port":          "serve.port",
	"watch":         "serve.watch",
}

// pathFlags are resolved against the working directory rather than the
// project root.
var pathFlags = []string{"data-dir", "state", "database"}

func defaults() map[string]any {
	return map[string]any{
		"data_dir":             intconfig.DefaultDataDir,
		"source":               intconfig.DefaultSource,
		"state_path":           intconfig.DefaultStateFile,
		"distance_unit":        intconfig.DefaultDistanceUnit,
		"output":               intconfig.DefaultOutput,
		"verbose":              false,
		"target.type":          intconfig.DefaultTargetType,
		"weights.rating":       1.0,
		"weights.deficiencies": 1.0,
		"weights.penalties":    1.0,
		"weights.distance":     1.0,
		"serve.port":           intconfig.DefaultServePort,
		"serve.watch":          false,
	}
}

// ResetConfig clears the loaded configuration. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// findProjectRoot returns the directory of the explicit config file, the
// nearest ancestor of the working directory holding one, or the working
// directory.
func findProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
		return filepath.Dir(cfgFile)
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := intconfig.FindProjectRoot(cwd, maxUpwardSearchLevels); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, absolute, or an in-memory database.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// LoadConfig loads configuration from defaults, the config file, environment
// variables and flags. Precedence (highest to lowest): flags > env vars >
// config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	projectRoot := findProjectRoot(cfgFile)

	// Paths given as flags are relative to the working directory.
	flagPaths := make(map[string]string)
	if flags != nil {
		for _, name := range pathFlags {
			f := flags.Lookup(name)
			if f == nil || !f.Changed || f.Value.String() == "" {
				continue
			}
			v := f.Value.String()
			if abs, err := filepath.Abs(v); err == nil && v != ":memory:" {
				v = abs
			}
			flagPaths[name] = v
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	if cfgFile == "" {
		cfgFile = intconfig.FindConfigFile(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables
	// Transform: SNFSEARCH_DATA_DIR -> data_dir, SNFSEARCH_SERVE__PORT -> serve.port
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.Source = strings.ToLower(cfg.Source)
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)

	// 6. Resolve paths
	if v, ok := flagPaths["data-dir"]; ok {
		cfg.DataDir = v
	} else {
		cfg.DataDir = resolvePathRelativeTo(cfg.DataDir, projectRoot)
	}
	if v, ok := flagPaths["state"]; ok {
		cfg.StatePath = v
	} else {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}
	cfg.Files = resolveFiles(cfg.Files, cfg.DataDir)

	if cfg.Target == nil {
		cfg.Target = &store.Config{}
	}
	cfg.Target.Type = strings.ToLower(cfg.Target.Type)
	intconfig.ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)
	if v, ok := flagPaths["database"]; ok {
		cfg.Target.Database = v
	} else if cfg.Target.Type != "postgres" {
		cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// resolveFiles fills unset input files with their default names under
// dataDir and anchors relative ones there.
func resolveFiles(f ingest.Files, dataDir string) ingest.Files {
	def := ingest.DefaultFiles(dataDir)
	pick := func(set, fallback string) string {
		if set == "" {
			return fallback
		}
		return resolvePathRelativeTo(set, dataDir)
	}
	return ingest.Files{
		ZipCodes:     pick(f.ZipCodes, def.ZipCodes),
		Providers:    pick(f.Providers, def.Providers),
		Deficiencies: pick(f.Deficiencies, def.Deficiencies),
		Penalties:    pick(f.Penalties, def.Penalties),
	}
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *store.Config) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
