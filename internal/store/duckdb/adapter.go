// Package duckdb provides a DuckDB database adapter.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/snfsearch/internal/store/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/snfsearch/internal/store"
	"github.com/leapstack-labs/snfsearch/pkg/orm"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	store.Register("duckdb", func(logger *slog.Logger) store.Adapter { return New(logger) })
}

// Adapter implements the store.Adapter interface for DuckDB.
type Adapter struct {
	store.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: store.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Placeholder returns the "?" parameter style.
func (a *Adapter) Placeholder() orm.Placeholder {
	return orm.QuestionMark
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg store.Config) error {
	path := cfg.Database
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	for _, stmt := range settingStatements(cfg.Options) {
		if err := a.Exec(ctx, stmt); err != nil {
			_ = a.Close()
			a.DB = nil
			return fmt.Errorf("failed to apply duckdb setting: %w", err)
		}
	}

	return nil
}

// settingStatements turns target options (e.g., memory_limit, threads) into
// session SET statements in a stable order.
func settingStatements(options map[string]string) []string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stmts := make([]string, 0, len(keys))
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, options[k]))
	}
	return stmts
}
