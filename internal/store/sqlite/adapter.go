// Package sqlite provides a SQLite database adapter backed by the pure Go
// modernc.org/sqlite driver.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/snfsearch/internal/store/sqlite"
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/snfsearch/internal/store"
	"github.com/leapstack-labs/snfsearch/pkg/orm"

	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	store.Register("sqlite", func(logger *slog.Logger) store.Adapter { return New(logger) })
}

// Adapter implements the store.Adapter interface for SQLite.
type Adapter struct {
	store.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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
	return "sqlite"
}

// Placeholder returns the "?" parameter style.
func (a *Adapter) Placeholder() orm.Placeholder {
	return orm.QuestionMark
}

// Connect opens the database file named by cfg.Database.
// Use ":memory:" (the default) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg store.Config) error {
	path := cfg.Database
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	// A single connection keeps an in-memory database alive and serializes
	// writers to a file database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}
