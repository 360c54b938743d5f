// Package store persists facility data into a relational database and reads
// it back. Database engines are adapters registered by name; import an
// adapter package with a blank identifier to make it available:
//
//	import _ "github.com/leapstack-labs/snfsearch/internal/store/sqlite"
package store

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type is the registered adapter name (e.g., "sqlite", "duckdb", "postgres").
	Type string `koanf:"type"`

	// Database is the file path for file-based databases, or the database
	// name for network databases. Use ":memory:" for an in-memory database.
	Database string `koanf:"database"`

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Schema is the default schema to use
	Schema string `koanf:"schema"`

	// Options contains additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// Adapter is a connection to one database engine.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*sql.Rows, error)

	// Database returns the underlying connection pool, or nil before Connect.
	Database() *sql.DB

	// DialectName returns the SQL dialect name for this adapter.
	DialectName() string

	// Placeholder returns the positional parameter style of the dialect.
	Placeholder() orm.Placeholder
}
