package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// Source is a closable row source, such as an open CSV file.
type Source interface {
	orm.RowSource
	Close() error
}

// Batch pairs a table with the input its rows are read from. Open is called
// after the table is created and the source is closed before the next batch.
type Batch struct {
	Table *orm.Table
	Open  func() (Source, error)
}

// TableResult reports the rows inserted into one table.
type TableResult struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Loader bulk-loads batches through an adapter.
type Loader struct {
	adapter Adapter
	factory *orm.Factory
	logger  *slog.Logger
}

// NewLoader creates a loader resolving row values with f. If logger is nil, a
// discard logger is used.
func NewLoader(a Adapter, f *orm.Factory, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{adapter: a, factory: f, logger: logger}
}

// Load creates every table with its indexes and inserts all rows of its
// source, in batch order, inside one transaction. The transaction commits
// once after the last batch; any failure rolls back the whole load.
func (l *Loader) Load(ctx context.Context, batches []Batch) ([]TableResult, error) {
	db := l.adapter.Database()
	if db == nil {
		return nil, ErrNotConnected
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				l.logger.Debug("rollback failed", "error", err)
			}
		}
	}()

	results := make([]TableResult, 0, len(batches))
	for _, b := range batches {
		n, err := l.loadTable(ctx, tx, b)
		if err != nil {
			return nil, err
		}
		l.logger.Info("table loaded", "table", b.Table.Name(), "rows", n)
		results = append(results, TableResult{Table: b.Table.Name(), Rows: n})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit load: %w", err)
	}
	committed = true
	return results, nil
}

func (l *Loader) loadTable(ctx context.Context, tx *sql.Tx, b Batch) (int64, error) {
	name := b.Table.Name()
	l.logger.Debug("creating table", "table", name)

	if _, err := tx.ExecContext(ctx, b.Table.CreateStatement()); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", name, err)
	}
	for _, stmt := range b.Table.IndexStatements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}

	src, err := b.Open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = src.Close() }()

	insert, err := tx.PrepareContext(ctx, b.Table.InsertStatement(l.adapter.Placeholder()))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", name, err)
	}
	defer func() { _ = insert.Close() }()

	var n int64
	for values, err := range b.Table.Rows(src, l.factory) {
		if err != nil {
			return n, fmt.Errorf("failed to read row %d for %s: %w", n+1, name, err)
		}
		if _, err := insert.ExecContext(ctx, values...); err != nil {
			return n, fmt.Errorf("failed to insert row %d into %s: %w", n+1, name, err)
		}
		n++
	}
	return n, nil
}
