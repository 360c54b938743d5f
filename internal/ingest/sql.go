package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// Querier runs a query. *sql.DB and *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLSource yields one row per result row, keyed by column name.
type SQLSource struct {
	rows    *sql.Rows
	columns []string
}

// Query runs query and returns its result rows as a source. The caller must
// Close it.
func Query(ctx context.Context, db Querier, query string, args ...any) (*SQLSource, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	return &SQLSource{rows: rows, columns: columns}, nil
}

// Next returns the next row, or io.EOF after the last one. NULL columns are
// left out of the row so they resolve to their field's default.
func (s *SQLSource) Next() (orm.Row, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating rows: %w", err)
		}
		return nil, io.EOF
	}

	values := make([]any, len(s.columns))
	ptrs := make([]any, len(s.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	row := make(orm.Row, len(s.columns))
	for i, col := range s.columns {
		if values[i] != nil {
			row[col] = values[i]
		}
	}
	return row, nil
}

// Close releases the result set.
func (s *SQLSource) Close() error {
	return s.rows.Close()
}

// drain reads src to the end, calling fn for every row.
func drain(src orm.RowSource, fn func(orm.Row) error) (int, error) {
	n := 0
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
		if err := fn(row); err != nil {
			return n, err
		}
	}
}
