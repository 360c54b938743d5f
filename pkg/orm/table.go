package orm

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Placeholder renders the n-th (1-based) positional parameter of a statement.
type Placeholder func(n int) string

// QuestionMark renders "?" placeholders (SQLite, DuckDB).
func QuestionMark(int) string { return "?" }

// Dollar renders "$n" placeholders (PostgreSQL).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Index is a named, ordered list of columns to index.
type Index struct {
	Name    string
	Columns []string
}

// RowMapper rewrites a source row before its column values are resolved.
type RowMapper func(row Row, f *Factory) (Row, error)

// Table derives DDL and bulk-insert statements from one or more models
// sharing one physical table.
type Table struct {
	name    string
	columns []*Field
	indexes []Index
	mapper  RowMapper
}

// NewTable builds a table from the persisted resolved fields of models, in
// order. Column names must be unique across models and every index column must
// exist.
func NewTable(name string, models []*Model, indexes ...Index) (*Table, error) {
	t := &Table{name: name, indexes: indexes}
	seen := make(map[string]string)
	for _, m := range models {
		fields, err := m.Resolve()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		for _, fd := range fields {
			if fd.Model != nil && fd.SQLType != "" {
				return nil, fmt.Errorf("table %s: %w: %s.%s", name, ErrNotInsertable, m.Name, fd.Name)
			}
			if !fd.Persisted() {
				continue
			}
			if owner, dup := seen[fd.Name]; dup {
				return nil, fmt.Errorf("table %s: %w: %s declared by %s and %s", name, ErrDuplicateColumn, fd.Name, owner, m.Name)
			}
			seen[fd.Name] = m.Name
			t.columns = append(t.columns, fd)
		}
	}
	for _, idx := range indexes {
		for _, col := range idx.Columns {
			if _, ok := seen[col]; !ok {
				return nil, fmt.Errorf("table %s index %s: %w: %s", name, idx.Name, ErrUnknownColumn, col)
			}
		}
	}
	return t, nil
}

// MapRows sets the mapper Values applies to every row and returns t.
func (t *Table) MapRows(fn RowMapper) *Table {
	t.mapper = fn
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Columns returns the column names in statement order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, fd := range t.columns {
		names[i] = fd.Name
	}
	return names
}

// References returns the distinct tables named by REFERENCES clauses in the
// column types, in column order.
func (t *Table) References() []string {
	var refs []string
	for _, fd := range t.columns {
		ref := referencedTable(fd.SQLType)
		if ref != "" && !slices.Contains(refs, ref) {
			refs = append(refs, ref)
		}
	}
	return refs
}

func referencedTable(sqlType string) string {
	fields := strings.Fields(sqlType)
	for i, f := range fields {
		if !strings.EqualFold(f, "REFERENCES") || i+1 == len(fields) {
			continue
		}
		name, _, _ := strings.Cut(fields[i+1], "(")
		return name
	}
	return ""
}

// CreateStatement returns the CREATE TABLE IF NOT EXISTS statement.
func (t *Table) CreateStatement() string {
	defs := make([]string, len(t.columns))
	for i, fd := range t.columns {
		defs[i] = quoteIdent(fd.Name) + " " + fd.SQLType
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s(%s)", t.name, strings.Join(defs, ", "))
}

// IndexStatements returns one CREATE INDEX IF NOT EXISTS statement per index.
func (t *Table) IndexStatements() []string {
	stmts := make([]string, 0, len(t.indexes))
	for _, idx := range t.indexes {
		cols := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			cols[i] = quoteIdent(c)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.Name, t.name, strings.Join(cols, ", ")))
	}
	return stmts
}

// InsertStatement returns a parameterized INSERT with one placeholder per
// column.
func (t *Table) InsertStatement(ph Placeholder) string {
	cols := make([]string, len(t.columns))
	params := make([]string, len(t.columns))
	for i, fd := range t.columns {
		cols[i] = quoteIdent(fd.Name)
		params[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)", t.name, strings.Join(cols, ", "), strings.Join(params, ", "))
}

// Values resolves one positional value per column from row, after the
// table's row mapper if it has one.
func (t *Table) Values(row Row, f *Factory) ([]any, error) {
	if t.mapper != nil {
		mapped, err := t.mapper(row, f)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.name, err)
		}
		row = mapped
	}
	values := make([]any, len(t.columns))
	for i, fd := range t.columns {
		v, err := fd.Resolve(row, f)
		if err != nil {
			return nil, fmt.Errorf("table %s column %s: %w", t.name, fd.Name, err)
		}
		values[i] = v
	}
	return values, nil
}

// Rows lazily yields the values of every row of src. Iteration stops after
// the first error, which is yielded with nil values.
func (t *Table) Rows(src RowSource, f *Factory) iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		for {
			row, err := src.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			values, err := t.Values(row, f)
			if !yield(values, err) || err != nil {
				return
			}
		}
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
