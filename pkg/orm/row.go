package orm

import "io"

// Row is one source row keyed by column name. Values are whatever the source
// produced: strings from delimited files, driver values from SQL queries.
type Row map[string]any

// Lookup returns the value stored under key. A nil value counts as missing.
func (r Row) Lookup(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Without returns a copy of r lacking keys.
func (r Row) Without(keys ...string) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// RowSource yields rows until it returns io.EOF.
type RowSource interface {
	Next() (Row, error)
}

// SliceSource serves rows from memory.
type SliceSource struct {
	rows []Row
	pos  int
}

// NewSliceSource returns a RowSource over rows.
func NewSliceSource(rows ...Row) *SliceSource {
	return &SliceSource{rows: rows}
}

// Next returns the next row or io.EOF.
func (s *SliceSource) Next() (Row, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

// Close implements io.Closer.
func (s *SliceSource) Close() error { return nil }
