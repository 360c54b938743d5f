// Package ingest reads facility data into in-memory repositories, either from
// the CMS download files or from a database loaded by the store package.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// ErrMissingHeader is returned for a CSV input without a header row.
var ErrMissingHeader = errors.New("missing CSV header row")

// CSVSource yields one row per CSV record, keyed by the header row.
// Records shorter than the header leave the trailing columns missing.
type CSVSource struct {
	reader *csv.Reader
	closer io.Closer
	header []string
	name   string
	line   int
}

// OpenCSV opens the CSV file at path. The caller must Close it.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	src, err := newCSVSource(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// NewCSVSource reads the header row from r.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	return newCSVSource(r, "csv input")
}

func newCSVSource(r io.Reader, name string) (*CSVSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header of %s: %w", name, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	// Excel exports start with a byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	return &CSVSource{reader: reader, header: header, name: name, line: 1}, nil
}

// Header returns the column names.
func (s *CSVSource) Header() []string { return s.header }

// Next returns the next row, or io.EOF after the last one.
func (s *CSVSource) Next() (orm.Row, error) {
	record, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read CSV row of %s: %w", s.name, err)
	}
	s.line++

	row := make(orm.Row, len(s.header))
	for i, col := range s.header {
		if i >= len(record) {
			break
		}
		row[col] = record[i]
	}
	return row, nil
}

// Close closes the underlying file, if any.
func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
