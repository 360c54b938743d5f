package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/snfsearch/internal/testutil"
	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

func readAll(t *testing.T, src orm.RowSource) []orm.Row {
	t.Helper()
	var rows []orm.Row
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestCSVSource(t *testing.T) {
	src, err := NewCSVSource(strings.NewReader("\ufeffzip_code, lat ,lng\n10001,40.7,-74.0\n10002,40.8\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"zip_code", "lat", "lng"}, src.Header())
	assert.Equal(t, []orm.Row{
		{"zip_code": "10001", "lat": "40.7", "lng": "-74.0"},
		{"zip_code": "10002", "lat": "40.8"},
	}, readAll(t, src))
	assert.NoError(t, src.Close())
}

func TestCSVSource_QuotedFields(t *testing.T) {
	src, err := NewCSVSource(strings.NewReader("provnum,PROVNAME\n1,\"SMITH, JONES & CO\"\n"))
	require.NoError(t, err)

	rows := readAll(t, src)
	require.Len(t, rows, 1)
	assert.Equal(t, "SMITH, JONES & CO", rows[0]["PROVNAME"])
}

func TestCSVSource_MissingHeader(t *testing.T) {
	_, err := NewCSVSource(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestOpenCSV(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "z.csv", testutil.CSV("zip_code,lat,lng", "1,2,3"))

	src, err := OpenCSV(path)
	require.NoError(t, err)
	rows := readAll(t, src)
	require.NoError(t, src.Close())
	assert.Len(t, rows, 1)

	_, err = OpenCSV(dir + "/missing.csv")
	assert.Error(t, err)
}
