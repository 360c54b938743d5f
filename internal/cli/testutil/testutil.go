// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/snfsearch/internal/cli/output"
	roottestutil "github.com/leapstack-labs/snfsearch/internal/testutil"
)

// SetupTestProject creates a temporary project: the sample CSV files under
// data/ and a snfsearch.yaml pointing the target and run ledger into the
// project directory. It returns the config file path.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		t.Fatalf("failed to create directory %s: %v", dataDir, err)
	}
	roottestutil.SampleData(t, dataDir)

	cfg := `data_dir: data
files:
  zip_codes: zip_code_centroids.csv
  providers: ProviderInfo_Download.csv
  deficiencies: Deficiencies_Download.csv
  penalties: Penalties_Download.csv
state_path: .snfsearch/state.db
target:
  type: sqlite
  database: snf.db
`
	cfgPath := filepath.Join(tmpDir, "snfsearch.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to create snfsearch.yaml: %v", err)
	}
	return cfgPath
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified format and
// TTY state. Output is captured in buffers for inspection.
func NewTestRenderer(format output.Format, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, format),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// NonEmptyLines splits s into lines, dropping blank ones.
func NonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
