// Package output renders command results as JSON lines, JSON, YAML or
// styled tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

// Output formats.
const (
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// Styles holds the lipgloss styles used by table output.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles returns styles for a terminal, or unstyled ones when color is
// false.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{Header: plain, Bold: plain, Muted: plain, Success: plain, Warning: plain, Error: plain}
	}
	return &Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Renderer writes results to out and status messages to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	format Format
	styles *Styles
}

// NewRenderer creates a renderer. Styling is enabled only when out is a
// terminal.
func NewRenderer(out, errOut io.Writer, format Format) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), format)
}

// NewRendererWithTTY creates a renderer with explicit terminal detection.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, format Format) *Renderer {
	if format == "" {
		format = FormatJSONL
	}
	return &Renderer{out: out, errOut: errOut, format: format, styles: NewStyles(isTTY)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Format returns the output format.
func (r *Renderer) Format() Format { return r.format }

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the result writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line to the result writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the result writer.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Success writes a status line to the error writer.
func (r *Renderer) Success(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Success.Render("✓ "+msg))
}

// Warning writes a warning line to the error writer.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+msg))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// JSONLines writes each item as one compact JSON object per line.
func JSONLines[T any](r *Renderer, items []T) error {
	enc := json.NewEncoder(r.out)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

// YAML writes v as a YAML document.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Structured writes items in the renderer's machine-readable format. It
// reports false for the table format, which each caller renders itself.
func Structured[T any](r *Renderer, items []T) (bool, error) {
	switch r.format {
	case FormatJSON:
		if items == nil {
			items = []T{}
		}
		return true, r.JSON(items)
	case FormatYAML:
		return true, r.YAML(items)
	case FormatTable:
		return false, nil
	default:
		return true, JSONLines(r, items)
	}
}
