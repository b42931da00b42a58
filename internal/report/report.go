// Package report renders a library usage index in the supported output formats.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/isseis/bldd/internal/safefileio"
	"github.com/isseis/bldd/internal/usage"
)

// Title is the heading every format starts with.
const Title = "bldd Report"

// Stdout is the output path that selects standard output.
const Stdout = "-"

const timestampLayout = "2006-01-02 15:04:05"

// reportFilePerm is the permission for newly created report files.
const reportFilePerm = 0o644

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown report format")

// Format selects a renderer.
type Format string

// Supported formats.
const (
	FormatText  Format = "txt"
	FormatPDF   Format = "pdf"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Formats returns every supported format in display order.
func Formats() []Format {
	return []Format{FormatText, FormatPDF, FormatJSON, FormatYAML, FormatTable}
}

// ParseFormat maps a name to a Format. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "yml" {
		return FormatYAML, nil
	}
	for _, f := range Formats() {
		if string(f) == n {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Report is everything a renderer needs.
type Report struct {
	GeneratedAt time.Time
	RunID       string
	Root        string
	Arch        string
	Targets     []string
	Entries     []usage.Entry
	Missing     []string
	Stats       usage.Stats
}

// New builds a report from a finished aggregation.
func New(ix *usage.Index, stats usage.Stats, targets []string) *Report {
	return &Report{
		GeneratedAt: time.Now(),
		Targets:     targets,
		Entries:     ix.Sorted(),
		Missing:     ix.Missing(targets),
		Stats:       stats,
	}
}

// TotalUsages returns the number of (library, executable) records.
func (r *Report) TotalUsages() int {
	total := 0
	for _, e := range r.Entries {
		total += len(e.Records)
	}
	return total
}

// Render writes the report to w in format f.
func (r *Report) Render(w io.Writer, f Format) error {
	switch f {
	case FormatText:
		return r.writeText(w)
	case FormatPDF:
		return r.writePDF(w)
	case FormatJSON:
		return r.writeJSON(w)
	case FormatYAML:
		return r.writeYAML(w)
	case FormatTable:
		return r.writeTable(w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// WriteFile renders the report and stores it at path, or on stdout when
// path is Stdout. The file is only touched after rendering succeeded.
func (r *Report) WriteFile(path string, f Format, stdout io.Writer) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, f); err != nil {
		return fmt.Errorf("failed to render %s report: %w", f, err)
	}
	if path == Stdout {
		if stdout == nil {
			stdout = os.Stdout
		}
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := safefileio.SafeWriteFile(path, buf.Bytes(), reportFilePerm); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}
