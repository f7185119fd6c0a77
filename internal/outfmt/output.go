package outfmt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/csvprep/internal/table"
)

// Format represents an export format
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTable  Format = "table"
)

// FormatForPath picks a format from a file extension. Unknown extensions
// fall back to CSV.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt":
		return FormatTable
	default:
		return FormatCSV
	}
}

// ParseFormat validates an explicit export format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatNDJSON, FormatYAML, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("invalid export format %q (expected csv|json|ndjson|yaml|table)", s)
	}
}

// Printer handles formatted output
type Printer struct {
	Format Format
	Writer io.Writer
}

// NewPrinter creates a new printer with the given format
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		Format: format,
		Writer: w,
	}
}

// Print writes the table in the configured format
func (p *Printer) Print(t *table.Table) error {
	switch p.Format {
	case FormatCSV, "":
		return p.printCSV(t)
	case FormatJSON:
		return p.printJSON(t)
	case FormatNDJSON:
		return p.printNDJSON(t)
	case FormatYAML:
		return p.printYAML(t)
	case FormatTable:
		header, rows := t.Strings()
		return p.PrintTable(header, rows)
	default:
		return fmt.Errorf("unsupported export format: %s", p.Format)
	}
}

func (p *Printer) printCSV(t *table.Table) error {
	header, rows := t.Strings()
	w := csv.NewWriter(p.Writer)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func (p *Printer) printJSON(t *table.Table) error {
	encoder := json.NewEncoder(p.Writer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(t.OrderedRecords())
}

func (p *Printer) printNDJSON(t *table.Table) error {
	encoder := json.NewEncoder(p.Writer)
	encoder.SetEscapeHTML(false)
	for _, rec := range t.OrderedRecords() {
		if err := encoder.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printYAML(t *table.Table) error {
	encoder := yaml.NewEncoder(p.Writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(t.OrderedRecords()); err != nil {
		return err
	}
	return encoder.Close()
}

// PrintTable prints data in table format
func (p *Printer) PrintTable(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.Writer, 0, 0, 2, ' ', 0)

	// Print headers
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, h)
	}
	fmt.Fprintln(w)

	// Print rows
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}

	return w.Flush()
}

// WriteFile exports the table to path. An empty format is inferred from
// the file extension.
func WriteFile(path string, format Format, t *table.Table) error {
	if format == "" {
		format = FormatForPath(path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := NewPrinter(f, format).Print(t); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
