package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/csvprep/internal/outfmt"
	"github.com/salmonumbrella/csvprep/internal/table"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is human-readable output (default). Tables render as
	// aligned columns, other values as key-value lines.
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
	// FormatCSV writes tables as CSV.
	FormatCSV Format = "csv"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON, FormatNDJSON, FormatTable, FormatYAML, FormatCSV:
		return f, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|ndjson|table|yaml|csv)")
	}
}

// IsStructured reports whether the format is machine-readable structured output.
func IsStructured(format Format) bool {
	switch format {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
	}
}

// Print outputs data in the configured format. A *table.Table has the
// context's row options applied and is rendered row by row; anything else
// is printed as a single value.
func (p *Printer) Print(ctx context.Context, data any) error {
	if data == nil {
		return nil
	}

	if t, ok := data.(*table.Table); ok {
		return p.printTable(ctx, t)
	}

	switch p.format {
	case FormatJSON:
		return p.printJSON(ctx, data)
	case FormatNDJSON:
		return p.printNDJSON(ctx, data)
	case FormatYAML:
		return p.printYAML(data)
	case FormatText, FormatTable, FormatCSV:
		return p.printText(data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func (p *Printer) printTable(ctx context.Context, t *table.Table) error {
	t = ApplyRowOptions(ctx, t)

	switch p.format {
	case FormatCSV:
		return outfmt.NewPrinter(p.w, outfmt.FormatCSV).Print(t)
	case FormatText, FormatTable:
		if t.IsEmpty() {
			return nil
		}
		header, rows := t.Strings()
		return p.printTableData(header, rows)
	case FormatJSON:
		return p.printJSON(ctx, recordsOf(ctx, t))
	case FormatNDJSON:
		return p.printNDJSON(ctx, recordsOf(ctx, t))
	case FormatYAML:
		return p.printYAML(recordsOf(ctx, t))
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// recordsOf returns the rows as a []any so jq sees a JSON array. Without
// a query the rows keep column order when encoded; jq works on plain maps.
func recordsOf(ctx context.Context, t *table.Table) []any {
	if QueryFromContext(ctx) == "" {
		records := t.OrderedRecords()
		out := make([]any, len(records))
		for i, r := range records {
			out[i] = r
		}
		return out
	}
	records := t.Records()
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

// printJSON outputs data as pretty-printed JSON.
// If a jq query is present in the context, it filters the output.
func (p *Printer) printJSON(ctx context.Context, data any) error {
	if query := QueryFromContext(ctx); query != "" {
		return p.runQuery(query, data)
	}
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printNDJSON outputs data as newline-delimited JSON.
// If a jq query is present in the context, it filters the output.
func (p *Printer) printNDJSON(ctx context.Context, data any) error {
	if query := QueryFromContext(ctx); query != "" {
		return p.runQuery(query, data)
	}

	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	if items, ok := data.([]any); ok {
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(data)
}

// runQuery evaluates a jq expression and writes one JSON value per result.
func (p *Printer) runQuery(query string, data any) error {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}

	input, err := toJQValue(data)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("query error: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

// toJQValue converts data to the plain maps, slices and scalars gojq
// accepts.
func toJQValue(data any) (any, error) {
	switch data.(type) {
	case []any, map[string]any:
		return data, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding query input: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding query input: %w", err)
	}
	return v, nil
}

// printYAML outputs data as YAML.
func (p *Printer) printYAML(data any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// printText outputs data as human-readable text.
// For maps and structs: key-value pairs.
// For slices: one item per line.
// For primitives: direct output.
func (p *Printer) printText(data any) error {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		return p.printTextMap(v)
	case reflect.Struct:
		return p.printTextStruct(v)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if _, err := fmt.Fprintln(p.w, v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(p.w, v.Interface())
		return err
	}
}

func (p *Printer) printTextMap(v reflect.Value) error {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})

	for _, key := range keys {
		if _, err := fmt.Fprintf(p.w, "%v: %v\n", key.Interface(), v.MapIndex(key).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printTextStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		label := field.Name
		tag := field.Tag.Get("json")
		if tag != "" {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				label = name
			}
		}

		value := v.Field(i)
		if strings.Contains(tag, "omitempty") && value.IsZero() {
			continue
		}

		if _, err := fmt.Fprintf(p.w, "%s: %v\n", label, value.Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printTableData(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	return w.Flush()
}
