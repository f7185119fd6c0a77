package table

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the semantic type shared by every value in a column.
type Kind string

const (
	// KindText holds string values.
	KindText Kind = "text"
	// KindNumber holds float64 values.
	KindNumber Kind = "number"
	// KindTimestamp holds time.Time values.
	KindTimestamp Kind = "timestamp"
)

// Column is a named, typed sequence of values. A nil entry marks an
// absent value; every other entry has the Go type matching Kind.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	return len(c.Values)
}

func (c Column) clone() Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Table is an in-memory columnar dataset. Tables are treated as values:
// operations in this package return new tables and never modify their
// inputs.
type Table struct {
	columns []Column
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{}
}

// New builds a table from columns. All columns must have the same length
// and distinct names.
func New(columns ...Column) (*Table, error) {
	t := &Table{columns: make([]Column, 0, len(columns))}
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if i > 0 && c.Len() != columns[0].Len() {
			return nil, fmt.Errorf("column %q has %d values, want %d", c.Name, c.Len(), columns[0].Len())
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		t.columns = append(t.columns, c.clone())
	}
	return t, nil
}

// MustNew is like New but panics on invalid columns.
func MustNew(columns ...Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// IsEmpty reports whether the table has no columns or no rows.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.columns) == 0 || t.columns[0].Len() == 0
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if t == nil || len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.columns)
}

// Shape returns rows and columns.
func (t *Table) Shape() (int, int) {
	return t.NumRows(), t.NumCols()
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns a copy of the table's columns.
func (t *Table) Columns() []Column {
	if t == nil {
		return nil
	}
	out := make([]Column, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.clone()
	}
	return out
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) (Column, bool) {
	if i := t.columnIndex(name); i >= 0 {
		return t.columns[i].clone(), true
	}
	return Column{}, false
}

func (t *Table) columnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Index returns the positional row labels 0..n-1.
func (t *Table) Index() []int {
	idx := make([]int, t.NumRows())
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Row returns the values of row i keyed by column name.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, t.NumCols())
	for _, c := range t.columns {
		row[c.Name] = c.Values[i]
	}
	return row
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return Empty()
	}
	return &Table{columns: t.Columns()}
}

// Take returns a new table holding the given rows in the given order.
// Out-of-range indices are skipped.
func (t *Table) Take(rows []int) *Table {
	if t == nil {
		return Empty()
	}
	cols := make([]Column, len(t.columns))
	n := t.NumRows()
	for j, c := range t.columns {
		values := make([]any, 0, len(rows))
		for _, i := range rows {
			if i >= 0 && i < n {
				values = append(values, c.Values[i])
			}
		}
		cols[j] = Column{Name: c.Name, Kind: c.Kind, Values: values}
	}
	return &Table{columns: cols}
}

// Records returns the rows as JSON-friendly maps. Timestamps are rendered
// as RFC 3339 strings in UTC. Maps do not keep column order; encoders
// that should use OrderedRecords.
func (t *Table) Records() []map[string]any {
	rows := make([]map[string]any, t.NumRows())
	for i := range rows {
		row := make(map[string]any, t.NumCols())
		for _, c := range t.columns {
			row[c.Name] = recordValue(c.Values[i])
		}
		rows[i] = row
	}
	return rows
}

// OrderedRecords returns the rows as Records, which encode to JSON
// objects and YAML mappings with keys in column order.
func (t *Table) OrderedRecords() []Record {
	names := t.ColumnNames()
	rows := make([]Record, t.NumRows())
	for i := range rows {
		values := make([]any, len(t.columns))
		for j, c := range t.columns {
			values[j] = recordValue(c.Values[i])
		}
		rows[i] = Record{names: names, values: values}
	}
	return rows
}

func recordValue(v any) any {
	if ts, ok := v.(time.Time); ok {
		return ts.UTC().Format(time.RFC3339Nano)
	}
	return v
}

// Strings returns the header and every cell formatted as a string.
// Absent values become empty strings.
func (t *Table) Strings() ([]string, [][]string) {
	header := t.ColumnNames()
	rows := make([][]string, t.NumRows())
	for i := range rows {
		row := make([]string, len(t.columns))
		for j, c := range t.columns {
			row[j] = FormatValue(c.Values[i])
		}
		rows[i] = row
	}
	return header, rows
}

// FormatValue renders a cell value as text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

// Mean returns the arithmetic mean of the non-absent values of a number
// column. It reports false when the column is missing, not numeric, or
// holds no values.
func (t *Table) Mean(name string) (float64, bool) {
	i := t.columnIndex(name)
	if i < 0 || t.columns[i].Kind != KindNumber {
		return 0, false
	}
	var sum float64
	var n int
	for _, v := range t.columns[i].Values {
		if f, ok := v.(float64); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
