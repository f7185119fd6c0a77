package table

import (
	"fmt"
	"math"
	"strconv"
)

// nullTokens are cell spellings read as absent values.
var nullTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
}

// IsNullToken reports whether a raw cell is read as an absent value.
func IsNullToken(cell string) bool {
	_, ok := nullTokens[cell]
	return ok
}

// RecordOption configures FromRecords.
type RecordOption func(*recordConfig)

type recordConfig struct {
	onRename func(original, renamed string)
}

// OnRename registers fn to be called for every header field renamed to
// keep column names unique.
func OnRename(fn func(original, renamed string)) RecordOption {
	return func(c *recordConfig) {
		c.onRename = fn
	}
}

// UniqueNames returns names with repeated entries renamed: the second
// "a" becomes "a.1", the third "a.2", skipping any generated name that is
// already present. The input is not modified.
func UniqueNames(names []string) []string {
	return uniqueNames(names, nil)
}

func uniqueNames(names []string, onRename func(original, renamed string)) []string {
	present := make(map[string]struct{}, len(names))
	for _, name := range names {
		present[name] = struct{}{}
	}

	out := make([]string, len(names))
	taken := make(map[string]struct{}, len(names))
	counts := make(map[string]int, len(names))
	for i, name := range names {
		renamed := name
		if _, dup := taken[name]; dup {
			for {
				counts[name]++
				renamed = name + "." + strconv.Itoa(counts[name])
				_, used := taken[renamed]
				_, natural := present[renamed]
				if !used && !natural {
					break
				}
			}
			if onRename != nil {
				onRename(name, renamed)
			}
		}
		taken[renamed] = struct{}{}
		out[i] = renamed
	}
	return out
}

// FromRecords builds a table from a header and string rows, inferring a
// kind per column: a column whose present cells all parse as finite
// numbers becomes KindNumber, anything else stays KindText. Every row
// must have exactly one cell per header field. Repeated header fields are
// renamed with UniqueNames.
func FromRecords(header []string, rows [][]string, opts ...RecordOption) (*Table, error) {
	cfg := recordConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(header))
		}
	}

	names := uniqueNames(header, cfg.onRename)
	columns := make([]Column, len(names))
	for j, name := range names {
		columns[j] = inferColumn(name, rows, j)
	}
	return &Table{columns: columns}, nil
}

func inferColumn(name string, rows [][]string, j int) Column {
	numeric := true
	present := 0
	nums := make([]any, len(rows))
	for i, row := range rows {
		cell := row[j]
		if IsNullToken(cell) {
			continue
		}
		present++
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			numeric = false
			break
		}
		nums[i] = f
	}
	if numeric && present > 0 {
		return Column{Name: name, Kind: KindNumber, Values: nums}
	}

	texts := make([]any, len(rows))
	for i, row := range rows {
		if !IsNullToken(row[j]) {
			texts[i] = row[j]
		}
	}
	return Column{Name: name, Kind: KindText, Values: texts}
}
