package table

import (
	"strconv"
	"strings"
)

// NormalizeName trims surrounding whitespace, lowercases, and replaces
// interior spaces with underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// CleanColumnNames returns a copy of t with every column name normalized.
// Names that collide after normalization get a numeric suffix in column
// order ("id", "id_1", ...), so no column is lost. An empty table is
// returned unchanged.
func (p *Processor) CleanColumnNames(t *Table) *Table {
	if t.IsEmpty() {
		p.log.Warn("input table is empty, skipping column name cleaning")
		return t
	}

	out := t.Clone()
	seen := make(map[string]struct{}, len(out.columns))
	for _, c := range out.columns {
		seen[NormalizeName(c.Name)] = struct{}{}
	}

	taken := make(map[string]struct{}, len(out.columns))
	for i := range out.columns {
		original := out.columns[i].Name
		name := NormalizeName(original)
		if _, dup := taken[name]; dup {
			base := name
			for n := 1; ; n++ {
				name = base + "_" + strconv.Itoa(n)
				_, used := taken[name]
				_, natural := seen[name]
				if !used && !natural {
					break
				}
			}
			p.log.Warn("column name collides after cleaning, renamed",
				"column", original,
				"cleaned", base,
				"renamed", name,
			)
		}
		taken[name] = struct{}{}
		out.columns[i].Name = name
	}

	p.log.Info("cleaned column names", "columns", out.ColumnNames())
	return out
}
