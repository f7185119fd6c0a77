package output

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/salmonumbrella/csvprep/internal/table"
)

// ApplyRowOptions applies --result-sort-by, --result-desc and
// --result-limit to a table. The input is not modified.
func ApplyRowOptions(ctx context.Context, t *table.Table) *table.Table {
	if t.IsEmpty() {
		return t
	}
	limit := LimitFromContext(ctx)
	sortBy, desc := SortFromContext(ctx)
	if limit <= 0 && sortBy == "" {
		return t
	}

	order := t.Index()
	if sortBy != "" {
		if col, ok := findColumn(t, sortBy); ok {
			sort.SliceStable(order, func(i, j int) bool {
				a, b := col.Values[order[i]], col.Values[order[j]]
				// Absent values sort last in both directions.
				if a == nil || b == nil {
					return a != nil && b == nil
				}
				c := compareValues(a, b)
				if desc {
					return c > 0
				}
				return c < 0
			})
		}
	}
	if limit > 0 && limit < len(order) {
		order = order[:limit]
	}
	return t.Take(order)
}

// findColumn matches a column name ignoring case, underscores and dashes.
func findColumn(t *table.Table, name string) (table.Column, bool) {
	if col, ok := t.Column(name); ok {
		return col, true
	}
	norm := normalizeName(name)
	for _, c := range t.Columns() {
		if normalizeName(c.Name) == norm {
			return c, true
		}
	}
	return table.Column{}, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, "_", ""), "-", ""))
}

func compareValues(a, b any) int {
	switch va := a.(type) {
	case float64:
		if vb, ok := b.(float64); ok {
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			}
			return 0
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb)
		}
	}
	return strings.Compare(table.FormatValue(a), table.FormatValue(b))
}
