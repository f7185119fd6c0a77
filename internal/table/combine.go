package table

// Append returns a new table holding the rows of base followed by the
// rows of addition, with a fresh 0..n-1 index.
//
// If base is empty a copy of addition is returned, and if addition is
// empty a copy of base is returned. Columns are matched by name; the
// result carries the union of both column sets and fills cells missing
// on either side with absent values. A column whose kinds differ between
// the inputs becomes text.
func (p *Processor) Append(base, addition *Table) *Table {
	if base.IsEmpty() {
		return addition.Clone()
	}
	if addition.IsEmpty() {
		return base.Clone()
	}

	baseRows, addRows := base.NumRows(), addition.NumRows()
	names := base.ColumnNames()
	var missingInBase, missingInAddition []string
	for _, c := range addition.columns {
		if base.columnIndex(c.Name) < 0 {
			names = append(names, c.Name)
			missingInBase = append(missingInBase, c.Name)
		}
	}
	for _, c := range base.columns {
		if addition.columnIndex(c.Name) < 0 {
			missingInAddition = append(missingInAddition, c.Name)
		}
	}
	if len(missingInBase) > 0 || len(missingInAddition) > 0 {
		p.log.Warn("appending tables with different columns, filling gaps with absent values",
			"missing_in_base", missingInBase,
			"missing_in_addition", missingInAddition,
		)
	}

	out := &Table{columns: make([]Column, 0, len(names))}
	for _, name := range names {
		top, topOK := base.Column(name)
		bottom, bottomOK := addition.Column(name)
		if !topOK {
			top = Column{Name: name, Kind: bottom.Kind, Values: make([]any, baseRows)}
		}
		if !bottomOK {
			bottom = Column{Name: name, Kind: top.Kind, Values: make([]any, addRows)}
		}

		kind := top.Kind
		if top.Kind != bottom.Kind {
			kind = KindText
			p.log.Warn("column kinds differ, converting to text",
				"column", name,
				"base_kind", top.Kind,
				"addition_kind", bottom.Kind,
			)
			top = asText(top)
			bottom = asText(bottom)
		}

		values := make([]any, 0, baseRows+addRows)
		values = append(values, top.Values...)
		values = append(values, bottom.Values...)
		out.columns = append(out.columns, Column{Name: name, Kind: kind, Values: values})
	}

	p.log.Info("appended rows",
		"base_rows", baseRows,
		"added_rows", addRows,
		"rows", out.NumRows(),
	)
	return out
}

func asText(c Column) Column {
	values := make([]any, len(c.Values))
	for i, v := range c.Values {
		if v != nil {
			values[i] = FormatValue(v)
		}
	}
	return Column{Name: c.Name, Kind: KindText, Values: values}
}
