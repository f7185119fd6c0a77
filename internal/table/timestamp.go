package table

import "time"

// ProcessingTimestampColumn is the column added by AddProcessingTimestamp.
const ProcessingTimestampColumn = "processing_ts_utc"

// AddProcessingTimestamp returns a copy of t with a processing_ts_utc
// column holding the same UTC instant in every row. The instant is taken
// once per call. An existing processing_ts_utc column is overwritten in
// place. An empty table is returned unchanged.
func (p *Processor) AddProcessingTimestamp(t *Table) *Table {
	if t.IsEmpty() {
		p.log.Warn("input table is empty, skipping timestamp addition")
		return t
	}

	ts := p.now().UTC()
	values := make([]any, t.NumRows())
	for i := range values {
		values[i] = ts
	}
	col := Column{Name: ProcessingTimestampColumn, Kind: KindTimestamp, Values: values}

	out := t.Clone()
	if i := out.columnIndex(ProcessingTimestampColumn); i >= 0 {
		out.columns[i] = col
	} else {
		out.columns = append(out.columns, col)
	}

	p.log.Info("added processing timestamp column",
		"column", ProcessingTimestampColumn,
		"ts", ts.Format(time.RFC3339Nano),
	)
	return out
}
