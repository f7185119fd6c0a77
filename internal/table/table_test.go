package table

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func newTestProcessor(t *testing.T, opts ...ProcessorOption) (*Processor, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewProcessor(log, opts...), buf
}

func scenarioTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromRecords(
		[]string{"ID", "User Name", " Engagement Score "},
		[][]string{
			{"1", "Alice Smith", "85.5"},
			{"2", " Bob Jones ", "92.1"},
			{"3", "charlie     ", "78.0"},
		},
	)
	assert.NilError(t, err)
	return tbl
}

func TestFromRecords_InfersKinds(t *testing.T) {
	tbl := scenarioTable(t)

	rows, cols := tbl.Shape()
	assert.Equal(t, rows, 3)
	assert.Equal(t, cols, 3)

	id, ok := tbl.Column("ID")
	assert.Assert(t, ok)
	assert.Equal(t, id.Kind, KindNumber)
	assert.DeepEqual(t, id.Values, []any{1.0, 2.0, 3.0})

	name, ok := tbl.Column("User Name")
	assert.Assert(t, ok)
	assert.Equal(t, name.Kind, KindText)
	assert.DeepEqual(t, name.Values, []any{"Alice Smith", " Bob Jones ", "charlie     "})
}

func TestFromRecords_NullTokens(t *testing.T) {
	tbl, err := FromRecords(
		[]string{"score", "note"},
		[][]string{{"1.5", "x"}, {"", "NA"}, {"NaN", "y"}},
	)
	assert.NilError(t, err)

	score, _ := tbl.Column("score")
	assert.Equal(t, score.Kind, KindNumber)
	assert.DeepEqual(t, score.Values, []any{1.5, nil, nil})

	note, _ := tbl.Column("note")
	assert.Equal(t, note.Kind, KindText)
	assert.DeepEqual(t, note.Values, []any{"x", nil, "y"})
}

func TestFromRecords_AllAbsentColumnIsText(t *testing.T) {
	tbl, err := FromRecords([]string{"a"}, [][]string{{""}, {""}})
	assert.NilError(t, err)
	a, _ := tbl.Column("a")
	assert.Equal(t, a.Kind, KindText)
}

func TestFromRecords_RaggedRow(t *testing.T) {
	_, err := FromRecords([]string{"a", "b"}, [][]string{{"1", "2"}, {"3"}})
	assert.ErrorContains(t, err, "row 2 has 1 fields")
}

func TestFromRecords_HeaderOnlyIsEmpty(t *testing.T) {
	tbl, err := FromRecords([]string{"a", "b"}, nil)
	assert.NilError(t, err)
	assert.Assert(t, tbl.IsEmpty())
	assert.Equal(t, tbl.NumCols(), 2)
}

func TestNew_LengthMismatch(t *testing.T) {
	_, err := New(
		Column{Name: "a", Kind: KindNumber, Values: []any{1.0, 2.0}},
		Column{Name: "b", Kind: KindNumber, Values: []any{1.0}},
	)
	assert.ErrorContains(t, err, `column "b" has 1 values`)
}

func TestEmpty(t *testing.T) {
	var nilTable *Table
	assert.Assert(t, Empty().IsEmpty())
	assert.Assert(t, nilTable.IsEmpty())
	assert.Equal(t, Empty().NumRows(), 0)
	assert.Equal(t, Empty().NumCols(), 0)
	assert.Assert(t, nilTable.Clone().IsEmpty())
}

func TestCleanColumnNames_Scenario(t *testing.T) {
	p, _ := newTestProcessor(t)
	in := scenarioTable(t)

	out := p.CleanColumnNames(in)

	assert.DeepEqual(t, out.ColumnNames(), []string{"id", "user_name", "engagement_score"})
	assert.Equal(t, out.NumRows(), 3)
	name, _ := out.Column("user_name")
	assert.DeepEqual(t, name.Values, []any{"Alice Smith", " Bob Jones ", "charlie     "})
	score, _ := out.Column("engagement_score")
	assert.DeepEqual(t, score.Values, []any{85.5, 92.1, 78.0})

	// input keeps its original names
	assert.DeepEqual(t, in.ColumnNames(), []string{"ID", "User Name", " Engagement Score "})
}

func TestCleanColumnNames_Properties(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"mixed case", []string{"First Name", "LAST NAME", "Age"}},
		{"padding", []string{"  a  ", "\tb c\t", " D "}},
		{"already clean", []string{"x", "y_z"}},
		{"many spaces", []string{"a  b   c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := make([]string, len(tt.header))
			for i := range row {
				row[i] = "v"
			}
			in, err := FromRecords(tt.header, [][]string{row, row})
			assert.NilError(t, err)

			p, _ := newTestProcessor(t)
			out := p.CleanColumnNames(in)

			assert.Equal(t, out.NumRows(), in.NumRows())
			assert.Equal(t, out.NumCols(), in.NumCols())
			for _, name := range out.ColumnNames() {
				assert.Equal(t, name, strings.TrimSpace(name))
				assert.Equal(t, name, strings.ToLower(name))
				assert.Assert(t, !strings.Contains(name, " "), "name %q contains a space", name)
			}
		})
	}
}

func TestCleanColumnNames_EmptyPassThrough(t *testing.T) {
	p, logs := newTestProcessor(t)
	in := Empty()

	out := p.CleanColumnNames(in)

	assert.Assert(t, out == in)
	assert.Assert(t, is.Contains(logs.String(), "level=WARN"))
}

func TestCleanColumnNames_Collisions(t *testing.T) {
	p, logs := newTestProcessor(t)
	in, err := FromRecords(
		[]string{"ID", "id ", "Id", "id_1"},
		[][]string{{"1", "2", "3", "4"}},
	)
	assert.NilError(t, err)

	out := p.CleanColumnNames(in)

	assert.DeepEqual(t, out.ColumnNames(), []string{"id", "id_2", "id_3", "id_1"})
	assert.Equal(t, out.NumCols(), 4)
	assert.Assert(t, is.Contains(logs.String(), "renamed"))
}

func TestAddProcessingTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	fixed := time.Date(2026, 3, 1, 14, 30, 0, 0, loc)
	p, logs := newTestProcessor(t, WithClock(func() time.Time { return fixed }))
	in := p.CleanColumnNames(scenarioTable(t))

	out := p.AddProcessingTimestamp(in)

	assert.Equal(t, out.NumCols(), in.NumCols()+1)
	assert.Equal(t, out.NumRows(), in.NumRows())
	names := out.ColumnNames()
	assert.Equal(t, names[len(names)-1], ProcessingTimestampColumn)

	col, ok := out.Column(ProcessingTimestampColumn)
	assert.Assert(t, ok)
	assert.Equal(t, col.Kind, KindTimestamp)
	for _, v := range col.Values {
		ts, ok := v.(time.Time)
		assert.Assert(t, ok)
		assert.Equal(t, ts.Location(), time.UTC)
		assert.Assert(t, ts.Equal(fixed))
	}
	assert.Equal(t, in.NumCols(), 3)
	assert.Assert(t, is.Contains(logs.String(), "added processing timestamp column"))

	rec := out.Records()[0][ProcessingTimestampColumn].(string)
	parsed, err := time.Parse(time.RFC3339Nano, rec)
	assert.NilError(t, err)
	assert.Assert(t, parsed.Equal(fixed))
}

func TestAddProcessingTimestamp_SamplesClockOnce(t *testing.T) {
	calls := 0
	p, _ := newTestProcessor(t, WithClock(func() time.Time {
		calls++
		return time.Unix(int64(calls), 0)
	}))

	out := p.AddProcessingTimestamp(scenarioTable(t))

	assert.Equal(t, calls, 1)
	col, _ := out.Column(ProcessingTimestampColumn)
	for _, v := range col.Values {
		assert.Assert(t, v.(time.Time).Equal(time.Unix(1, 0)))
	}
}

func TestAddProcessingTimestamp_ReplacesExisting(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	now := first
	p, _ := newTestProcessor(t, WithClock(func() time.Time { return now }))

	once := p.AddProcessingTimestamp(scenarioTable(t))
	now = second
	twice := p.AddProcessingTimestamp(once)

	assert.Equal(t, twice.NumCols(), once.NumCols())
	col, _ := twice.Column(ProcessingTimestampColumn)
	assert.Assert(t, col.Values[0].(time.Time).Equal(second))
}

func TestAddProcessingTimestamp_EmptyPassThrough(t *testing.T) {
	p, logs := newTestProcessor(t)
	in := Empty()

	out := p.AddProcessingTimestamp(in)

	assert.Assert(t, out == in)
	assert.Assert(t, is.Contains(logs.String(), "skipping timestamp addition"))
}

func newRow(t *testing.T) *Table {
	t.Helper()
	return MustNew(
		Column{Name: "id", Kind: KindNumber, Values: []any{4.0}},
		Column{Name: "user_name", Kind: KindText, Values: []any{"David Lee"}},
		Column{Name: "engagement_score", Kind: KindNumber, Values: []any{88.8}},
	)
}

func TestAppend_Scenario(t *testing.T) {
	p, _ := newTestProcessor(t)
	processed := p.AddProcessingTimestamp(p.CleanColumnNames(scenarioTable(t)))

	combined := p.Append(processed, newRow(t))

	assert.Equal(t, combined.NumRows(), 4)
	assert.DeepEqual(t, combined.Index(), []int{0, 1, 2, 3})
	last := combined.Row(3)
	assert.Equal(t, last["id"], 4.0)
	assert.Equal(t, last["user_name"], "David Lee")
	assert.Equal(t, last["engagement_score"], 88.8)
	assert.Assert(t, last[ProcessingTimestampColumn] == nil)

	ts, _ := combined.Column(ProcessingTimestampColumn)
	assert.Equal(t, ts.Kind, KindTimestamp)
}

func TestAppend_RowCount(t *testing.T) {
	p, _ := newTestProcessor(t)
	a := scenarioTable(t)
	b := scenarioTable(t)

	out := p.Append(a, b)

	assert.Equal(t, out.NumRows(), a.NumRows()+b.NumRows())
	assert.Equal(t, a.NumRows(), 3)
}

func TestAppend_EmptyGuards(t *testing.T) {
	p, _ := newTestProcessor(t)
	a := scenarioTable(t)
	b := newRow(t)

	assert.DeepEqual(t, p.Append(Empty(), b).Records(), b.Records())
	assert.DeepEqual(t, p.Append(a, Empty()).Records(), a.Records())
	assert.Assert(t, p.Append(Empty(), Empty()).IsEmpty())

	// copies, not aliases
	assert.Assert(t, p.Append(Empty(), b) != b)
	assert.Assert(t, p.Append(a, Empty()) != a)

	headerOnly, err := FromRecords([]string{"x"}, nil)
	assert.NilError(t, err)
	assert.DeepEqual(t, p.Append(headerOnly, b).ColumnNames(), b.ColumnNames())
}

func TestAppend_MismatchedColumns(t *testing.T) {
	p, logs := newTestProcessor(t)
	a := MustNew(
		Column{Name: "id", Kind: KindNumber, Values: []any{1.0}},
		Column{Name: "only_a", Kind: KindText, Values: []any{"a"}},
	)
	b := MustNew(
		Column{Name: "only_b", Kind: KindText, Values: []any{"b"}},
		Column{Name: "id", Kind: KindNumber, Values: []any{2.0}},
	)

	out := p.Append(a, b)

	assert.DeepEqual(t, out.ColumnNames(), []string{"id", "only_a", "only_b"})
	onlyA, _ := out.Column("only_a")
	assert.DeepEqual(t, onlyA.Values, []any{"a", nil})
	onlyB, _ := out.Column("only_b")
	assert.DeepEqual(t, onlyB.Values, []any{nil, "b"})
	assert.Assert(t, is.Contains(logs.String(), "missing_in_base"))
}

func TestAppend_KindConflictBecomesText(t *testing.T) {
	p, _ := newTestProcessor(t)
	a := MustNew(Column{Name: "v", Kind: KindNumber, Values: []any{1.5, nil}})
	b := MustNew(Column{Name: "v", Kind: KindText, Values: []any{"x"}})

	out := p.Append(a, b)

	v, _ := out.Column("v")
	assert.Equal(t, v.Kind, KindText)
	assert.DeepEqual(t, v.Values, []any{"1.5", nil, "x"})
}

func TestMean(t *testing.T) {
	tbl := scenarioTable(t)

	mean, ok := tbl.Mean(" Engagement Score ")
	assert.Assert(t, ok)
	assert.Assert(t, mean > 85.19 && mean < 85.21, "mean = %v", mean)

	_, ok = tbl.Mean("User Name")
	assert.Assert(t, !ok)
	_, ok = tbl.Mean("missing")
	assert.Assert(t, !ok)
}

func TestStrings(t *testing.T) {
	tbl := MustNew(
		Column{Name: "n", Kind: KindNumber, Values: []any{78.0, nil}},
		Column{Name: "ts", Kind: KindTimestamp, Values: []any{time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), nil}},
	)

	header, rows := tbl.Strings()

	assert.DeepEqual(t, header, []string{"n", "ts"})
	assert.DeepEqual(t, rows, [][]string{{"78", "2026-01-02T03:04:05Z"}, {"", ""}})
}

func TestTake(t *testing.T) {
	src := MustNew(
		Column{Name: "id", Kind: KindNumber, Values: []any{1.0, 2.0, 3.0}},
		Column{Name: "name", Kind: KindText, Values: []any{"a", nil, "c"}},
	)

	got := src.Take([]int{2, 0, 9})
	assert.Equal(t, got.NumRows(), 2)
	assert.DeepEqual(t, got.Row(0), map[string]any{"id": 3.0, "name": "c"})
	assert.DeepEqual(t, got.Row(1), map[string]any{"id": 1.0, "name": "a"})
	assert.Equal(t, src.NumRows(), 3)

	col, ok := got.Column("id")
	assert.Assert(t, ok)
	assert.Equal(t, col.Kind, KindNumber)
}

func TestFromRecords_DuplicateHeader(t *testing.T) {
	var renamed []string
	tbl, err := FromRecords(
		[]string{"a", "a", "a.1", "b", "a"},
		[][]string{{"1", "2", "x", "y", "3"}},
		OnRename(func(original, name string) { renamed = append(renamed, original+"->"+name) }),
	)
	assert.NilError(t, err)

	assert.DeepEqual(t, tbl.ColumnNames(), []string{"a", "a.2", "a.1", "b", "a.3"})
	assert.DeepEqual(t, renamed, []string{"a->a.2", "a->a.3"})
	assert.DeepEqual(t, tbl.Row(0), map[string]any{"a": 1.0, "a.2": 2.0, "a.1": "x", "b": "y", "a.3": 3.0})
}

func TestUniqueNames(t *testing.T) {
	assert.DeepEqual(t, UniqueNames([]string{"a", "a"}), []string{"a", "a.1"})
	assert.DeepEqual(t, UniqueNames([]string{"", ""}), []string{"", ".1"})
	assert.DeepEqual(t, UniqueNames([]string{"x", "y"}), []string{"x", "y"})
}

func TestNew_DuplicateName(t *testing.T) {
	_, err := New(
		Column{Name: "a", Kind: KindNumber, Values: []any{1.0}},
		Column{Name: "a", Kind: KindNumber, Values: []any{2.0}},
	)
	assert.ErrorContains(t, err, `duplicate column name "a"`)
}

func TestAppend_DuplicateHeaderKeepsValues(t *testing.T) {
	p, _ := newTestProcessor(t)
	base, err := FromRecords([]string{"a", "a"}, [][]string{{"1", "2"}})
	assert.NilError(t, err)
	extra, err := FromRecords([]string{"a", "a"}, [][]string{{"3", "4"}})
	assert.NilError(t, err)

	out := p.Append(p.CleanColumnNames(base), p.CleanColumnNames(extra))

	assert.DeepEqual(t, out.ColumnNames(), []string{"a", "a.1"})
	first, _ := out.Column("a")
	assert.DeepEqual(t, first.Values, []any{1.0, 3.0})
	second, _ := out.Column("a.1")
	assert.DeepEqual(t, second.Values, []any{2.0, 4.0})

	data, err := json.Marshal(out.OrderedRecords())
	assert.NilError(t, err)
	assert.Equal(t, string(data), `[{"a":1,"a.1":2},{"a":3,"a.1":4}]`)
}

func TestFromRecords_NonFiniteIsText(t *testing.T) {
	tbl, err := FromRecords(
		[]string{"v", "w"},
		[][]string{{"1.5", "inf"}, {"-Infinity", "2"}, {"", "+Inf"}},
	)
	assert.NilError(t, err)

	v, _ := tbl.Column("v")
	assert.Equal(t, v.Kind, KindText)
	assert.DeepEqual(t, v.Values, []any{"1.5", "-Infinity", nil})
	w, _ := tbl.Column("w")
	assert.Equal(t, w.Kind, KindText)

	_, err = json.Marshal(tbl.OrderedRecords())
	assert.NilError(t, err)
	_, err = json.Marshal(tbl.Records())
	assert.NilError(t, err)
}
