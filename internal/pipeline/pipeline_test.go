package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/salmonumbrella/csvprep/internal/source"
	"github.com/salmonumbrella/csvprep/internal/table"
)

const dummyCSV = "ID,User Name, Engagement Score \n" +
	"1,Alice Smith,85.5\n" +
	"2, Bob Jones ,92.1\n" +
	"3,charlie     ,78.0\n"

const newDataCSV = "id,user_name,engagement_score\n4,David Lee,88.8\n"

var fixedNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewJSONHandler(buf, nil))
	runner := NewRunner(log, source.NewLoader(log),
		WithProcessorOptions(table.WithClock(func() time.Time { return fixedNow })),
		WithRunID(func() string { return "run-1" }),
	)
	return runner, buf
}

func TestRun_FullPipeline(t *testing.T) {
	runner, logs := newTestRunner(t)
	src := writeCSV(t, "dummy_data.csv", dummyCSV)
	extra := writeCSV(t, "new_data.csv", newDataCSV)

	report, err := runner.Run(context.Background(), Options{
		Source: src,
		Append: extra,
		Means:  []string{"engagement_score"},
	})

	assert.NilError(t, err)
	assert.Equal(t, report.RunID, "run-1")
	assert.Equal(t, report.Rows, 4)
	assert.Equal(t, report.AppendedRows, 1)
	assert.DeepEqual(t, report.Columns, []string{"id", "user_name", "engagement_score", table.ProcessingTimestampColumn})
	assert.DeepEqual(t, report.Table.Index(), []int{0, 1, 2, 3})

	last := report.Table.Row(3)
	assert.Equal(t, last["id"], 4.0)
	assert.Equal(t, last["user_name"], "David Lee")
	assert.Equal(t, last["engagement_score"], 88.8)

	first := report.Table.Row(0)
	assert.Assert(t, first[table.ProcessingTimestampColumn].(time.Time).Equal(fixedNow))

	mean := report.Means["engagement_score"]
	assert.Assert(t, mean > 86.09 && mean < 86.11, "mean = %v", mean)
	assertEveryRecordHasRunID(t, logs, "run-1")
}

func assertEveryRecordHasRunID(t *testing.T, logs *bytes.Buffer, runID string) {
	t.Helper()
	var loaderRecords int
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var rec map[string]any
		assert.NilError(t, json.Unmarshal([]byte(line), &rec), line)
		assert.Equal(t, rec["run_id"], runID, "record without run id: %s", line)
		if rec["msg"] == "loading table" || rec["msg"] == "loaded table" {
			loaderRecords++
		}
	}
	assert.Equal(t, loaderRecords, 4)
}

func TestRun_LoaderRecordsCarryRunID(t *testing.T) {
	runner, logs := newTestRunner(t)
	src := writeCSV(t, "dup.csv", "a,a\n1,2\n")

	report, err := runner.Run(context.Background(), Options{
		Source:        src,
		Append:        filepath.Join(t.TempDir(), "missing.csv"),
		SkipTimestamp: true,
	})

	assert.NilError(t, err)
	assert.DeepEqual(t, report.Columns, []string{"a", "a.1"})
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var rec map[string]any
		assert.NilError(t, json.Unmarshal([]byte(line), &rec), line)
		assert.Equal(t, rec["run_id"], "run-1", "record without run id: %s", line)
	}
	assert.Assert(t, is.Contains(logs.String(), "duplicate column name, renamed"))
	assert.Assert(t, is.Contains(logs.String(), "failed to load table"))
}

func TestRun_SkipTimestamp(t *testing.T) {
	runner, _ := newTestRunner(t)
	src := writeCSV(t, "dummy_data.csv", dummyCSV)

	report, err := runner.Run(context.Background(), Options{Source: src, SkipTimestamp: true})

	assert.NilError(t, err)
	assert.DeepEqual(t, report.Columns, []string{"id", "user_name", "engagement_score"})
	assert.Equal(t, report.AppendedRows, 0)
}

func TestRun_SourceLoadFailure(t *testing.T) {
	runner, logs := newTestRunner(t)
	missing := filepath.Join(t.TempDir(), "missing.csv")

	report, err := runner.Run(context.Background(), Options{Source: missing})

	var loadErr *source.LoadError
	assert.Assert(t, errors.As(err, &loadErr))
	assert.Assert(t, report.Table.IsEmpty())
	assert.Assert(t, is.Contains(logs.String(), "data loading failed"))
}

func TestRun_AppendLoadFailureKeepsBase(t *testing.T) {
	runner, logs := newTestRunner(t)
	src := writeCSV(t, "dummy_data.csv", dummyCSV)

	report, err := runner.Run(context.Background(), Options{
		Source: src,
		Append: filepath.Join(t.TempDir(), "missing.csv"),
	})

	assert.NilError(t, err)
	assert.Equal(t, report.Rows, 3)
	assert.Equal(t, report.AppendedRows, 0)
	assert.Assert(t, is.Contains(logs.String(), "append source failed to load"))
}

func TestRun_MeanOfTextColumn(t *testing.T) {
	runner, logs := newTestRunner(t)
	src := writeCSV(t, "dummy_data.csv", dummyCSV)

	report, err := runner.Run(context.Background(), Options{Source: src, Means: []string{"user_name"}})

	assert.NilError(t, err)
	_, ok := report.Means["user_name"]
	assert.Assert(t, !ok)
	assert.Assert(t, is.Contains(logs.String(), "cannot average column"))
}

func TestNewRunner_DefaultRunID(t *testing.T) {
	src := writeCSV(t, "dummy_data.csv", dummyCSV)
	runner := NewRunner(nil, source.NewLoader(nil))

	a, err := runner.Run(context.Background(), Options{Source: src})
	assert.NilError(t, err)
	b, err := runner.Run(context.Background(), Options{Source: src})
	assert.NilError(t, err)

	assert.Assert(t, a.RunID != "")
	assert.Assert(t, a.RunID != b.RunID)
}
