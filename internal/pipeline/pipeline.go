// Package pipeline wires the loader and the table transforms into the
// load, clean, timestamp, append sequence.
package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/salmonumbrella/csvprep/internal/source"
	"github.com/salmonumbrella/csvprep/internal/table"
)

// Loader loads a table for a locator.
type Loader interface {
	Load(ctx context.Context, locator string) source.Result
}

// Options selects what a run does.
type Options struct {
	// Source is the locator of the table to process.
	Source string
	// Append optionally names a table whose rows are added after cleaning.
	Append string
	// SkipTimestamp disables the processing_ts_utc column.
	SkipTimestamp bool
	// Means lists number columns to average in the report.
	Means []string
}

// Report describes a finished run.
type Report struct {
	RunID        string             `json:"run_id" yaml:"run_id"`
	Source       string             `json:"source" yaml:"source"`
	Rows         int                `json:"rows" yaml:"rows"`
	Columns      []string           `json:"columns" yaml:"columns"`
	AppendedRows int                `json:"appended_rows" yaml:"appended_rows"`
	Means        map[string]float64 `json:"means,omitempty" yaml:"means,omitempty"`
	Table        *table.Table       `json:"-" yaml:"-"`
}

// Runner executes pipeline runs.
type Runner struct {
	log    *slog.Logger
	loader Loader
	opts   []table.ProcessorOption
	newID  func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProcessorOptions passes options to the per-run table.Processor.
func WithProcessorOptions(opts ...table.ProcessorOption) RunnerOption {
	return func(r *Runner) {
		r.opts = append(r.opts, opts...)
	}
}

// WithRunID overrides run id generation.
func WithRunID(fn func() string) RunnerOption {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewRunner creates a Runner. A nil logger discards records.
func NewRunner(log *slog.Logger, loader Loader, opts ...RunnerOption) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := &Runner{
		log:    log,
		loader: loader,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads opts.Source and applies the transforms. Every record logged
// during the run, including the loader's, carries the run id. A failed source load
// returns the loader's *source.LoadError together with a report holding
// the empty table. A failed append load is logged and the cleaned source
// passes through unchanged.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	runID := r.newID()
	log := r.log.With("run_id", runID)
	proc := table.NewProcessor(log, r.opts...)
	ctx = source.WithLogger(ctx, log)

	log.Info("starting run", "source", opts.Source, "append", opts.Append)

	loaded := r.loader.Load(ctx, opts.Source)
	report := &Report{RunID: runID, Source: loaded.Locator}
	if !loaded.OK() {
		log.Error("data loading failed, cannot proceed", "error", loaded.Err)
		report.Table = loaded.Table
		return report, loaded.Err
	}

	t := proc.CleanColumnNames(loaded.Table)
	if !opts.SkipTimestamp {
		t = proc.AddProcessingTimestamp(t)
	}

	if strings.TrimSpace(opts.Append) != "" {
		extra := r.loader.Load(ctx, opts.Append)
		if !extra.OK() {
			log.Warn("append source failed to load, keeping base table", "append", extra.Locator)
		}
		addition := proc.CleanColumnNames(extra.Table)
		before := t.NumRows()
		t = proc.Append(t, addition)
		report.AppendedRows = t.NumRows() - before
	}

	if len(opts.Means) > 0 {
		report.Means = make(map[string]float64, len(opts.Means))
		for _, col := range opts.Means {
			mean, ok := t.Mean(col)
			if !ok {
				log.Warn("cannot average column", "column", col)
				continue
			}
			report.Means[col] = mean
			log.Info("column mean", "column", col, "mean", mean)
		}
	}

	report.Rows = t.NumRows()
	report.Columns = t.ColumnNames()
	report.Table = t
	log.Info("run complete", "rows", report.Rows, "columns", len(report.Columns))
	return report, nil
}
