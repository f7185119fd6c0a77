package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/salmonumbrella/csvprep/internal/table"
)

// Opener returns the raw CSV bytes a locator points at.
type Opener interface {
	Open(ctx context.Context, loc Locator) (io.ReadCloser, error)
}

// Source produces a table for a locator.
type Source interface {
	Table(ctx context.Context, loc Locator) (*table.Table, error)
}

// CSVSource decodes the document returned by an Opener.
type CSVSource struct {
	Opener Opener
}

// Table opens the resource and decodes it as CSV.
func (s CSVSource) Table(ctx context.Context, loc Locator) (*table.Table, error) {
	rc, err := s.Opener.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadCSV(rc, warnRenamed(ctx, loc))
}

type loggerKey struct{}

// WithLogger returns a context whose loads log to log instead of the
// Loader's own logger.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// loggerFrom returns the logger stored by WithLogger, or fallback.
func loggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	if fallback == nil {
		return slog.New(slog.DiscardHandler)
	}
	return fallback
}

// warnRenamed logs every header field renamed to keep names unique.
func warnRenamed(ctx context.Context, loc Locator) table.RecordOption {
	log := loggerFrom(ctx, nil)
	return table.OnRename(func(original, renamed string) {
		log.Warn("duplicate column name, renamed",
			"locator", loc.String(),
			"column", original,
			"renamed", renamed,
		)
	})
}

// Result is the outcome of a load. On failure Table is an empty table
// and Err holds the reason.
type Result struct {
	Locator string
	Table   *table.Table
	Err     error
}

// OK reports whether the load succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Loader resolves locators to tables.
type Loader struct {
	log     *slog.Logger
	sources map[Scheme]Source
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSource registers the source used for a scheme.
func WithSource(scheme Scheme, src Source) LoaderOption {
	return func(l *Loader) {
		l.sources[scheme] = src
	}
}

// WithOpener registers a CSV opener for a scheme.
func WithOpener(scheme Scheme, o Opener) LoaderOption {
	return WithSource(scheme, CSVSource{Opener: o})
}

// NewLoader creates a Loader with the default sources: local files,
// stdin, HTTP(S), S3 with the environment credential chain, and MySQL.
// A nil logger discards records.
func NewLoader(log *slog.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	httpClient := NewHTTPClient()
	l := &Loader{
		log: log,
		sources: map[Scheme]Source{
			SchemeFile:  CSVSource{Opener: FileOpener{}},
			SchemeStdin: CSVSource{Opener: StdinOpener{}},
			SchemeHTTP:  CSVSource{Opener: httpClient},
			SchemeHTTPS: CSVSource{Opener: httpClient},
			SchemeS3:    CSVSource{Opener: NewObjectStore(ObjectStoreConfig{})},
			SchemeMySQL: NewMySQLSource(0),
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the table at locator. It never returns an error: a failed
// load yields an empty table and the reason in Result.Err, and the
// failure is logged.
//
// A logger attached to ctx with WithLogger takes the place of the
// Loader's own for this call and is handed on to the source.
func (l *Loader) Load(ctx context.Context, locator string) Result {
	log := loggerFrom(ctx, l.log)
	ctx = WithLogger(ctx, log)

	loc, err := ParseLocator(locator)
	if err != nil {
		return fail(log, locator, err)
	}
	name := loc.String()
	log.Info("loading table", "locator", name, "scheme", string(loc.Scheme))

	src, ok := l.sources[loc.Scheme]
	if !ok {
		return fail(log, name, fmt.Errorf("no source registered for scheme %q", loc.Scheme))
	}

	t, err := src.Table(ctx, loc)
	if err != nil {
		return fail(log, name, err)
	}

	rows, cols := t.Shape()
	log.Info("loaded table", "locator", name, "rows", rows, "columns", cols)
	return Result{Locator: name, Table: t}
}

func fail(log *slog.Logger, locator string, err error) Result {
	log.Error("failed to load table", "locator", locator, "error", err)
	return Result{
		Locator: locator,
		Table:   table.Empty(),
		Err:     &LoadError{Locator: locator, Err: err},
	}
}
