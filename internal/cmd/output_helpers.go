package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvprep/internal/outfmt"
	"github.com/salmonumbrella/csvprep/internal/output"
	"github.com/salmonumbrella/csvprep/internal/table"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

func printStructured(data interface{}) error {
	ctx := currentContext()
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

func currentContext() context.Context {
	if rootCmd != nil && rootCmd.Context() != nil {
		return rootCmd.Context()
	}
	return context.Background()
}

func newProcessor() *table.Processor {
	return table.NewProcessor(logger, table.WithClock(nowFunc))
}

// writeFlags are shared by the commands that can persist their result.
type writeFlags struct {
	path   string
	format string
}

func (w *writeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.path, "write", "", "Write the result to this file instead of printing it")
	cmd.Flags().StringVar(&w.format, "write-format", "", "Format for --write (csv|json|ndjson|yaml|table; default from extension)")
}

// emitTable prints t, or writes it to --write and prints a summary.
func emitTable(cmd *cobra.Command, t *table.Table, w writeFlags) error {
	ctx := cmd.Context()
	if strings.TrimSpace(w.path) == "" {
		return output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat()).Print(ctx, t)
	}

	var format outfmt.Format
	if strings.TrimSpace(w.format) != "" {
		parsed, err := outfmt.ParseFormat(w.format)
		if err != nil {
			return err
		}
		format = parsed
	}
	if err := outfmt.WriteFile(w.path, format, t); err != nil {
		return err
	}
	rows, cols := t.Shape()
	logger.Info("wrote table", "path", w.path, "rows", rows, "columns", cols)

	if output.QuietFromContext(ctx) && !structuredOutputRequested() {
		return nil
	}
	summary := map[string]interface{}{
		"path":    w.path,
		"rows":    rows,
		"columns": t.ColumnNames(),
	}
	if structuredOutputRequested() {
		return output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat()).Print(ctx, summary)
	}
	_, err := fmt.Fprintf(stdoutFromContext(ctx), "Wrote %d rows x %d columns to %s\n", rows, cols, w.path)
	return err
}
