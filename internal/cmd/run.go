package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvprep/internal/pipeline"
	"github.com/salmonumbrella/csvprep/internal/table"
)

var (
	runAppend      string
	runMeans       []string
	runNoTimestamp bool
	runReport      bool
	runWrite       writeFlags
)

var runCmd = &cobra.Command{
	Use:   "run <locator>",
	Short: "Load, clean, timestamp and optionally append",
	Long: `Run the full pipeline on a table:

  1. load the source locator
  2. normalize column names
  3. add a processing_ts_utc column holding one UTC instant
  4. with --append, load a second table, normalize its names and add its rows
  5. with --mean, average the named number columns

A source that fails to load stops the run. An --append source that fails
to load is logged and the cleaned source is kept.

Examples:
  csvprep run data.csv
  csvprep run data.csv --append new_rows.csv --mean score
  csvprep run s3://bucket/in.csv --write out/processed.csv
  csvprep run data.csv --report -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		warnInteractiveStdin(cmd, args[0], runAppend)
		runner := pipeline.NewRunner(logger, loader,
			pipeline.WithProcessorOptions(table.WithClock(nowFunc)))

		report, err := runner.Run(cmd.Context(), pipeline.Options{
			Source:        args[0],
			Append:        runAppend,
			SkipTimestamp: runNoTimestamp,
			Means:         runMeans,
		})
		if err != nil {
			return err
		}

		if runReport {
			return printStructured(report)
		}
		if err := emitTable(cmd, report.Table, runWrite); err != nil {
			return err
		}
		printMeans(cmd, report.Means)
		return nil
	},
}

// printMeans writes requested means to stderr so stdout stays a table.
// Only an explicit --quiet silences them; the quiet default for piped
// structured output does not.
func printMeans(cmd *cobra.Command, means map[string]float64) {
	if len(means) == 0 || (quietFlag && flagChanged(cmd, "quiet")) {
		return
	}
	cols := make([]string, 0, len(means))
	for col := range means {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	w := stderrFromContext(cmd.Context())
	for _, col := range cols {
		fmt.Fprintf(w, "mean(%s) = %s\n", col, table.FormatValue(means[col]))
	}
}

func init() {
	runCmd.Flags().StringVar(&runAppend, "append", "", "Locator of a table whose rows are appended after cleaning")
	runCmd.Flags().StringArrayVar(&runMeans, "mean", nil, "Average this number column (repeatable)")
	runCmd.Flags().BoolVar(&runNoTimestamp, "no-timestamp", false, "Do not add the processing_ts_utc column")
	runCmd.Flags().BoolVar(&runReport, "report", false, "Print the run report instead of the table")
	runWrite.register(runCmd)
	rootCmd.AddCommand(runCmd)
}
