package cmd

import (
	"github.com/spf13/cobra"
)

var appendWrite writeFlags

var appendCmd = &cobra.Command{
	Use:   "append <base> <addition>",
	Short: "Append the rows of one table onto another",
	Long: `Load two tables and append the rows of <addition> after the rows of
<base>, without cleaning either. Columns are matched by exact name; a
column present in only one table is filled with absent values for the
other table's rows, and a warning is logged.

If <addition> fails to load or is empty, <base> is returned unchanged.

Examples:
  csvprep append base.csv new_rows.csv
  csvprep append base.csv https://example.com/delta.csv --write merged.csv`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		warnInteractiveStdin(cmd, args...)
		base := loader.Load(cmd.Context(), args[0])
		if !base.OK() {
			return base.Err
		}
		addition := loader.Load(cmd.Context(), args[1])
		if !addition.OK() {
			logger.Warn("addition failed to load, keeping base table", "locator", addition.Locator)
		}
		return emitTable(cmd, newProcessor().Append(base.Table, addition.Table), appendWrite)
	},
}

func init() {
	appendWrite.register(appendCmd)
	rootCmd.AddCommand(appendCmd)
}
