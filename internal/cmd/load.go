package cmd

import (
	"github.com/spf13/cobra"
)

var loadWrite writeFlags

var loadCmd = &cobra.Command{
	Use:   "load <locator>",
	Short: "Load a table and print it",
	Long: `Load a table from a locator and print it unchanged.

Cells are typed on load: a column whose present values all parse as
numbers is numeric, anything else is text. Empty cells and tokens such
as NA, N/A, NaN and null are absent values.

Examples:
  csvprep load data.csv
  csvprep load https://example.com/export.csv -o json
  csvprep load s3://bucket/raw/users.csv --result-limit 10
  cat data.csv | csvprep load -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		warnInteractiveStdin(cmd, args...)
		res := loader.Load(cmd.Context(), args[0])
		if !res.OK() {
			return res.Err
		}
		return emitTable(cmd, res.Table, loadWrite)
	},
}

var cleanWrite writeFlags

var cleanCmd = &cobra.Command{
	Use:   "clean <locator>",
	Short: "Load a table and normalize its column names",
	Long: `Load a table and rewrite each column name: surrounding whitespace is
trimmed, letters are lowercased, and spaces become underscores. Names
that collide after cleaning get a numeric suffix (id, id_1, ...).

Examples:
  csvprep clean data.csv
  csvprep clean data.csv --write cleaned.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		warnInteractiveStdin(cmd, args...)
		res := loader.Load(cmd.Context(), args[0])
		if !res.OK() {
			return res.Err
		}
		return emitTable(cmd, newProcessor().CleanColumnNames(res.Table), cleanWrite)
	},
}

func init() {
	loadWrite.register(loadCmd)
	cleanWrite.register(cleanCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(cleanCmd)
}
