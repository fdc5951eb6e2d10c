package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskboard/pkg/filesource"
)

var flagOutDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save the worksheet as a local JSON file",
	Long: `Fetches the configured worksheet, bypassing the cache, and writes it to
<out>/<worksheet>.json. A / or \ in the worksheet name is written as _.
Point file_dir at that directory with source "file" to work offline.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagOutDir, "out", "o", ".", "output directory")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	target := cfg.Target()
	table, err := a.source.FetchRows(ctx, target.SpreadsheetID, target.TableName)
	if err != nil {
		return runError(err)
	}

	path := filepath.Join(flagOutDir, filesource.FileName(target.TableName))
	if err := filesource.WriteRows(path, table); err != nil {
		return newExitError(CodeInternal, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(table.Rows), path)
	return nil
}
