package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var configSetSheetCmd = &cobra.Command{
	Use:   "set-sheet SPREADSHEET_ID",
	Short: "Set the default spreadsheet and worksheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetSheet,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := configPath()
		if err != nil {
			return newExitError(CodeInternal, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetSheetCmd, configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.GetConfigPath()
}

// runConfigSetSheet edits the file itself, so env overrides are not saved.
func runConfigSetSheet(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	if id == "" {
		return invalidInput("spreadsheet ID must not be empty")
	}

	path, err := configPath()
	if err != nil {
		return newExitError(CodeInternal, err)
	}
	fileCfg, err := config.ReadFile(path)
	if err != nil {
		return newExitError(CodeInvalidConfig, err)
	}
	fileCfg.Sheets.SpreadsheetID = id
	if flagWorksheet != "" {
		fileCfg.Sheets.WorksheetName = flagWorksheet
	}
	if err := config.Save(fileCfg, path); err != nil {
		return newExitError(CodeInternal, err)
	}

	worksheet := fileCfg.Sheets.WorksheetName
	if worksheet == "" {
		worksheet = config.DefaultWorksheet
	}
	if flagJSON {
		return output.JSON(cmd.OutOrStdout(), fileCfg.Sheets)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Default sheet set to: %s (worksheet %q)\n", id, worksheet)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	shown := *cfg
	if shown.Cache.RedisPassword != "" {
		shown.Cache.RedisPassword = "<redacted>"
	}
	if flagJSON {
		return output.JSON(cmd.OutOrStdout(), shown)
	}
	b, err := yaml.Marshal(shown)
	if err != nil {
		return newExitError(CodeInternal, err)
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
