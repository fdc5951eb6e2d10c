// Package cmd implements the taskboard CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/logging"
	"github.com/harrisonrobin/taskboard/pkg/output"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagConfig    string
	flagJSON      bool
	flagCompact   bool
	flagNoColor   bool
	flagVerbose   bool
	flagWorksheet string
)

// Loaded by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Task tracking dashboard for a Google Sheets tab",
	Long: `taskboard reads the "Tasks" tab of a Google Sheet and shows status counters,
Owner / Project / Status filters and the tasks ordered by urgency.

Run taskboard with no command to print the dashboard once, or use
"taskboard tui" for the interactive view and "taskboard serve" for the web page.`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	RunE:              runShow,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/taskboard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagWorksheet, "worksheet", "", "worksheet (tab) name, overrides config")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	addShowFlags(rootCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if flagNoColor || os.Getenv("NO_COLOR") != "" || !isTerminal(cmd.OutOrStdout()) {
		output.DisableColor()
	}

	c, err := config.Load(flagConfig)
	if err != nil {
		return newExitError(CodeInvalidConfig, err)
	}
	if flagWorksheet != "" {
		c.Sheets.WorksheetName = flagWorksheet
	}
	cfg = c

	level := cfg.Logging.Level
	if flagVerbose {
		level = "debug"
	}
	l, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return newExitError(CodeInvalidConfig, err)
	}
	logger = l
	zap.ReplaceGlobals(logger)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Execute runs the root command and exits with the error's code.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err == nil {
		return
	}
	os.Exit(report(os.Stdout, os.Stderr, err))
}

// report prints err as JSON to stdout in JSON mode, or as text to stderr,
// and returns the exit code.
func report(stdout, stderr io.Writer, err error) int {
	jsonMode := flagJSON || os.Getenv("TASKBOARD_OUTPUT") == "json"

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: CodeInternal, Message: err.Error(), Err: err}
	}

	if jsonMode {
		output.JSONError(stdout, exitErr.Code, exitErr.Message, exitErr.Hint, exitErr.Details)
		return exitErr.ExitCode()
	}
	fmt.Fprintln(stderr, "Error:", exitErr.Message)
	if exitErr.Hint != "" {
		fmt.Fprintln(stderr, exitErr.Hint)
	}
	return exitErr.ExitCode()
}
