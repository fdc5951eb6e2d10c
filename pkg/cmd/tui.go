package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskboard/pkg/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive dashboard",
	Long: `Opens the dashboard in the terminal. Space toggles a filter value, tab moves
between the filters and the table, r refreshes and q quits. With a file source
the view reloads when the export changes.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.New(a.pipeline, a.cache, currentUser())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if a.watchDir != "" {
		go watchExports(ctx, a.watchDir, a.pipeline.Target().TableName, func() { p.Send(tui.ReloadMsg{}) })
	}

	_, err = p.Run()
	return err
}
