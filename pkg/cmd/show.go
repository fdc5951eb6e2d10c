package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskboard/pkg/output"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

var (
	flagOwner   []string
	flagProject []string
	flagStatus  []string
	flagRefresh bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the dashboard once",
	Long: `Fetches the worksheet and prints the counters and the ordered task table.
Repeat --owner, --project or --status (or pass comma-separated values) to filter;
an omitted filter keeps every value. Quote a value that contains a comma:
--owner '"Smith, John"'.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	addShowFlags(showCmd)
	rootCmd.AddCommand(showCmd)
}

func addShowFlags(c *cobra.Command) {
	c.Flags().StringSliceVar(&flagOwner, "owner", nil, "only tasks with these owners")
	c.Flags().StringSliceVar(&flagProject, "project", nil, "only tasks in these projects")
	c.Flags().StringSliceVar(&flagStatus, "status", nil, "only tasks with these statuses")
	c.Flags().BoolVar(&flagRefresh, "refresh", false, "drop cached data before fetching")
}

func selectionsFromFlags() pipeline.Selections {
	sel := pipeline.Selections{}
	for col, values := range map[string][]string{
		pipeline.ColumnOwner:   flagOwner,
		pipeline.ColumnProject: flagProject,
		pipeline.ColumnStatus:  flagStatus,
	} {
		if len(values) > 0 {
			sel[col] = values
		}
	}
	return sel
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if flagRefresh {
		if err := a.cache.Invalidate(ctx); err != nil {
			logger.Warn("cache invalidation failed", zap.Error(err))
		}
	}

	dash, err := a.pipeline.Run(ctx, pipeline.NewSession(currentUser(), selectionsFromFlags()))
	if err != nil {
		return runError(err)
	}

	w := cmd.OutOrStdout()
	switch output.Detect(flagJSON, flagCompact) {
	case output.FormatJSON:
		return output.JSON(w, dash)
	case output.FormatCompact:
		output.DashboardCompact(w, dash)
	default:
		palette := openColors()
		output.Dashboard(w, dash, palette)
		if palette != nil {
			if err := palette.Save(); err != nil {
				logger.Debug("saving color cache", zap.Error(err))
			}
		}
	}
	return nil
}
