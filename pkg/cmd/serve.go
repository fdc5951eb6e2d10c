package cmd

import (
	"context"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/taskboard/pkg/filesource"
	"github.com/harrisonrobin/taskboard/pkg/server"
	"github.com/harrisonrobin/taskboard/pkg/watcher"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Long: `Serves the dashboard page at /, the JSON API at /api/dashboard and /api/refresh,
health checks at /healthz and /readyz, and prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address, overrides server.addr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.watchDir != "" {
		target := a.pipeline.Target()
		go watchExports(ctx, a.watchDir, target.TableName, func() {
			if err := a.cache.InvalidateTable(context.Background(), target.SpreadsheetID, target.TableName); err != nil {
				logger.Warn("cache invalidation failed", zap.Error(err))
			}
		})
	}

	addr := cfg.Server.Addr
	if flagAddr != "" {
		addr = flagAddr
	}
	srv := server.New(a.pipeline, a.cache, logger.Named("http"), version)
	return srv.Run(ctx, addr)
}

// watchExports calls onChange when the export of tableName in dir changes.
// Watching is best effort.
func watchExports(ctx context.Context, dir, tableName string, onChange func()) {
	file := filesource.FileName(tableName)
	w, err := watcher.New([]string{dir}, func(names []string) {
		if slices.Contains(names, file) {
			onChange()
		}
	}, watcher.WithExt(filesource.Ext))
	if err != nil {
		logger.Warn("not watching export directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	defer w.Close()
	w.Run(ctx, func(err error) {
		logger.Debug("watch error", zap.Error(err))
	})
}
