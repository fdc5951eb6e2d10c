package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/taskboard/pkg/auth"
	"github.com/harrisonrobin/taskboard/pkg/sheets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google Sheets",
	Long: `With credentials.mode "oauth", discards any saved token and runs the browser
authorization flow, saving the new token. With a service account or default
credentials, checks that a Sheets client can be built.`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if cfg.Credentials.Mode != auth.ModeOAuth {
		if _, err := sheets.NewClient(ctx, cfg.Credentials, logger); err != nil {
			return runError(err)
		}
		fmt.Fprintf(w, "Credentials OK (%s).\n", cfg.Credentials.Mode)
		return nil
	}

	if err := auth.ResetToken(cfg.Credentials); err != nil {
		return newExitError(CodeInternal, err)
	}
	if _, err := auth.GetClient(ctx, cfg.Credentials, []string{sheetsapi.SpreadsheetsReadonlyScope}); err != nil {
		return runError(fmt.Errorf("authentication failed: %w", err))
	}
	fmt.Fprintln(w, "Authentication successful! Token saved.")
	return nil
}
