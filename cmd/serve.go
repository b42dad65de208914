package cmd

import (
	"github.com/spf13/cobra"

	"github.com/locvowork/sheetexport/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve report exports over HTTP",
	Long: `Serve report exports over HTTP on APP_PORT.

Routes:
  GET /reports                         list the configured reports
  GET /export/:report?format=xlsx|csv  download a report`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.ErrorLog(ctx, "Failed to close backends: %v", err)
		}
	}()

	if err := app.Run(); err != nil {
		logger.ErrorLog(ctx, "Application failed: %v", err)
		return err
	}
	return nil
}
