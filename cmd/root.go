package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/locvowork/sheetexport/internal/bootstrap"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var reportsFile string

var rootCmd = &cobra.Command{
	Use:           "sheetexport",
	Short:         "Stream report records into grouped spreadsheets",
	Version:       Version,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&reportsFile, "config", "", "Report definitions file (env: REPORTS_FILE)")
}

// initApp builds the application with every configured backend.
func initApp(ctx context.Context) (*bootstrap.App, error) {
	app := bootstrap.NewApp()
	app.ReportsFile = reportsFile
	if err := app.Initialize(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func Execute() error {
	return rootCmd.Execute()
}
