package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/locvowork/sheetexport/internal/config"
	"github.com/locvowork/sheetexport/pkg/reportlayout"
)

var reportsJSON bool

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List the configured reports",
	Args:  cobra.NoArgs,
	RunE:  runReports,
}

func init() {
	reportsCmd.Flags().BoolVar(&reportsJSON, "json", false, "Print the reports as JSON")
	rootCmd.AddCommand(reportsCmd)
}

func runReports(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	path := config.DefaultEnvConfig.REPORTS_FILE
	if reportsFile != "" {
		path = reportsFile
	}
	tmpl, err := reportlayout.Load(path)
	if err != nil {
		return err
	}
	return printReports(cmd.OutOrStdout(), tmpl, reportsJSON)
}

type reportLine struct {
	Name   string `json:"name"`
	Sheet  string `json:"sheet"`
	Source string `json:"source"`
}

// printReports writes one line per report, with the name and sheet columns
// padded to their widest cell.
func printReports(w io.Writer, tmpl *reportlayout.Template, asJSON bool) error {
	lines := make([]reportLine, 0, len(tmpl.Reports))
	for _, r := range tmpl.Reports {
		lines = append(lines, reportLine{Name: r.Name, Sheet: r.SheetName(), Source: r.Source.Type})
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(lines)
	}

	nameWidth, sheetWidth := runewidth.StringWidth("NAME"), runewidth.StringWidth("SHEET")
	for _, l := range lines {
		nameWidth = max(nameWidth, runewidth.StringWidth(l.Name))
		sheetWidth = max(sheetWidth, runewidth.StringWidth(l.Sheet))
	}
	row := func(name, sheet, source string) error {
		_, err := fmt.Fprintf(w, "%s  %s  %s\n",
			runewidth.FillRight(name, nameWidth), runewidth.FillRight(sheet, sheetWidth), source)
		return err
	}
	if err := row("NAME", "SHEET", "SOURCE"); err != nil {
		return err
	}
	for _, l := range lines {
		if err := row(l.Name, l.Sheet, l.Source); err != nil {
			return err
		}
	}
	return nil
}
