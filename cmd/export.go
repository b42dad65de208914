package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/internal/service"
)

// ErrOutputExists is returned when the output file exists and --force is
// not set.
var ErrOutputExists = errors.New("output file exists")

var (
	exportOutput string
	exportFormat string
	exportForce  bool
)

var exportCmd = &cobra.Command{
	Use:   "export <report>",
	Short: "Export a report to a file",
	Long: `Export a configured report to an xlsx or csv file.

The format defaults to the output file extension, then to xlsx.

Examples:
  sheetexport export datasets -o datasets.xlsx
  sheetexport export datasets -o datasets.csv
  sheetexport export datasets -o out.xlsx --force   # replace out.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: <report>.<format>)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format (xlsx or csv)")
	exportCmd.Flags().BoolVarP(&exportForce, "force", "f", false, "Overwrite the output file if it exists")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()
	report := args[0]

	format := resolveFormat(exportFormat, exportOutput)
	if format != service.FormatXLSX && format != service.FormatCSV {
		return fmt.Errorf("--format must be 'xlsx' or 'csv', got %q", format)
	}
	path := exportOutput
	if path == "" {
		path = report + "." + format
	}
	if err := checkOutput(path, exportForce); err != nil {
		return err
	}

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.ErrorLog(ctx, "Failed to close backends: %v", err)
		}
	}()

	res, err := exportToFile(ctx, app.Exports, report, format, path, exportForce)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d items (%d rows) of %s to %s\n", res.Items, res.Rows, report, path)
	return nil
}

// resolveFormat picks the explicit format, else the one named by the output
// extension, else xlsx.
func resolveFormat(format, output string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	if strings.EqualFold(filepath.Ext(output), "."+service.FormatCSV) {
		return service.FormatCSV
	}
	return service.FormatXLSX
}

func checkOutput(path string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("check output file: %w", err)
	}
	return nil
}

// openOutput creates path. Without force an existing file is an error, even
// one created after checkOutput ran.
func openOutput(path string, force bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, path)
	}
	return f, err
}

// exportToFile writes the report to path. A failed export removes the
// partial file.
func exportToFile(ctx context.Context, svc service.ExportService, report, format, path string, force bool) (service.Result, error) {
	f, err := openOutput(path, force)
	if err != nil {
		return service.Result{}, err
	}
	res, err := svc.Export(ctx, report, format, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output file: %w", cerr)
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			logger.ErrorLog(ctx, "Failed to remove partial output %s: %v", path, rerr)
		}
		return res, err
	}
	return res, nil
}
