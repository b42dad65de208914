package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/pkg/csvsink"
	"github.com/locvowork/sheetexport/pkg/reportlayout"
	"github.com/locvowork/sheetexport/pkg/sheetexport"
	"github.com/locvowork/sheetexport/pkg/xlsxsink"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// keySamples is how many records are read ahead to find the keys of
// expanded map fields.
const keySamples = 50

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Result summarizes one export.
type Result struct {
	Report   string
	Sheet    string
	Expected *int64
	Items    int64
	Rows     int64
}

// ReportInfo describes an exportable report.
type ReportInfo struct {
	Name   string `json:"name"`
	Sheet  string `json:"sheet"`
	Source string `json:"source"`
}

type ExportService interface {
	Reports() []ReportInfo
	Export(ctx context.Context, report, format string, w io.Writer) (Result, error)
}

// Options tunes the export engine.
type Options struct {
	RowWindow        int
	ProgressInterval int
	Formatters       map[string]reportlayout.FormatterFunc
}

type exportService struct {
	templates *reportlayout.Template
	sources   SourceOpener
	opts      Options
}

func NewExportService(templates *reportlayout.Template, sources SourceOpener, opts Options) ExportService {
	return &exportService{templates: templates, sources: sources, opts: opts}
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (s *exportService) Reports() []ReportInfo {
	infos := make([]ReportInfo, 0, len(s.templates.Reports))
	for _, r := range s.templates.Reports {
		infos = append(infos, ReportInfo{Name: r.Name, Sheet: r.SheetName(), Source: r.Source.Type})
	}
	return infos
}

func (s *exportService) Export(ctx context.Context, name, format string, w io.Writer) (res Result, err error) {
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatXLSX && format != FormatCSV {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	report, err := s.templates.Report(name)
	if err != nil {
		return Result{}, err
	}

	src, release, err := s.sources.Open(ctx, report.Source)
	if err != nil {
		return Result{}, fmt.Errorf("open source of report %q: %w", name, err)
	}
	defer func() {
		if cerr := release(); cerr != nil && err == nil {
			err = fmt.Errorf("release source of report %q: %w", name, cerr)
		}
	}()

	layout, src, err := s.layout(ctx, report, src)
	if err != nil {
		return Result{}, err
	}

	log := logger.Get().With().Str("report", name).Str("format", format).Logger()
	writerOpts := []sheetexport.WriterOption{
		sheetexport.WithLogger(log),
		sheetexport.WithProgressInterval(s.opts.ProgressInterval),
		sheetexport.WithProgress(func(p sheetexport.Progress) {
			event := log.Debug().Int64("items", p.Items).Int64("rows", p.Rows)
			if p.Expected != nil {
				event = event.Int64("expected", *p.Expected)
			}
			event.Msg("export progress")
		}),
	}

	var sw *sheetexport.SheetWriter[reportlayout.Record]
	switch format {
	case FormatCSV:
		sw, err = s.exportCSV(ctx, layout, src, w, writerOpts)
	default:
		sw, err = s.exportXLSX(ctx, layout, src, w, log, writerOpts)
	}
	if sw != nil {
		res = Result{
			Report:   name,
			Sheet:    sw.Name(),
			Expected: sw.ExpectedItemCount(),
			Items:    sw.WrittenItemCount(),
			Rows:     sw.WrittenRowCount(),
		}
	}
	if err != nil {
		return res, fmt.Errorf("export report %q: %w", name, err)
	}
	logger.InfoLog(ctx, "exported report %s: %d items, %d rows", name, res.Items, res.Rows)
	return res, nil
}

// layout builds the report layout. Records read ahead to discover expanded
// keys are replayed by the returned source.
func (s *exportService) layout(ctx context.Context, report reportlayout.Report, src RecordSource) (sheetexport.Layout[reportlayout.Record], RecordSource, error) {
	var opts []reportlayout.Option
	for fname, fn := range s.opts.Formatters {
		opts = append(opts, reportlayout.WithFormatter(fname, fn))
	}

	if fields := report.ExpandFields(); len(fields) > 0 {
		head, rest, err := sheetexport.Peek[reportlayout.Record](ctx, src, keySamples)
		if err != nil {
			return sheetexport.Layout[reportlayout.Record]{}, nil, fmt.Errorf("read ahead %d records: %w", keySamples, err)
		}
		src = rest
		for _, field := range fields {
			opts = append(opts, reportlayout.WithExpandedKeys(field, reportlayout.DiscoverKeys(head, field)))
		}
	}

	layout, err := report.Layout(opts...)
	if err != nil {
		return sheetexport.Layout[reportlayout.Record]{}, nil, err
	}
	return layout, src, nil
}

func (s *exportService) exportXLSX(ctx context.Context, layout sheetexport.Layout[reportlayout.Record], src RecordSource, w io.Writer, log zerolog.Logger, opts []sheetexport.WriterOption) (*sheetexport.SheetWriter[reportlayout.Record], error) {
	wb := xlsxsink.NewWorkbook(xlsxsink.WithRowWindow(s.opts.RowWindow), xlsxsink.WithLogger(log))
	defer wb.Close()

	styles, err := sheetexport.NewStyleRegistry(wb)
	if err != nil {
		return nil, err
	}
	sheet, err := wb.AddSheet(layout.Name())
	if err != nil {
		return nil, err
	}
	sw, err := sheetexport.NewSheetWriter(sheet, styles, layout, opts...)
	if err != nil {
		return nil, err
	}
	if err := sw.Export(ctx, src); err != nil {
		return sw, err
	}
	if _, err := wb.WriteTo(w); err != nil {
		return sw, err
	}
	return sw, nil
}

func (s *exportService) exportCSV(ctx context.Context, layout sheetexport.Layout[reportlayout.Record], src RecordSource, w io.Writer, opts []sheetexport.WriterOption) (*sheetexport.SheetWriter[reportlayout.Record], error) {
	styles, err := sheetexport.NewStyleRegistry(csvsink.Document{})
	if err != nil {
		return nil, err
	}
	sheet := csvsink.NewSheet(w)
	sw, err := sheetexport.NewSheetWriter(sheet, styles, layout, opts...)
	if err != nil {
		return nil, err
	}
	if err := sw.Export(ctx, src); err != nil {
		return sw, err
	}
	return sw, sheet.Flush()
}
