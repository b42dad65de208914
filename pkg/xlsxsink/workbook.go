// Package xlsxsink writes sheetexport grids into xlsx workbooks with the
// excelize stream writer.
package xlsxsink

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

const (
	// DefaultRowWindow is the number of rows kept in memory before the
	// oldest one is streamed out.
	DefaultRowWindow = 100
	// minRowWindow keeps both header rows editable while headers render.
	minRowWindow = 2
	defaultSheet = "Sheet1"
)

var (
	// ErrRowFlushed is returned when a row that already left the row window
	// is written to.
	ErrRowFlushed = errors.New("row already flushed")
	// ErrFinished is returned when a finished workbook is written to.
	ErrFinished = errors.New("workbook already finished")
)

// Option configures a Workbook.
type Option func(*Workbook)

// WithRowWindow sets how many rows each sheet keeps editable.
func WithRowWindow(n int) Option {
	return func(wb *Workbook) {
		if n > 0 {
			wb.window = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) Option {
	return func(wb *Workbook) {
		wb.log = log
	}
}

// Workbook is an xlsx document. It is the StyleFactory of its sheets.
type Workbook struct {
	file   *excelize.File
	window int
	log    zerolog.Logger

	mu       sync.Mutex
	styles   map[sheetexport.StyleSpec]sheetexport.StyleID
	specs    map[sheetexport.StyleID]sheetexport.StyleSpec
	sheets   map[string]*Sheet
	order    []string
	finished bool
}

// NewWorkbook returns an empty workbook.
func NewWorkbook(opts ...Option) *Workbook {
	wb := &Workbook{
		file:   excelize.NewFile(),
		window: DefaultRowWindow,
		log:    zerolog.Nop(),
		styles: make(map[sheetexport.StyleSpec]sheetexport.StyleID),
		specs:  make(map[sheetexport.StyleID]sheetexport.StyleSpec),
		sheets: make(map[string]*Sheet),
	}
	for _, opt := range opts {
		opt(wb)
	}
	if wb.window < minRowWindow {
		wb.window = minRowWindow
	}
	return wb
}

// NewStyle returns the style matching spec, creating it on first use.
func (wb *Workbook) NewStyle(spec sheetexport.StyleSpec) (sheetexport.StyleID, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.newStyle(spec)
}

func (wb *Workbook) newStyle(spec sheetexport.StyleSpec) (sheetexport.StyleID, error) {
	if spec == (sheetexport.StyleSpec{}) {
		return sheetexport.DefaultStyle, nil
	}
	if id, ok := wb.styles[spec]; ok {
		return id, nil
	}
	raw, err := wb.file.NewStyle(toExcelStyle(spec))
	if err != nil {
		return sheetexport.DefaultStyle, fmt.Errorf("create style: %w", err)
	}
	id := sheetexport.StyleID(raw)
	wb.styles[spec] = id
	wb.specs[id] = spec
	return id, nil
}

// withBorder returns the style of base with the drawn sides of b replacing
// its own.
func (wb *Workbook) withBorder(base sheetexport.StyleID, b sheetexport.Border) (sheetexport.StyleID, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	spec := wb.specs[base]
	if b.Top.Style != sheetexport.BorderNone {
		spec.Border.Top = b.Top
	}
	if b.Left.Style != sheetexport.BorderNone {
		spec.Border.Left = b.Left
	}
	if b.Right.Style != sheetexport.BorderNone {
		spec.Border.Right = b.Right
	}
	if b.Bottom.Style != sheetexport.BorderNone {
		spec.Border.Bottom = b.Bottom
	}
	return wb.newStyle(spec)
}

// AddSheet returns the named sheet, creating it on first use. Sheet names
// match case-insensitively, as in Excel. The unused default sheet is taken
// over under the requested name.
func (wb *Workbook) AddSheet(name string) (*Sheet, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if wb.finished {
		return nil, ErrFinished
	}
	if added := wb.added(name); added != "" {
		return wb.sheets[added], nil
	}

	switch existing := wb.fileSheet(name); {
	case existing == "":
		if _, err := wb.file.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
	case existing == defaultSheet && name != defaultSheet:
		if err := wb.file.SetSheetName(existing, name); err != nil {
			return nil, fmt.Errorf("rename sheet %q: %w", existing, err)
		}
	default:
		name = existing
	}

	sw, err := wb.file.NewStreamWriter(name)
	if err != nil {
		return nil, fmt.Errorf("open sheet %q: %w", name, err)
	}
	s := newSheet(wb, name, sw)
	wb.sheets[name] = s
	wb.order = append(wb.order, name)

	wb.log.Debug().Str("sheet", name).Int("window", wb.window).Msg("sheet added")
	return s, nil
}

// SheetNames returns the sheets added so far, in order.
func (wb *Workbook) SheetNames() []string {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return append([]string(nil), wb.order...)
}

// added returns the name of the added sheet matching name, or "".
func (wb *Workbook) added(name string) string {
	for _, n := range wb.order {
		if strings.EqualFold(n, name) {
			return n
		}
	}
	return ""
}

// fileSheet returns the name under which the file holds a sheet matching
// name, or "" when there is none.
func (wb *Workbook) fileSheet(name string) string {
	for _, n := range wb.file.GetSheetList() {
		if strings.EqualFold(n, name) {
			return n
		}
	}
	return ""
}

// Finish streams out every pending row. The workbook accepts no more rows
// afterwards. Finish is idempotent.
func (wb *Workbook) Finish() error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if wb.finished {
		return nil
	}

	for _, name := range wb.order {
		if err := wb.sheets[name].finish(); err != nil {
			return fmt.Errorf("finish sheet %q: %w", name, err)
		}
	}

	if wb.added(defaultSheet) == "" && len(wb.order) > 0 {
		if err := wb.file.DeleteSheet(defaultSheet); err != nil {
			return err
		}
		index, err := wb.file.GetSheetIndex(wb.order[0])
		if err != nil {
			return err
		}
		wb.file.SetActiveSheet(index)
	}
	wb.finished = true
	return nil
}

// WriteTo finishes the workbook and writes it to w.
func (wb *Workbook) WriteTo(w io.Writer) (int64, error) {
	if err := wb.Finish(); err != nil {
		return 0, err
	}
	return wb.file.WriteTo(w)
}

// SaveAs finishes the workbook and saves it to path.
func (wb *Workbook) SaveAs(path string) error {
	if err := wb.Finish(); err != nil {
		return err
	}
	return wb.file.SaveAs(path)
}

// Close releases the temporary files of the workbook.
func (wb *Workbook) Close() error {
	return wb.file.Close()
}

func toExcelStyle(spec sheetexport.StyleSpec) *excelize.Style {
	style := &excelize.Style{}
	if spec.Font != (sheetexport.FontSpec{}) {
		style.Font = &excelize.Font{
			Bold:   spec.Font.Bold,
			Family: spec.Font.Family,
			Color:  string(spec.Font.Color),
		}
		if spec.Font.Underline {
			style.Font.Underline = "single"
		}
	}
	if spec.Fill != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{string(spec.Fill)},
			Pattern: 1,
		}
	}
	if spec.NumberFormat != "" {
		numFmt := spec.NumberFormat
		style.CustomNumFmt = &numFmt
	}
	if spec.WrapText || spec.Centered {
		style.Alignment = &excelize.Alignment{WrapText: spec.WrapText}
		if spec.Centered {
			style.Alignment.Horizontal = "center"
			style.Alignment.Vertical = "center"
		}
	}
	style.Border = toExcelBorder(spec.Border)
	return style
}

func toExcelBorder(b sheetexport.Border) []excelize.Border {
	var out []excelize.Border
	for _, side := range []struct {
		name string
		line sheetexport.BorderLine
	}{
		{"top", b.Top},
		{"left", b.Left},
		{"right", b.Right},
		{"bottom", b.Bottom},
	} {
		style := 0
		switch side.line.Style {
		case sheetexport.BorderThin:
			style = 1
		case sheetexport.BorderMedium:
			style = 2
		default:
			continue
		}
		out = append(out, excelize.Border{Type: side.name, Color: string(side.line.Color), Style: style})
	}
	return out
}
