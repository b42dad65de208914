package sheetexport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const (
	groupHeaderRow  = 0
	columnHeaderRow = 1
	defaultInterval = 1000
)

// Progress is a snapshot of the counters of a SheetWriter.
type Progress struct {
	Sheet    string
	Expected *int64
	Items    int64
	Rows     int64
}

type writerOptions struct {
	log      zerolog.Logger
	progress func(Progress)
	interval int64
}

// WriterOption configures a SheetWriter.
type WriterOption func(*writerOptions)

// WithLogger sets the logger used for debug output.
func WithLogger(log zerolog.Logger) WriterOption {
	return func(o *writerOptions) {
		o.log = log
	}
}

// WithProgress registers a callback invoked every interval records
// (see WithProgressInterval) and at the end of every Export.
func WithProgress(fn func(Progress)) WriterOption {
	return func(o *writerOptions) {
		o.progress = fn
	}
}

// WithProgressInterval sets how many records pass between progress callbacks.
func WithProgressInterval(n int) WriterOption {
	return func(o *writerOptions) {
		if n > 0 {
			o.interval = int64(n)
		}
	}
}

// SheetWriter renders a layout into one sheet: the two header rows at
// construction, then one row per exported record.
//
// A SheetWriter must be fed by one goroutine at a time. Its counters may be
// read concurrently.
type SheetWriter[T any] struct {
	sink   GridSink
	styles *StyleRegistry
	layout Layout[T]
	opts   writerOptions

	mu       sync.Mutex
	expected *int64
	items    atomic.Int64
	rows     atomic.Int64
}

// NewSheetWriter renders the headers of layout into sink and returns a
// writer ready to export records.
func NewSheetWriter[T any](sink GridSink, styles *StyleRegistry, layout Layout[T], opts ...WriterOption) (*SheetWriter[T], error) {
	o := writerOptions{log: zerolog.Nop(), interval: defaultInterval}
	for _, opt := range opts {
		opt(&o)
	}
	w := &SheetWriter[T]{
		sink:   sink,
		styles: styles,
		layout: layout,
		opts:   o,
	}
	if err := w.writeHeaders(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *SheetWriter[T]) nextRow() (int, error) {
	row := int(w.rows.Add(1) - 1)
	return row, w.sink.CreateRow(row)
}

func (w *SheetWriter[T]) writeHeaders() error {
	if _, err := w.nextRow(); err != nil {
		return err
	}
	if _, err := w.nextRow(); err != nil {
		return err
	}

	col := 0
	for _, c := range w.layout.main {
		if err := w.writeColumnHeader(col, c, w.styles.MainHeaderStyle()); err != nil {
			return err
		}
		col++
	}

	groupIdx := 0
	for _, g := range w.layout.groups {
		if g.IsEmpty() {
			continue
		}

		groupStyle, err := w.styles.GroupHeaderStyle(groupIdx)
		if err != nil {
			return err
		}
		if err := w.sink.SetCell(groupHeaderRow, col, CellValue{Type: CellString, String: g.label}); err != nil {
			return err
		}
		if err := w.sink.SetCellStyle(groupHeaderRow, col, groupStyle); err != nil {
			return err
		}

		if g.Len() >= 2 {
			region := Region{
				FirstRow: groupHeaderRow,
				LastRow:  groupHeaderRow,
				FirstCol: col,
				LastCol:  col + g.Len() - 1,
			}
			if err := w.sink.MergeRegion(region); err != nil {
				return err
			}
			if err := w.sink.PaintRegionBorder(region, groupBorder(w.styles.GroupColor(groupIdx))); err != nil {
				return err
			}
		}

		headerStyle, err := w.styles.GroupColumnHeaderStyle(groupIdx)
		if err != nil {
			return err
		}
		for _, c := range g.columns {
			if err := w.writeColumnHeader(col, c, headerStyle); err != nil {
				return err
			}
			col++
		}
		groupIdx++
	}

	w.opts.log.Debug().
		Str("sheet", w.layout.name).
		Int("columns", col).
		Int("groups", groupIdx).
		Msg("headers rendered")
	return nil
}

func (w *SheetWriter[T]) writeColumnHeader(col int, c Column[T], style StyleID) error {
	if err := w.sink.SetColumnWidth(col, float64(c.EffectiveWidth())); err != nil {
		return err
	}
	if err := w.sink.SetCell(columnHeaderRow, col, CellValue{Type: CellString, String: c.label}); err != nil {
		return err
	}
	return w.sink.SetCellStyle(columnHeaderRow, col, style)
}

// Export writes one row per record of src. It may be called several times;
// rows keep appending and counters keep accumulating. The estimated size of
// src is added to ExpectedItemCount.
//
// A render or source error stops the export. Rows written before the error
// stay in the sink.
func (w *SheetWriter[T]) Export(ctx context.Context, src RecordSource[T]) error {
	w.addExpected(src.EstimatedSize())
	startItems := w.items.Load()

	for {
		record, ok, err := src.Next(ctx)
		if err != nil {
			return &SourceError{Item: w.items.Load() + 1, Err: err}
		}
		if !ok {
			break
		}

		items := w.items.Add(1)
		if err := w.writeRecord(record); err != nil {
			return err
		}
		if w.opts.progress != nil && items%w.opts.interval == 0 {
			w.opts.progress(w.progress())
		}
	}

	if w.opts.progress != nil {
		w.opts.progress(w.progress())
	}
	w.opts.log.Debug().
		Str("sheet", w.layout.name).
		Int64("items", w.items.Load()-startItems).
		Int64("rows", w.rows.Load()).
		Msg("batch exported")
	return nil
}

func (w *SheetWriter[T]) writeRecord(record T) error {
	row, err := w.nextRow()
	if err != nil {
		return err
	}

	cw := newCellWriter(w.sink, w.styles, row)
	for _, c := range w.layout.main {
		if err := w.render(cw, c, record); err != nil {
			return err
		}
		cw.forward()
	}
	for _, g := range w.layout.groups {
		if g.IsEmpty() {
			continue
		}
		for _, c := range g.columns {
			if err := w.render(cw, c, record); err != nil {
				return err
			}
			cw.forward()
		}
	}
	return nil
}

func (w *SheetWriter[T]) render(cw *CellWriter, c Column[T], record T) error {
	if err := c.render(cw, record); err != nil {
		return &RenderError{Row: cw.row, Column: cw.col, Label: c.label, Err: err}
	}
	return nil
}

func (w *SheetWriter[T]) addExpected(n *int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expected = sumNullable(w.expected, n)
}

// sumNullable adds two optional counts. Absent values are ignored; the sum
// of two absent values is absent.
func sumNullable(a, b *int64) *int64 {
	if b == nil {
		return a
	}
	if a == nil {
		v := *b
		return &v
	}
	v := *a + *b
	return &v
}

func (w *SheetWriter[T]) progress() Progress {
	return Progress{
		Sheet:    w.layout.name,
		Expected: w.ExpectedItemCount(),
		Items:    w.items.Load(),
		Rows:     w.rows.Load(),
	}
}

// Name returns the sheet name.
func (w *SheetWriter[T]) Name() string { return w.layout.name }

// Layout returns the layout being rendered.
func (w *SheetWriter[T]) Layout() Layout[T] { return w.layout }

// ExpectedItemCount returns the sum of the estimated sizes of the exported
// sources, or nil when none was known. It is advisory only.
func (w *SheetWriter[T]) ExpectedItemCount() *int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.expected == nil {
		return nil
	}
	v := *w.expected
	return &v
}

// SetExpectedItemCount overrides the expected item count.
func (w *SheetWriter[T]) SetExpectedItemCount(n *int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expected = sumNullable(nil, n)
}

// WrittenItemCount returns the number of records exported so far.
func (w *SheetWriter[T]) WrittenItemCount() int64 { return w.items.Load() }

// WrittenRowCount returns the number of rows created, headers included.
func (w *SheetWriter[T]) WrittenRowCount() int64 { return w.rows.Load() }
