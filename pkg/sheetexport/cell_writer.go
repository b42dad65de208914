package sheetexport

// CellWriter lets a column render function write into the current cell of
// one row without knowing its column index. The cursor is moved only by the
// SheetWriter that owns the row.
type CellWriter struct {
	sink   GridSink
	styles *StyleRegistry
	row    int
	col    int
}

func newCellWriter(sink GridSink, styles *StyleRegistry, row int) *CellWriter {
	return &CellWriter{sink: sink, styles: styles, row: row}
}

// Row returns the physical row being written.
func (w *CellWriter) Row() int { return w.row }

// Column returns the current column.
func (w *CellWriter) Column() int { return w.col }

// Write stores v in the current cell and applies the style of its kind.
// A nil v writes nothing.
func (w *CellWriter) Write(v Value) error {
	if v == nil {
		return nil
	}
	cv, kind, styled, err := cell(v)
	if err != nil {
		return err
	}
	if err := w.sink.SetCell(w.row, w.col, cv); err != nil {
		return err
	}
	if !styled {
		return nil
	}
	return w.sink.SetCellStyle(w.row, w.col, w.styles.Style(kind))
}

func (w *CellWriter) forward() {
	w.col++
}
