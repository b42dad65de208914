package xlsxsink

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

type pendingCell struct {
	value    sheetexport.CellValue
	hasValue bool
	style    sheetexport.StyleID
}

// Sheet is a GridSink streaming into one worksheet.
//
// Rows must be created in ascending order. The last rows created stay
// editable, up to the row window of the workbook; older rows are streamed
// out and any later write to them fails with ErrRowFlushed.
type Sheet struct {
	wb     *Workbook
	name   string
	stream *excelize.StreamWriter

	pending map[int]map[int]*pendingCell
	order   []int
	// rows below floor are flushed
	floor    int
	last     int
	finished bool
}

func newSheet(wb *Workbook, name string, sw *excelize.StreamWriter) *Sheet {
	return &Sheet{
		wb:      wb,
		name:    name,
		stream:  sw,
		pending: make(map[int]map[int]*pendingCell),
		last:    -1,
	}
}

// Name returns the worksheet name.
func (s *Sheet) Name() string { return s.name }

func (s *Sheet) CreateRow(row int) error {
	if s.finished {
		return ErrFinished
	}
	if row <= s.last {
		return fmt.Errorf("create row %d after row %d: rows must ascend", row, s.last)
	}
	s.pending[row] = make(map[int]*pendingCell)
	s.order = append(s.order, row)
	s.last = row

	for len(s.order) > s.wb.window {
		if err := s.flushOldest(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sheet) cell(row, col int) (*pendingCell, error) {
	if s.finished {
		return nil, ErrFinished
	}
	cells, ok := s.pending[row]
	if !ok {
		if row < s.floor {
			return nil, fmt.Errorf("row %d: %w", row, ErrRowFlushed)
		}
		return nil, fmt.Errorf("row %d was not created", row)
	}
	c, ok := cells[col]
	if !ok {
		c = &pendingCell{}
		cells[col] = c
	}
	return c, nil
}

func (s *Sheet) SetCell(row, col int, v sheetexport.CellValue) error {
	c, err := s.cell(row, col)
	if err != nil {
		return err
	}
	c.value = v
	c.hasValue = true
	return nil
}

func (s *Sheet) SetCellStyle(row, col int, style sheetexport.StyleID) error {
	c, err := s.cell(row, col)
	if err != nil {
		return err
	}
	c.style = style
	return nil
}

// SetColumnWidth must be called before the first row leaves the window.
func (s *Sheet) SetColumnWidth(col int, width float64) error {
	return s.stream.SetColWidth(col+1, col+1, width)
}

func (s *Sheet) MergeRegion(r sheetexport.Region) error {
	topLeft, err := excelize.CoordinatesToCellName(r.FirstCol+1, r.FirstRow+1)
	if err != nil {
		return err
	}
	bottomRight, err := excelize.CoordinatesToCellName(r.LastCol+1, r.LastRow+1)
	if err != nil {
		return err
	}
	return s.stream.MergeCell(topLeft, bottomRight)
}

// PaintRegionBorder draws b around r. Every edge cell gets a style derived
// from its current one, so the region must lie in the row window.
func (s *Sheet) PaintRegionBorder(r sheetexport.Region, b sheetexport.Border) error {
	for row := r.FirstRow; row <= r.LastRow; row++ {
		for col := r.FirstCol; col <= r.LastCol; col++ {
			var edge sheetexport.Border
			if row == r.FirstRow {
				edge.Top = b.Top
			}
			if row == r.LastRow {
				edge.Bottom = b.Bottom
			}
			if col == r.FirstCol {
				edge.Left = b.Left
			}
			if col == r.LastCol {
				edge.Right = b.Right
			}
			if edge.IsZero() {
				continue
			}

			c, err := s.cell(row, col)
			if err != nil {
				return err
			}
			style, err := s.wb.withBorder(c.style, edge)
			if err != nil {
				return err
			}
			c.style = style
		}
	}
	return nil
}

func (s *Sheet) flushOldest() error {
	row := s.order[0]
	s.order = s.order[1:]
	cells := s.pending[row]
	delete(s.pending, row)
	s.floor = row + 1

	if len(cells) == 0 {
		return nil
	}
	cols := make([]int, 0, len(cells))
	for col := range cells {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	values := make([]interface{}, cols[len(cols)-1]+1)
	for _, col := range cols {
		values[col] = toExcelCell(cells[col])
	}
	start, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return err
	}
	if err := s.stream.SetRow(start, values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func (s *Sheet) finish() error {
	if s.finished {
		return nil
	}
	for len(s.order) > 0 {
		if err := s.flushOldest(); err != nil {
			return err
		}
	}
	s.finished = true
	return s.stream.Flush()
}

func toExcelCell(c *pendingCell) excelize.Cell {
	cell := excelize.Cell{StyleID: int(c.style)}
	if !c.hasValue {
		return cell
	}
	cell.Value = c.value.Interface()
	if c.value.Link != "" {
		cell.Formula = fmt.Sprintf("HYPERLINK(%s,%s)", quote(c.value.Link), quote(c.value.String))
	}
	return cell
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
