// Package csvsink renders sheetexport grids as CSV. Styles, widths, merges
// and borders are accepted and dropped.
package csvsink

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

// TimeLayout is the layout of timestamp cells.
const TimeLayout = "2006-01-02 15:04:05"

// Document is the StyleFactory of CSV sheets. Every style is the default.
type Document struct{}

func (Document) NewStyle(sheetexport.StyleSpec) (sheetexport.StyleID, error) {
	return sheetexport.DefaultStyle, nil
}

// Sheet writes one CSV stream. A row is written once the next row is
// created or Flush is called, so rows must be created in ascending order.
type Sheet struct {
	w       *csv.Writer
	current int
	record  []string
	started bool
}

// NewSheet returns a sheet writing to w.
func NewSheet(w io.Writer) *Sheet {
	return &Sheet{w: csv.NewWriter(w), current: -1}
}

func (s *Sheet) CreateRow(row int) error {
	if row <= s.current {
		return fmt.Errorf("create row %d after row %d: rows must ascend", row, s.current)
	}
	if err := s.writePending(); err != nil {
		return err
	}
	// gaps become empty lines
	for r := s.current + 1; s.started && r < row; r++ {
		if err := s.w.Write(nil); err != nil {
			return err
		}
	}
	s.current = row
	s.started = true
	s.record = s.record[:0]
	return nil
}

func (s *Sheet) SetCell(row, col int, v sheetexport.CellValue) error {
	if row != s.current {
		return fmt.Errorf("row %d is not the current row %d", row, s.current)
	}
	for len(s.record) <= col {
		s.record = append(s.record, "")
	}
	s.record[col] = format(v)
	return nil
}

func (s *Sheet) SetCellStyle(int, int, sheetexport.StyleID) error { return nil }

func (s *Sheet) SetColumnWidth(int, float64) error { return nil }

func (s *Sheet) MergeRegion(sheetexport.Region) error { return nil }

func (s *Sheet) PaintRegionBorder(sheetexport.Region, sheetexport.Border) error { return nil }

func (s *Sheet) writePending() error {
	if !s.started {
		return nil
	}
	return s.w.Write(s.record)
}

// Flush writes the current row and flushes the underlying writer.
func (s *Sheet) Flush() error {
	if err := s.writePending(); err != nil {
		return err
	}
	s.started = false
	s.w.Flush()
	return s.w.Error()
}

func format(v sheetexport.CellValue) string {
	switch v.Type {
	case sheetexport.CellNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case sheetexport.CellBool:
		return strconv.FormatBool(v.Bool)
	case sheetexport.CellTime:
		return v.Time.Format(TimeLayout)
	}
	return v.String
}
