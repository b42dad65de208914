package sheetexport

import (
	"fmt"
	"time"
)

// StyleID identifies a style created by a StyleFactory. Zero is the backend's
// default style.
type StyleID int

// DefaultStyle is the style every cell has before a style is applied.
const DefaultStyle StyleID = 0

// StyleFactory creates document-level styles.
type StyleFactory interface {
	NewStyle(spec StyleSpec) (StyleID, error)
}

// GridSink is the capability a backend sheet exposes to the writer.
// Rows and columns are zero-based.
type GridSink interface {
	CreateRow(row int) error
	SetCell(row, col int, v CellValue) error
	SetCellStyle(row, col int, style StyleID) error
	SetColumnWidth(col int, width float64) error
	MergeRegion(r Region) error
	PaintRegionBorder(r Region, b Border) error
}

// CellType is the physical type of a cell value.
type CellType int

const (
	CellString CellType = iota
	CellNumber
	CellBool
	CellTime
)

func (t CellType) String() string {
	switch t {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	case CellTime:
		return "time"
	}
	return fmt.Sprintf("CellType(%d)", int(t))
}

// CellValue is what a backend stores in one cell.
type CellValue struct {
	Type   CellType
	String string
	Number float64
	Bool   bool
	Time   time.Time
	// Link is an optional navigable target attached to the cell.
	Link string
}

// Interface returns the value as the Go type matching its CellType.
func (v CellValue) Interface() interface{} {
	switch v.Type {
	case CellNumber:
		return v.Number
	case CellBool:
		return v.Bool
	case CellTime:
		return v.Time
	}
	return v.String
}

// Region is an inclusive rectangle of cells.
type Region struct {
	FirstRow, LastRow int
	FirstCol, LastCol int
}

// Contains reports whether the cell lies inside the region.
func (r Region) Contains(row, col int) bool {
	return row >= r.FirstRow && row <= r.LastRow && col >= r.FirstCol && col <= r.LastCol
}

func (r Region) String() string {
	return fmt.Sprintf("R%dC%d:R%dC%d", r.FirstRow, r.FirstCol, r.LastRow, r.LastCol)
}
