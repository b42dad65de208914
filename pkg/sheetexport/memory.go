package sheetexport

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryDocument is an in-memory StyleFactory. Style IDs start at 1 and
// every call creates a new style, so tests can count creations.
type MemoryDocument struct {
	mu     sync.Mutex
	styles []StyleSpec
	sheets map[string]*MemorySheet
	order  []string
}

// NewMemoryDocument returns an empty document.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{sheets: make(map[string]*MemorySheet)}
}

func (d *MemoryDocument) NewStyle(spec StyleSpec) (StyleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.styles = append(d.styles, spec)
	return StyleID(len(d.styles)), nil
}

// StyleCount returns the number of styles created.
func (d *MemoryDocument) StyleCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.styles)
}

// StyleSpec returns the spec of a created style. DefaultStyle yields the
// zero spec.
func (d *MemoryDocument) StyleSpec(id StyleID) (StyleSpec, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id == DefaultStyle {
		return StyleSpec{}, true
	}
	if int(id) < 1 || int(id) > len(d.styles) {
		return StyleSpec{}, false
	}
	return d.styles[id-1], true
}

// AddSheet returns the named sheet, creating it on first use.
func (d *MemoryDocument) AddSheet(name string) *MemorySheet {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sheets[name]; ok {
		return s
	}
	s := NewMemorySheet(name)
	d.sheets[name] = s
	d.order = append(d.order, name)
	return s
}

// SheetNames returns the sheet names in creation order.
func (d *MemoryDocument) SheetNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}

type cellKey struct{ row, col int }

// MemorySheet is an in-memory GridSink that records every call.
type MemorySheet struct {
	name    string
	rows    []int
	cells   map[cellKey]CellValue
	styles  map[cellKey]StyleID
	widths  map[int]float64
	merges  []Region
	borders map[Region]Border
}

// NewMemorySheet returns an empty sheet.
func NewMemorySheet(name string) *MemorySheet {
	return &MemorySheet{
		name:    name,
		cells:   make(map[cellKey]CellValue),
		styles:  make(map[cellKey]StyleID),
		widths:  make(map[int]float64),
		borders: make(map[Region]Border),
	}
}

func (s *MemorySheet) CreateRow(row int) error {
	for _, r := range s.rows {
		if r == row {
			return fmt.Errorf("row %d already created", row)
		}
	}
	s.rows = append(s.rows, row)
	return nil
}

func (s *MemorySheet) SetCell(row, col int, v CellValue) error {
	s.cells[cellKey{row, col}] = v
	return nil
}

func (s *MemorySheet) SetCellStyle(row, col int, style StyleID) error {
	s.styles[cellKey{row, col}] = style
	return nil
}

func (s *MemorySheet) SetColumnWidth(col int, width float64) error {
	s.widths[col] = width
	return nil
}

func (s *MemorySheet) MergeRegion(r Region) error {
	for _, m := range s.merges {
		if overlaps(m, r) {
			return fmt.Errorf("merge %s overlaps %s", r, m)
		}
	}
	s.merges = append(s.merges, r)
	return nil
}

func (s *MemorySheet) PaintRegionBorder(r Region, b Border) error {
	s.borders[r] = b
	return nil
}

func overlaps(a, b Region) bool {
	return a.FirstRow <= b.LastRow && b.FirstRow <= a.LastRow &&
		a.FirstCol <= b.LastCol && b.FirstCol <= a.LastCol
}

// Name returns the sheet name.
func (s *MemorySheet) Name() string { return s.name }

// Rows returns the created rows in creation order.
func (s *MemorySheet) Rows() []int { return append([]int(nil), s.rows...) }

// Cell returns the value stored at row, col.
func (s *MemorySheet) Cell(row, col int) (CellValue, bool) {
	v, ok := s.cells[cellKey{row, col}]
	return v, ok
}

// CellStyle returns the style applied at row, col, DefaultStyle when none.
func (s *MemorySheet) CellStyle(row, col int) StyleID {
	return s.styles[cellKey{row, col}]
}

// RowCells returns the columns of row that hold a value, sorted.
func (s *MemorySheet) RowCells(row int) []int {
	var cols []int
	for k := range s.cells {
		if k.row == row {
			cols = append(cols, k.col)
		}
	}
	sort.Ints(cols)
	return cols
}

// ColumnWidth returns the width set for col.
func (s *MemorySheet) ColumnWidth(col int) (float64, bool) {
	w, ok := s.widths[col]
	return w, ok
}

// ColumnCount returns the number of columns given a width.
func (s *MemorySheet) ColumnCount() int { return len(s.widths) }

// Merges returns the merged regions in merge order.
func (s *MemorySheet) Merges() []Region { return append([]Region(nil), s.merges...) }

// RegionBorder returns the border painted on r.
func (s *MemorySheet) RegionBorder(r Region) (Border, bool) {
	b, ok := s.borders[r]
	return b, ok
}

// BorderCount returns the number of painted regions.
func (s *MemorySheet) BorderCount() int { return len(s.borders) }
