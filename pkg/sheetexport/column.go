package sheetexport

import (
	"github.com/mattn/go-runewidth"
)

const (
	// MaxColumnWidth is the widest column, in characters, a sheet accepts.
	MaxColumnWidth = 255
	columnPadding  = 2
)

// RenderFunc writes the value of one column for a record into the current
// cell of w. Writing nothing is allowed.
type RenderFunc[T any] func(w *CellWriter, record T) error

// Column declares one output column.
type Column[T any] struct {
	label    string
	minWidth int
	render   RenderFunc[T]
}

// NewColumn returns a column. A nil render is reported by LayoutBuilder.Build.
func NewColumn[T any](label string, minWidth int, render RenderFunc[T]) Column[T] {
	return Column[T]{label: label, minWidth: minWidth, render: render}
}

// Label returns the header label.
func (c Column[T]) Label() string { return c.label }

// MinWidth returns the declared minimum width.
func (c Column[T]) MinWidth() int { return c.minWidth }

// EffectiveWidth returns the width the column is rendered with:
// the larger of the minimum width and the label width, plus padding,
// capped at MaxColumnWidth.
func (c Column[T]) EffectiveWidth() int {
	width := runewidth.StringWidth(c.label)
	if c.minWidth > width {
		width = c.minWidth
	}
	width += columnPadding
	if width > MaxColumnWidth {
		width = MaxColumnWidth
	}
	return width
}

// ColumnGroup declares columns rendered together under one merged label.
// A group without columns is skipped entirely.
type ColumnGroup[T any] struct {
	label   string
	columns []Column[T]
}

// NewGroup returns a column group.
func NewGroup[T any](label string, columns ...Column[T]) ColumnGroup[T] {
	return ColumnGroup[T]{label: label, columns: append([]Column[T](nil), columns...)}
}

// Label returns the group label.
func (g ColumnGroup[T]) Label() string { return g.label }

// Columns returns a copy of the member columns.
func (g ColumnGroup[T]) Columns() []Column[T] {
	return append([]Column[T](nil), g.columns...)
}

// Len returns the number of columns.
func (g ColumnGroup[T]) Len() int { return len(g.columns) }

// IsEmpty reports whether the group has no columns.
func (g ColumnGroup[T]) IsEmpty() bool { return len(g.columns) == 0 }

// ColumnBuilder configures one column.
type ColumnBuilder[T any] struct {
	label    string
	minWidth int
	render   RenderFunc[T]
}

// Label sets the header label.
func (b *ColumnBuilder[T]) Label(label string) *ColumnBuilder[T] {
	b.label = label
	return b
}

// Width sets the minimum width in characters.
func (b *ColumnBuilder[T]) Width(width int) *ColumnBuilder[T] {
	b.minWidth = width
	return b
}

// Render sets the render function.
func (b *ColumnBuilder[T]) Render(render RenderFunc[T]) *ColumnBuilder[T] {
	b.render = render
	return b
}

// Value sets a render function that writes the value returned by fn.
func (b *ColumnBuilder[T]) Value(fn func(record T) Value) *ColumnBuilder[T] {
	if fn == nil {
		b.render = nil
		return b
	}
	b.render = func(w *CellWriter, record T) error {
		return w.Write(fn(record))
	}
	return b
}

func (b *ColumnBuilder[T]) build() Column[T] {
	return NewColumn(b.label, b.minWidth, b.render)
}

// GroupBuilder configures one column group.
type GroupBuilder[T any] struct {
	label   string
	columns []Column[T]
}

// Label sets the group label.
func (b *GroupBuilder[T]) Label(label string) *GroupBuilder[T] {
	b.label = label
	return b
}

// Column adds a column configured by fn.
func (b *GroupBuilder[T]) Column(fn func(c *ColumnBuilder[T])) *GroupBuilder[T] {
	cb := &ColumnBuilder[T]{}
	fn(cb)
	b.columns = append(b.columns, cb.build())
	return b
}

// AddColumn adds an already built column.
func (b *GroupBuilder[T]) AddColumn(c Column[T]) *GroupBuilder[T] {
	b.columns = append(b.columns, c)
	return b
}

func (b *GroupBuilder[T]) build() ColumnGroup[T] {
	return ColumnGroup[T]{label: b.label, columns: b.columns}
}
