package sheetexport

import (
	"errors"
	"fmt"
)

// Layout is the immutable column layout of a sheet: the main section
// followed by column groups. Physical column indexes are assigned left to
// right, main columns first, then each non-empty group in order.
type Layout[T any] struct {
	name   string
	main   []Column[T]
	groups []ColumnGroup[T]
}

// Name returns the sheet name.
func (l Layout[T]) Name() string { return l.name }

// MainSection returns a copy of the main section columns.
func (l Layout[T]) MainSection() []Column[T] {
	return append([]Column[T](nil), l.main...)
}

// Groups returns a copy of the declared groups, empty ones included.
func (l Layout[T]) Groups() []ColumnGroup[T] {
	return append([]ColumnGroup[T](nil), l.groups...)
}

// Width returns the number of physical columns of every row.
func (l Layout[T]) Width() int {
	n := len(l.main)
	for _, g := range l.groups {
		n += g.Len()
	}
	return n
}

// LayoutBuilder declares a Layout.
type LayoutBuilder[T any] struct {
	name   string
	main   []Column[T]
	groups []ColumnGroup[T]
}

// NewLayout starts a layout for the named sheet.
func NewLayout[T any](name string) *LayoutBuilder[T] {
	return &LayoutBuilder[T]{name: name}
}

// Column adds a main section column configured by fn.
func (b *LayoutBuilder[T]) Column(fn func(c *ColumnBuilder[T])) *LayoutBuilder[T] {
	cb := &ColumnBuilder[T]{}
	fn(cb)
	b.main = append(b.main, cb.build())
	return b
}

// AddColumn adds an already built main section column.
func (b *LayoutBuilder[T]) AddColumn(c Column[T]) *LayoutBuilder[T] {
	b.main = append(b.main, c)
	return b
}

// Group adds a column group configured by fn.
func (b *LayoutBuilder[T]) Group(fn func(g *GroupBuilder[T])) *LayoutBuilder[T] {
	gb := &GroupBuilder[T]{}
	fn(gb)
	b.groups = append(b.groups, gb.build())
	return b
}

// AddGroup adds an already built group.
func (b *LayoutBuilder[T]) AddGroup(g ColumnGroup[T]) *LayoutBuilder[T] {
	b.groups = append(b.groups, g)
	return b
}

// Build validates the declaration and returns the layout. All
// configuration errors are reported together.
func (b *LayoutBuilder[T]) Build() (Layout[T], error) {
	var errs []error
	if b.name == "" {
		errs = append(errs, ErrMissingName)
	}
	for i, c := range b.main {
		if c.render == nil {
			errs = append(errs, fmt.Errorf("column %d %q: %w", i, c.label, ErrMissingRenderer))
		}
	}
	for i, g := range b.groups {
		if g.label == "" {
			errs = append(errs, fmt.Errorf("group %d: %w", i, ErrMissingGroupLabel))
		}
		for j, c := range g.columns {
			if c.render == nil {
				errs = append(errs, fmt.Errorf("group %q column %d %q: %w", g.label, j, c.label, ErrMissingRenderer))
			}
		}
	}
	if len(errs) > 0 {
		return Layout[T]{}, fmt.Errorf("invalid layout %q: %w", b.name, errors.Join(errs...))
	}

	return Layout[T]{
		name:   b.name,
		main:   append([]Column[T](nil), b.main...),
		groups: append([]ColumnGroup[T](nil), b.groups...),
	}, nil
}
