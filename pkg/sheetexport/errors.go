package sheetexport

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingName indicates a layout was built without a sheet name.
	ErrMissingName = errors.New("layout name is required")
	// ErrMissingRenderer indicates a column was declared without a render function.
	ErrMissingRenderer = errors.New("column renderer is required")
	// ErrMissingGroupLabel indicates a column group was declared without a label.
	ErrMissingGroupLabel = errors.New("group label is required")
	// ErrUnsupportedValue indicates a Value variant the writer does not know.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// RenderError is returned when a column render function fails.
type RenderError struct {
	Row    int
	Column int
	Label  string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render column %q (row %d, column %d): %v", e.Label, e.Row, e.Column, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// SourceError is returned when the record source fails. Item is the
// 1-based number of the record that could not be read.
type SourceError struct {
	Item int64
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("read record %d: %v", e.Item, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
