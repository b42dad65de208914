package sheetexport

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Value is one typed cell value. The set of variants is closed; a nil Value
// means the value is absent and nothing is written.
type Value interface {
	isValue()
}

// Text is plain text with the default style.
type Text string

// Hyperlink writes Label as the cell text and attaches Target as its link.
type Hyperlink struct {
	Label  string
	Target string
}

// Identifier is an opaque identifier rendered in the identifier style.
type Identifier string

// Description is long-form text rendered with wrapping.
type Description string

// Timestamp is a point in time rendered in the date style.
type Timestamp time.Time

// Integer is rendered in the integer style.
type Integer int64

// Float is rendered in the decimal style.
type Float float64

// Decimal is an arbitrary-precision number. Its style depends on its scale:
// integer style when it has no fractional digits, decimal style otherwise.
type Decimal decimal.Decimal

// Boolean is rendered with the default style.
type Boolean bool

func (Text) isValue()        {}
func (Hyperlink) isValue()   {}
func (Identifier) isValue()  {}
func (Description) isValue() {}
func (Timestamp) isValue()   {}
func (Integer) isValue()     {}
func (Float) isValue()       {}
func (Decimal) isValue()     {}
func (Boolean) isValue()     {}

// OptText returns Text for a non-nil string.
func OptText(s *string) Value {
	if s == nil {
		return nil
	}
	return Text(*s)
}

// EnumText renders an enumerated value by its label. A nil v, including a
// nil pointer held in the interface, is absent.
func EnumText(v fmt.Stringer) Value {
	if v == nil {
		return nil
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return Text(v.String())
}

// OptLink returns a Hyperlink when label is not nil.
func OptLink(label *string, target string) Value {
	if label == nil {
		return nil
	}
	return Hyperlink{Label: *label, Target: target}
}

// OptIdentifier returns an Identifier for a non-nil string.
func OptIdentifier(s *string) Value {
	if s == nil {
		return nil
	}
	return Identifier(*s)
}

// UUID renders a UUID as an identifier.
func UUID(id uuid.UUID) Value {
	return Identifier(id.String())
}

// OptUUID returns an identifier for a non-nil UUID.
func OptUUID(id *uuid.UUID) Value {
	if id == nil {
		return nil
	}
	return UUID(*id)
}

// OptDescription returns a Description for a non-nil string.
func OptDescription(s *string) Value {
	if s == nil {
		return nil
	}
	return Description(*s)
}

// OptTimestamp returns a Timestamp for a non-nil time.
func OptTimestamp(t *time.Time) Value {
	if t == nil {
		return nil
	}
	return Timestamp(*t)
}

// OptInteger returns an Integer for a non-nil number.
func OptInteger(n *int64) Value {
	if n == nil {
		return nil
	}
	return Integer(*n)
}

// OptFloat returns a Float for a non-nil number.
func OptFloat(f *float64) Value {
	if f == nil {
		return nil
	}
	return Float(*f)
}

// OptDecimal returns a Decimal for a non-nil number.
func OptDecimal(d *decimal.Decimal) Value {
	if d == nil {
		return nil
	}
	return Decimal(*d)
}

// cell converts a value into its backend representation and the style kind
// it is rendered with. styled is false when the default style is kept.
func cell(v Value) (cv CellValue, kind StyleKind, styled bool, err error) {
	switch v := v.(type) {
	case Text:
		return CellValue{Type: CellString, String: string(v)}, 0, false, nil
	case Hyperlink:
		return CellValue{Type: CellString, String: v.Label, Link: v.Target}, StyleHyperlink, true, nil
	case Identifier:
		return CellValue{Type: CellString, String: string(v)}, StyleIdentifier, true, nil
	case Description:
		return CellValue{Type: CellString, String: string(v)}, StyleLongText, true, nil
	case Timestamp:
		return CellValue{Type: CellTime, Time: time.Time(v)}, StyleDate, true, nil
	case Integer:
		return CellValue{Type: CellNumber, Number: float64(v)}, StyleInteger, true, nil
	case Float:
		return CellValue{Type: CellNumber, Number: float64(v)}, StyleDecimal, true, nil
	case Decimal:
		d := decimal.Decimal(v)
		kind := StyleDecimal
		if d.Exponent() >= 0 {
			kind = StyleInteger
		}
		return CellValue{Type: CellNumber, Number: d.InexactFloat64()}, kind, true, nil
	case Boolean:
		return CellValue{Type: CellBool, Bool: bool(v)}, 0, false, nil
	}
	return CellValue{}, 0, false, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}
