package reportlayout

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/locvowork/sheetexport/pkg/sheetexport"
)

// Kind selects the cell value a field is rendered as.
type Kind string

const (
	KindText        Kind = "text"
	KindIdentifier  Kind = "identifier"
	KindLink        Kind = "link"
	KindDescription Kind = "description"
	KindTimestamp   Kind = "timestamp"
	KindInteger     Kind = "integer"
	KindFloat       Kind = "float"
	KindDecimal     Kind = "decimal"
	KindBoolean     Kind = "boolean"
)

func (k Kind) valid() bool {
	switch k {
	case KindText, KindIdentifier, KindLink, KindDescription, KindTimestamp,
		KindInteger, KindFloat, KindDecimal, KindBoolean:
		return true
	}
	return false
}

// ErrUnconvertible is returned when a field value does not fit its kind.
var ErrUnconvertible = errors.New("value does not fit column kind")

func unconvertible(v interface{}, kind Kind) error {
	return fmt.Errorf("%w: %T %v as %s", ErrUnconvertible, v, v, kind)
}

// toValue converts a raw field value. nil, and nil pointers, stay absent.
func toValue(kind Kind, v interface{}) (sheetexport.Value, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindIdentifier:
		return identifierValue(v)
	case KindDescription:
		if p, ok := v.(*string); ok {
			return sheetexport.OptDescription(p), nil
		}
		s, ok := asString(v)
		if !ok {
			return nil, unconvertible(v, kind)
		}
		return sheetexport.Description(s), nil
	case KindTimestamp:
		if p, ok := v.(*time.Time); ok {
			return sheetexport.OptTimestamp(p), nil
		}
		t, ok := asTime(v)
		if !ok {
			return nil, unconvertible(v, kind)
		}
		return sheetexport.Timestamp(t), nil
	case KindInteger:
		if p, ok := v.(*int64); ok {
			return sheetexport.OptInteger(p), nil
		}
		n, ok := asInt(v)
		if !ok {
			return nil, unconvertible(v, kind)
		}
		return sheetexport.Integer(n), nil
	case KindFloat:
		if p, ok := v.(*float64); ok {
			return sheetexport.OptFloat(p), nil
		}
		f, ok := asFloat(v)
		if !ok {
			return nil, unconvertible(v, kind)
		}
		return sheetexport.Float(f), nil
	case KindDecimal:
		if p, ok := v.(*decimal.Decimal); ok {
			return sheetexport.OptDecimal(p), nil
		}
		d, ok := asDecimal(v)
		if !ok {
			return nil, unconvertible(v, kind)
		}
		return sheetexport.Decimal(d), nil
	case KindBoolean:
		b, ok := asBool(v)
		if !ok {
			return nil, unconvertible(v, kind)
		}
		return sheetexport.Boolean(b), nil
	}

	switch v := v.(type) {
	case *string:
		return sheetexport.OptText(v), nil
	case fmt.Stringer:
		return sheetexport.EnumText(v), nil
	}
	s, ok := asString(v)
	if !ok {
		s = fmt.Sprint(v)
	}
	return sheetexport.Text(s), nil
}

// identifierValue renders UUIDs in canonical form, whether they arrive as
// uuid.UUID, raw 16 bytes or text. Other identifiers are kept as text.
func identifierValue(v interface{}) (sheetexport.Value, error) {
	switch v := v.(type) {
	case uuid.UUID:
		return sheetexport.UUID(v), nil
	case *uuid.UUID:
		return sheetexport.OptUUID(v), nil
	case [16]byte:
		return sheetexport.UUID(uuid.UUID(v)), nil
	case []byte:
		if len(v) == 16 && !utf8.Valid(v) {
			id, err := uuid.FromBytes(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnconvertible, err)
			}
			return sheetexport.UUID(id), nil
		}
	case *string:
		if v != nil {
			if id, ok := parseUUID(*v); ok {
				return sheetexport.UUID(id), nil
			}
		}
		return sheetexport.OptIdentifier(v), nil
	}
	s, ok := asString(v)
	if !ok {
		return nil, unconvertible(v, KindIdentifier)
	}
	if id, ok := parseUUID(s); ok {
		return sheetexport.UUID(id), nil
	}
	return sheetexport.Identifier(s), nil
}

// parseUUID accepts hyphenated, braced and urn:uuid text. Bare 32-digit hex
// strings are not treated as UUIDs.
func parseUUID(s string) (uuid.UUID, bool) {
	if len(s) == 32 {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s)
	return id, err == nil
}

func asString(v interface{}) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return fmt.Sprint(v), true
	}
	return "", false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func asTime(v interface{}) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string, []byte:
		s, _ := asString(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func asInt(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return asInt(float64(v))
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string, []byte:
		s, _ := asString(v)
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case decimal.Decimal:
		return v.InexactFloat64(), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string, []byte:
		s, _ := asString(v)
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	if n, ok := asInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

func asDecimal(v interface{}) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string, []byte:
		s, _ := asString(v)
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	if n, ok := asInt(v); ok {
		return decimal.NewFromInt(n), true
	}
	return decimal.Decimal{}, false
}

func asBool(v interface{}) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case string, []byte:
		s, _ := asString(v)
		b, err := strconv.ParseBool(s)
		return b, err == nil
	}
	if n, ok := asInt(v); ok {
		return n != 0, true
	}
	return false, false
}
