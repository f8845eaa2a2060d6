package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cast"
)

// Kind tags what a Value holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a single table cell: missing, numeric, or free text.
// The zero Value is Missing.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Missing returns the missing value.
func Missing() Value { return Value{} }

// Number wraps a float. NaN is treated as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text wraps a string as-is. Empty strings stay text; loaders decide what counts as missing.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// FromAny converts an arbitrary Go value. nil and NaN become Missing, numeric kinds
// and bools become Number, everything else is coerced to Text.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Missing()
	case Value:
		return x
	case string:
		return Text(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool, json.Number:
		f, err := cast.ToFloat64E(x)
		if err != nil {
			return Text(fmt.Sprint(x))
		}
		return Number(f)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return Text(fmt.Sprint(v))
	}
	return Text(s)
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsText() bool { return v.kind == KindText }
func (v Value) Float() float64 { return v.num }
func (v Value) Text() string { return v.text }

// Equal reports field equality. Two missing values are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	}
	return true
}

// String renders the value for export: numbers without trailing zeros, missing as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	}
	return ""
}
