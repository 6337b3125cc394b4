package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindInt
	KindFloat
	KindString
)

// Value is a generated field value. The zero Value is "none".
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
}

// None returns the empty value.
func None() Value { return Value{} }

// Int wraps an integer.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps a floating point number.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String wraps a string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Kind reports which variant v holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNone reports whether v carries no value.
func (v Value) IsNone() bool { return v.kind == KindNone }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the numeric payload widened to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// IsNumeric reports whether v is an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Equal compares kind and payload. Int and Float compare by numeric value.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.kind == KindInt && o.kind == KindInt {
			return v.i == o.i
		}
		a, _ := v.AsFloat()
		b, _ := o.AsFloat()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	return v.s == o.s
}

// String renders the value the way it appears in a text protocol message.
// Integral floats keep a trailing ".0".
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		if math.IsInf(v.f, 1) {
			return "inf"
		}
		if math.IsInf(v.f, -1) {
			return "-inf"
		}
		if math.IsNaN(v.f) {
			return "nan"
		}
		s := strconv.FormatFloat(v.f, 'f', -1, 64)
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1e16 {
			s += ".0"
		}
		return s
	case KindString:
		return v.s
	}
	return ""
}

// FromAny converts a decoded YAML/JSON scalar into a Value.
func FromAny(x any) (Value, bool) {
	switch t := x.(type) {
	case nil:
		return None(), true
	case Value:
		return t, true
	case int:
		return Int(int64(t)), true
	case int8:
		return Int(int64(t)), true
	case int16:
		return Int(int64(t)), true
	case int32:
		return Int(int64(t)), true
	case int64:
		return Int(t), true
	case uint:
		return Int(int64(t)), true
	case uint8:
		return Int(int64(t)), true
	case uint16:
		return Int(int64(t)), true
	case uint32:
		return Int(int64(t)), true
	case uint64:
		return Int(int64(t)), true
	case float32:
		return Float(float64(t)), true
	case float64:
		return Float(t), true
	case string:
		return String(t), true
	case bool:
		if t {
			return Int(1), true
		}
		return Int(0), true
	}
	return None(), false
}

// Any returns the payload as a plain Go value, nil for none.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	}
	return nil
}

// MarshalJSON encodes none as null and non-finite floats as their text form.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindFloat && (math.IsInf(v.f, 0) || math.IsNaN(v.f)) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Any())
}
