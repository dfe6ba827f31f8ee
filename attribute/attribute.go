// Package attribute implements the typed key/value bag used for span and
// event attributes (spec §3, §4.3). Keys are unique and insertion order is
// preserved, matching the wire-serialization requirement that an exporter
// sees attributes in the order instrumentation set them.
package attribute

import "fmt"

// Kind tags the type carried by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindBool
	KindInt64
	KindFloat64
	KindStringSlice
	KindBoolSlice
	KindInt64Slice
	KindFloat64Slice
)

// Value is a tagged union over the kinds spec §3 names.
type Value struct {
	kind        Kind
	str         string
	num         uint64 // bool/int64/float64 bit pattern
	strSlice    []string
	boolSlice   []bool
	int64Slice  []int64
	float64Slice []float64
}

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// StringValue constructs a Value of kind string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// BoolValue constructs a Value of kind bool.
func BoolValue(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

// Int64Value constructs a Value of kind long.
func Int64Value(i int64) Value { return Value{kind: KindInt64, num: uint64(i)} }

// Float64Value constructs a Value of kind double.
func Float64Value(f float64) Value { return Value{kind: KindFloat64, num: float64bits(f)} }

// StringSliceValue constructs a Value of kind string-array.
func StringSliceValue(ss []string) Value {
	return Value{kind: KindStringSlice, strSlice: append([]string(nil), ss...)}
}

// BoolSliceValue constructs a Value of kind bool-array.
func BoolSliceValue(bs []bool) Value {
	return Value{kind: KindBoolSlice, boolSlice: append([]bool(nil), bs...)}
}

// Int64SliceValue constructs a Value of kind long-array.
func Int64SliceValue(is []int64) Value {
	return Value{kind: KindInt64Slice, int64Slice: append([]int64(nil), is...)}
}

// Float64SliceValue constructs a Value of kind double-array.
func Float64SliceValue(fs []float64) Value {
	return Value{kind: KindFloat64Slice, float64Slice: append([]float64(nil), fs...)}
}

// AsString returns the string payload; valid only when Kind() == KindString.
func (v Value) AsString() string { return v.str }

// AsBool returns the bool payload; valid only when Kind() == KindBool.
func (v Value) AsBool() bool { return v.num != 0 }

// AsInt64 returns the int64 payload; valid only when Kind() == KindInt64.
func (v Value) AsInt64() int64 { return int64(v.num) }

// AsFloat64 returns the float64 payload; valid only when Kind() == KindFloat64.
func (v Value) AsFloat64() float64 { return float64frombits(v.num) }

// AsStringSlice returns the string-array payload.
func (v Value) AsStringSlice() []string { return v.strSlice }

// AsBoolSlice returns the bool-array payload.
func (v Value) AsBoolSlice() []bool { return v.boolSlice }

// AsInt64Slice returns the long-array payload.
func (v Value) AsInt64Slice() []int64 { return v.int64Slice }

// AsFloat64Slice returns the double-array payload.
func (v Value) AsFloat64Slice() []float64 { return v.float64Slice }

// Emit renders the value for debugging/logging purposes.
func (v Value) Emit() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindInt64:
		return fmt.Sprintf("%d", v.AsInt64())
	case KindFloat64:
		return fmt.Sprintf("%g", v.AsFloat64())
	case KindStringSlice:
		return fmt.Sprintf("%v", v.strSlice)
	case KindBoolSlice:
		return fmt.Sprintf("%v", v.boolSlice)
	case KindInt64Slice:
		return fmt.Sprintf("%v", v.int64Slice)
	case KindFloat64Slice:
		return fmt.Sprintf("%v", v.float64Slice)
	default:
		return "<invalid>"
	}
}

// KeyValue pairs a non-empty key with a Value.
type KeyValue struct {
	Key   string
	Value Value
}

// String constructs a string KeyValue.
func String(k, v string) KeyValue { return KeyValue{Key: k, Value: StringValue(v)} }

// Bool constructs a bool KeyValue.
func Bool(k string, v bool) KeyValue { return KeyValue{Key: k, Value: BoolValue(v)} }

// Int64 constructs a long KeyValue.
func Int64(k string, v int64) KeyValue { return KeyValue{Key: k, Value: Int64Value(v)} }

// Float64 constructs a double KeyValue.
func Float64(k string, v float64) KeyValue { return KeyValue{Key: k, Value: Float64Value(v)} }
