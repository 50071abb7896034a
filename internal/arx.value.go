package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// ValueKind identifies the variant held by a Value
type ValueKind int

// Value kinds
const (
	ValueKindNull ValueKind = iota
	ValueKindBool
	ValueKindNumber
	ValueKindString
	ValueKindList
	ValueKindMap
)

// Value kind names
const (
	ValueKindNameNull   = "null"
	ValueKindNameBool   = "bool"
	ValueKindNameNumber = "number"
	ValueKindNameString = "string"
	ValueKindNameList   = "list"
	ValueKindNameMap    = "map"
)

// String returns the kind name
func (k ValueKind) String() string {
	switch k {
	case ValueKindBool:
		return ValueKindNameBool
	case ValueKindNumber:
		return ValueKindNameNumber
	case ValueKindString:
		return ValueKindNameString
	case ValueKindList:
		return ValueKindNameList
	case ValueKindMap:
		return ValueKindNameMap
	default:
		return ValueKindNameNull
	}
}

// Value is a context value: null, boolean, number, string, ordered list or
// string-keyed map. The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	list []Value
	m    map[string]Value
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: ValueKindBool, b: b} }

// Number wraps a number
func Number(n float64) Value { return Value{kind: ValueKindNumber, n: n} }

// String wraps a string
func String(s string) Value { return Value{kind: ValueKindString, s: s} }

// List wraps an ordered sequence
func List(items []Value) Value { return Value{kind: ValueKindList, list: items} }

// Map wraps a string-keyed mapping
func Map(m map[string]Value) Value { return Value{kind: ValueKindMap, m: m} }

// Kind returns the variant of v
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == ValueKindNull }

// Items returns the elements of a list value, nil otherwise
func (v Value) Items() []Value {
	if v.kind != ValueKindList {
		return nil
	}
	return v.list
}

// Fields returns the entries of a map value, nil otherwise
func (v Value) Fields() map[string]Value {
	if v.kind != ValueKindMap {
		return nil
	}
	return v.m
}

// Index returns the i-th list element
func (v Value) Index(i int) (Value, bool) {
	if v.kind != ValueKindList || i < 0 || i >= len(v.list) {
		return Null(), false
	}
	return v.list[i], true
}

// Field returns the map entry for key
func (v Value) Field(key string) (Value, bool) {
	if v.kind != ValueKindMap {
		return Null(), false
	}
	f, ok := v.m[key]
	return f, ok
}

// Truthy reports the truthiness of v. Null, false, zero, NaN, the empty
// string and empty containers are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueKindBool:
		return v.b
	case ValueKindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case ValueKindString:
		return v.s != StringValueEmpty
	case ValueKindList:
		return len(v.list) > 0
	case ValueKindMap:
		return len(v.m) > 0
	default:
		return false
	}
}

// Text renders v as output text. Strings are verbatim, numbers use the
// shortest representation, containers are compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case ValueKindBool:
		if v.b {
			return BoolStringTrue
		}
		return BoolStringFalse
	case ValueKindNumber:
		return formatNumber(v.n)
	case ValueKindString:
		return v.s
	case ValueKindList, ValueKindMap:
		return v.jsonText()
	default:
		return StringValueEmpty
	}
}

// String returns a debug representation
func (v Value) String() string {
	text := v.Text()
	if v.kind == ValueKindString {
		text = strconv.Quote(text)
	}
	return fmt.Sprintf("%s(%s)", v.kind, truncateForDisplay(text))
}

// Interface converts v to plain Go values (nil, bool, float64, string,
// []any, map[string]any).
func (v Value) Interface() any {
	switch v.kind {
	case ValueKindBool:
		return v.b
	case ValueKindNumber:
		return v.n
	case ValueKindString:
		return v.s
	case ValueKindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case ValueKindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep equality
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueKindBool:
		return v.b == other.b
	case ValueKindNumber:
		return v.n == other.n
	case ValueKindString:
		return v.s == other.s
	case ValueKindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case ValueKindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, item := range v.m {
			o, ok := other.m[k]
			if !ok || !item.Equal(o) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (v Value) jsonText() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.Interface()); err != nil {
		return fmt.Sprint(v.Interface())
	}
	return string(bytes.TrimRight(buf.Bytes(), string(CharNewline)))
}

func formatNumber(n float64) string {
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func truncateForDisplay(s string) string {
	if len(s) > MaxStringDisplayLength {
		return s[:TruncatedStringLength] + TruncationSuffix
	}
	return s
}

// FromAny converts decoded data (JSON, YAML, HCL or plain Go values) into a
// Value. Unknown scalar types fall back to their fmt representation.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return List(items)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return List(items)
	case map[string]any:
		return Map(MapFromAny(t))
	case map[string]string:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = String(item)
		}
		return Map(m)
	case map[any]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = FromAny(item)
		}
		return Map(m)
	case fmt.Stringer:
		return String(t.String())
	}
	return fromReflect(reflect.ValueOf(x))
}

// MapFromAny converts every entry of m with FromAny
func MapFromAny(m map[string]any) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, item := range m {
		out[k] = FromAny(item)
	}
	return out
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null()
		}
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = FromAny(rv.Index(i).Interface())
		}
		return List(items)
	case reflect.Map:
		if rv.IsNil() {
			return Null()
		}
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = FromAny(iter.Value().Interface())
		}
		return Map(m)
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Invalid:
		return Null()
	default:
		return String(fmt.Sprint(rv.Interface()))
	}
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
