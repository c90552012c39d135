// Package cellvalue defines the runtime-typed value representation shared by
// the type registry, cell parsers, the expression sandbox, and exploded
// structure assembly.
package cellvalue

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant carried by a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindTuple
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "array"
	case KindMap:
		return "map"
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// MapEntry is a single key/value pair in an insertion-ordered Map value.
type MapEntry struct {
	Key   Value
	Value Value
}

// RecordEntry is a single named field in an insertion-ordered Record value.
type RecordEntry struct {
	Name  string
	Value Value
}

// Value is an immutable, runtime-typed tabular value. The zero Value is Nil.
//
// Numeric identity is strict: Int and Float are distinct kinds even when a
// Float happens to hold an integral quantity. NaN is never equal to itself,
// matching IEEE 754 (see Equal).
type Value struct {
	kind    Kind
	boolean bool
	integer int64
	float   float64
	str     string
	list    []Value
	entries []MapEntry
	fields  []RecordEntry
}

// Nil is the absent/null value.
var Nil = Value{kind: KindNil}

func Bool(b bool) Value     { return Value{kind: KindBool, boolean: b} }
func Int(i int64) Value     { return Value{kind: KindInt, integer: i} }
func Float(f float64) Value { return Value{kind: KindFloat, float: f} }
func String(s string) Value { return Value{kind: KindString, str: s} }

// List constructs an array value. The slice is copied so callers may reuse it.
func List(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Map constructs a map value preserving insertion order of entries.
func Map(entries []MapEntry) Value {
	cp := make([]MapEntry, len(entries))
	copy(cp, entries)
	return Value{kind: KindMap, entries: cp}
}

// Tuple constructs a fixed-arity positional value.
func Tuple(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindTuple, list: cp}
}

// Record constructs a named-field value preserving declaration order of fields.
func Record(fields []RecordEntry) Value {
	cp := make([]RecordEntry, len(fields))
	copy(cp, fields)
	return Value{kind: KindRecord, fields: cp}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNil() bool  { return v.kind == KindNil }
func (v Value) Bool() bool   { return v.boolean }
func (v Value) Int() int64   { return v.integer }
func (v Value) Float() float64 { return v.float }
func (v Value) Str() string  { return v.str }

// List returns the elements of a List or Tuple value.
func (v Value) List() []Value { return v.list }

// Entries returns the key/value pairs of a Map value in insertion order.
func (v Value) Entries() []MapEntry { return v.entries }

// Fields returns the named fields of a Record value in declaration order.
func (v Value) Fields() []RecordEntry { return v.fields }

// Field looks up a named field on a Record value.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Nil, false
}

// Lookup finds the value associated with key in a Map value.
func (v Value) Lookup(key Value) (Value, bool) {
	for _, e := range v.entries {
		if e.Key.Equal(key) {
			return e.Value, true
		}
	}
	return Nil, false
}

// IsScalar reports whether the value is a basic scalar: string, number, or boolean.
// Row primary keys (§3 Row) must satisfy this.
func (v Value) IsScalar() bool {
	switch v.kind {
	case KindBool, KindInt, KindFloat, KindString:
		return true
	default:
		return false
	}
}

// Equal compares two values structurally. Floating point comparison follows
// IEEE 754: NaN is never equal to itself, even to another NaN.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindInt:
		return v.integer == other.integer
	case KindFloat:
		if math.IsNaN(v.float) || math.IsNaN(other.float) {
			return false
		}
		return v.float == other.float
	case KindString:
		return v.str == other.str
	case KindList, KindTuple:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.entries) != len(other.entries) {
			return false
		}
		for _, e := range v.entries {
			ov, ok := other.Lookup(e.Key)
			if !ok || !ov.Equal(e.Value) {
				return false
			}
		}
		return true
	case KindRecord:
		if len(v.fields) != len(other.fields) {
			return false
		}
		for _, f := range v.fields {
			ov, ok := other.Field(f.Name)
			if !ok || !ov.Equal(f.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// StringKey renders a scalar value as the text used for dataset primary-key
// indexing (§3 Row): numbers are stringified so they never collide with
// integer row positions used by positional dataset access.
func (v Value) StringKey() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.integer, 10)
	case KindFloat:
		return formatFloat(v.float)
	case KindBool:
		return strconv.FormatBool(v.boolean)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// GoString renders a value as a debug string, used in diagnostics messages.
func (v Value) GoString() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindInt:
		return strconv.FormatInt(v.integer, 10)
	case KindFloat:
		return formatFloat(v.float)
	case KindString:
		return strconv.Quote(v.str)
	case KindList, KindTuple:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.GoString()
		}
		open, close := "[", "]"
		if v.kind == KindTuple {
			open, close = "(", ")"
		}
		return open + strings.Join(parts, ", ") + close
	case KindMap:
		parts := make([]string, len(v.entries))
		for i, e := range v.entries {
			parts[i] = fmt.Sprintf("%s=%s", e.Key.GoString(), e.Value.GoString())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindRecord:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = fmt.Sprintf("%s=%s", f.Name, f.Value.GoString())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

// SortedRecordFieldNames returns the record's field names in alphabetical
// order, used when synthesizing a Header's __type_spec (§3 Header).
func SortedRecordFieldNames(fields []RecordEntry) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}
