// Package variant implements the typed values stored in a config file
// and their text representation.
//
// A Value is one of: nil, bool, int (int64), float (float64), string,
// array of values or an ordered dictionary mapping values to values.
//
// Write / AppendLiteral encode a Value as a literal and Parser decodes
// a stream of "[section]" tags and "key=literal" assignments.
// Writing and parsing a literal round-trips.
package variant

import (
	"fmt"
	"math"
)

// Kind is a type of a Value
type Kind uint8

const (
	Nil Kind = iota
	Bool
	Int
	Float
	String
	Array
	Dict
)

var kindNames = [...]string{
	Nil:    "nil",
	Bool:   "bool",
	Int:    "int",
	Float:  "float",
	String: "string",
	Array:  "array",
	Dict:   "dict",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DictEntry is a single key / value pair of a dictionary
type DictEntry struct {
	Key   Value
	Value Value
}

// Value is a tagged union of supported types.
// The zero value is Nil.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	dict []DictEntry
}

// NewBool returns a bool Value
func NewBool(b bool) Value {
	return Value{kind: Bool, b: b}
}

// NewInt returns an int Value
func NewInt(i int64) Value {
	return Value{kind: Int, i: i}
}

// NewFloat returns a float Value
func NewFloat(f float64) Value {
	return Value{kind: Float, f: f}
}

// NewString returns a string Value
func NewString(s string) Value {
	return Value{kind: String, s: s}
}

// NewArray returns an array Value. A nil array is an empty array, not Nil.
func NewArray(a ...Value) Value {
	if a == nil {
		a = []Value{}
	}
	return Value{kind: Array, arr: a}
}

// NewDict returns a dictionary Value with entries in the given order.
// Later entries with a duplicate key replace the value of the earlier one.
func NewDict(entries ...DictEntry) Value {
	d := Value{kind: Dict, dict: []DictEntry{}}
	for _, e := range entries {
		d.dict = dictSet(d.dict, e.Key, e.Value)
	}
	return d
}

func dictSet(entries []DictEntry, k, v Value) []DictEntry {
	for i := range entries {
		if Equal(entries[i].Key, k) {
			entries[i].Value = v
			return entries
		}
	}
	return append(entries, DictEntry{Key: k, Value: v})
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNil() bool {
	return v.kind == Nil
}

// Bool returns the value if v is a Bool
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == Bool
}

// Int returns the value if v is an Int
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == Int
}

// Float returns the value if v is a Float. Int values are converted.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Float:
		return v.f, true
	case Int:
		return float64(v.i), true
	}
	return 0, false
}

// Str returns the value if v is a String
func (v Value) Str() (string, bool) {
	return v.s, v.kind == String
}

// Array returns elements if v is an Array. The slice is shared.
func (v Value) Array() ([]Value, bool) {
	return v.arr, v.kind == Array
}

// Dict returns entries if v is a Dict. The slice is shared.
func (v Value) Dict() ([]DictEntry, bool) {
	return v.dict, v.kind == Dict
}

// Lookup returns value for a key if v is a Dict
func (v Value) Lookup(key Value) (Value, bool) {
	for _, e := range v.dict {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Len returns number of elements of an Array or Dict, length of a String
// and 0 for everything else
func (v Value) Len() int {
	switch v.kind {
	case String:
		return len(v.s)
	case Array:
		return len(v.arr)
	case Dict:
		return len(v.dict)
	}
	return 0
}

// String returns the literal representation of v
func (v Value) String() string {
	return Write(v)
}

// Equal returns true if a and b have the same kind and the same value.
// Unlike ==, NaN floats are equal to each other. Dictionaries
// are equal if they have equal entries in the same order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Nil:
		return true
	case Bool:
		return a.b == b.b
	case Int:
		return a.i == b.i
	case Float:
		if math.IsNaN(a.f) && math.IsNaN(b.f) {
			return true
		}
		return a.f == b.f
	case String:
		return a.s == b.s
	case Array:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case Dict:
		if len(a.dict) != len(b.dict) {
			return false
		}
		for i := range a.dict {
			if !Equal(a.dict[i].Key, b.dict[i].Key) || !Equal(a.dict[i].Value, b.dict[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
