package variant

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// FromGo converts a Go value to Value.
// Supports nil, bool, integers, floats, strings, Value, slices and
// maps with string keys. Map keys are sorted because Go maps have no order.
func FromGo(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return x, nil
	case bool:
		return NewBool(x), nil
	case int:
		return NewInt(int64(x)), nil
	case int64:
		return NewInt(x), nil
	case float64:
		return NewFloat(x), nil
	case string:
		return NewString(x), nil
	case []Value:
		return NewArray(x...), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("value %d overflows int64", u)
		}
		return NewInt(int64(u)), nil
	case reflect.Float32:
		return NewFloat(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		arr := make([]Value, n)
		for i := 0; i < n; i++ {
			el, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = el
		}
		return NewArray(arr...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		entries := make([]DictEntry, 0, len(keys))
		for _, k := range keys {
			el, err := FromGo(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			entries = append(entries, DictEntry{Key: NewString(k), Value: el})
		}
		return NewDict(entries...), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Value{}, nil
		}
		return FromGo(rv.Elem().Interface())
	}
	return Value{}, fmt.Errorf("unsupported type %T", v)
}

// Interface converts v to a plain Go value: nil, bool, int64, float64,
// string, []any or map[string]any. Dictionary keys that are not strings
// are converted to their literal representation.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return v.i
	case Float:
		return v.f
	case String:
		return v.s
	case Array:
		res := make([]any, len(v.arr))
		for i, el := range v.arr {
			res[i] = el.Interface()
		}
		return res
	case Dict:
		res := make(map[string]any, len(v.dict))
		for _, e := range v.dict {
			res[DictKeyString(e.Key)] = e.Value.Interface()
		}
		return res
	}
	return nil
}

// DictKeyString returns k as a string usable as a key in formats
// that only allow string keys
func DictKeyString(k Value) string {
	if s, ok := k.Str(); ok {
		return s
	}
	return Write(k)
}
