package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the loosely-typed data a ledger node
// returns. Only Null, String, Number, Bool, Array and Object implement it.
//
// Numbers keep their literal text. Ledger payloads routinely carry u64
// quantities that do not fit in float64, and the same quantity may arrive
// either as a JSON number or as a decimal string.
type Value interface {
	payloadValue() // Sealed
}

// Null represents a JSON null.
type Null struct{}

func (Null) payloadValue() {}

// String represents a string value.
type String string

func (String) payloadValue() {}

// Number represents a numeric value by its literal text (e.g. "42", "1.5e3").
type Number string

func (Number) payloadValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) payloadValue() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) payloadValue() {}

// Object represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) payloadValue() {}

// Uint64 parses the number as an unsigned 64-bit integer.
// Returns false for negatives, fractions and out-of-range values.
func (n Number) Uint64() (uint64, bool) {
	u, err := strconv.ParseUint(string(n), 10, 64)
	if err != nil {
		return 0, false
	}
	return u, true
}

// Int64 parses the number as a signed 64-bit integer.
func (n Number) Int64() (int64, bool) {
	i, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float64 parses the number as a float. NaN and infinities are rejected.
func (n Number) Float64() (float64, bool) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Get returns the value stored under key.
func (obj Object) Get(key string) (Value, bool) {
	if obj == nil {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

// Object returns the nested object stored under key, if any.
func (obj Object) Object(key string) (Object, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return nil, false
	}
	o, ok := v.(Object)
	return o, ok
}

// First returns the value of the first key in keys that is present and not
// null, along with the key that matched.
func (obj Object) First(keys ...string) (Value, string, bool) {
	for _, k := range keys {
		v, ok := obj.Get(k)
		if !ok {
			continue
		}
		if _, isNull := v.(Null); isNull {
			continue
		}
		return v, k, true
	}
	return nil, "", false
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
// Go's default string comparison uses UTF-8, which orders supplementary
// plane characters differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// ParseJSON decodes JSON into a Value, preserving numeric literals.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse payload: trailing data after JSON value")
	}

	return FromAny(raw)
}

// FromAny converts a decoded Go value (as produced by encoding/json with
// UseNumber, or by yaml.v3 into any) into a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return Number(val.String()), nil
	case int:
		return Number(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return Number(strconv.FormatInt(val, 10)), nil
	case uint64:
		return Number(strconv.FormatUint(val, 10)), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-finite number %v", val)
		}
		return Number(strconv.FormatFloat(val, 'f', -1, 64)), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			pv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = pv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			pv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = pv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToAny converts a Value into plain Go values suitable for encoding/json.
// Numbers become json.Number so their literal text is preserved.
func ToAny(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Number:
		return json.Number(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

// Text returns the scalar text of a String or Number value.
func Text(v Value) (string, bool) {
	switch val := v.(type) {
	case String:
		return string(val), true
	case Number:
		return string(val), true
	default:
		return "", false
	}
}

// IsNumericText reports whether s is a JSON number literal.
func IsNumericText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}
