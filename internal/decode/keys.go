package decode

import (
	"strconv"
	"strings"

	"github.com/roach88/ledgerlens/internal/payload"
)

// EnumerationKey decodes a table entry's enumeration key.
//
// Keys arrive as raw numbers, as decimal strings, or wrapped in a name
// object such as {"type": "u64", "value": "7"}. The decoder tries, in order:
//  1. v itself as a positive integer
//  2. v["value"] as a positive integer
//  3. every property of v, in canonical key order, as a positive integer
//
// Zero, negatives, fractions and values beyond uint64 are rejected.
func EnumerationKey(v payload.Value) (uint64, bool) {
	if k, ok := positiveInt(v); ok {
		return k, true
	}

	obj, ok := v.(payload.Object)
	if !ok {
		return 0, false
	}
	if inner, ok := obj.Get("value"); ok {
		if k, ok := positiveInt(inner); ok {
			return k, true
		}
	}
	for _, name := range obj.SortedKeys() {
		if k, ok := positiveInt(obj[name]); ok {
			return k, true
		}
	}
	return 0, false
}

// embeddedKey decodes a record's own numeric key: a positive integer, or a
// {"value": n} wrapper around one. No property scan.
func embeddedKey(v payload.Value) (uint64, bool) {
	if k, ok := positiveInt(v); ok {
		return k, true
	}
	if obj, ok := v.(payload.Object); ok {
		if inner, ok := obj.Get("value"); ok {
			return positiveInt(inner)
		}
	}
	return 0, false
}

func positiveInt(v payload.Value) (uint64, bool) {
	var text string
	switch val := v.(type) {
	case payload.Number:
		text = string(val)
	case payload.String:
		text = strings.TrimSpace(string(val))
	default:
		return 0, false
	}

	k, err := strconv.ParseUint(text, 10, 64)
	if err != nil || k == 0 {
		return 0, false
	}
	return k, true
}

// FormatKey renders a numeric key the way candidates are compared.
func FormatKey(k uint64) string {
	return strconv.FormatUint(k, 10)
}
