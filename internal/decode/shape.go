package decode

import "github.com/roach88/ledgerlens/internal/payload"

// Shape identifies how deeply a record's attributes are wrapped.
type Shape int

const (
	// ShapeUnknown is a payload with no attribute object at all.
	ShapeUnknown Shape = iota
	// ShapeFlat is an object whose keys are the attributes.
	ShapeFlat
	// ShapeWrapped is one container level: {"fields": {...}} or {"value": {...}}.
	ShapeWrapped
	// ShapeDoubleWrapped is a table-entry container: {"fields": {"value": {...}}}.
	ShapeDoubleWrapped
)

// String returns the name used in logs.
func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeWrapped:
		return "wrapped"
	case ShapeDoubleWrapped:
		return "double-wrapped"
	default:
		return "unknown"
	}
}

// DetectShape reports the wrapping depth of v without decoding it.
func DetectShape(v payload.Value) Shape {
	_, shape := Unwrap(v)
	return shape
}

// Unwrap strips up to two container levels and returns the attribute object.
//
// Level one is the generic "fields" wrapper every ledger object carries.
// Level two is the "value" wrapper of a dynamic-field entry. A value that is
// itself a struct rendering ({"type": ..., "fields": {...}}) is opened as part
// of the same level. A dynamic field holding a scalar, such as an id stored in
// a Table<u64, ID>, has no attribute object and is ShapeUnknown.
func Unwrap(v payload.Value) (payload.Object, Shape) {
	obj, ok := v.(payload.Object)
	if !ok || len(obj) == 0 {
		return nil, ShapeUnknown
	}

	levels := 0
	if inner, ok := obj.Object("fields"); ok {
		obj = inner
		levels++
	}
	if scalarWrapper(obj) {
		return nil, ShapeUnknown
	}
	if inner, ok := valueWrapper(obj); ok {
		obj = inner
		levels++
	}

	if len(obj) == 0 {
		return nil, ShapeUnknown
	}

	switch levels {
	case 0:
		return obj, ShapeFlat
	case 1:
		return obj, ShapeWrapped
	default:
		return obj, ShapeDoubleWrapped
	}
}

// wrapperKeys are the keys a dynamic-field container may carry next to its
// "value". Their presence does not make the container a record.
var wrapperKeys = map[string]bool{"id": true, "name": true, "type": true, "value": true}

// valueWrapper opens a dynamic-field "value" container. An object with any
// key outside wrapperKeys is a record in its own right and is left alone.
func valueWrapper(obj payload.Object) (payload.Object, bool) {
	inner, ok := obj.Object("value")
	if !ok {
		return nil, false
	}
	for k := range obj {
		if !wrapperKeys[k] {
			return nil, false
		}
	}
	if fields, ok := inner.Object("fields"); ok {
		return fields, true
	}
	return inner, true
}

// scalarWrapper reports whether obj is a dynamic-field container whose
// "value" is not an object.
func scalarWrapper(obj payload.Object) bool {
	v, ok := obj["value"]
	if !ok {
		return false
	}
	if _, isObj := v.(payload.Object); isObj {
		return false
	}
	for k := range obj {
		if !wrapperKeys[k] {
			return false
		}
	}
	return true
}
