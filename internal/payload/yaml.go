package payload

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Doc wraps a Value so it can sit inside YAML- or JSON-tagged structs
// (snapshot fixtures, harness scenarios).
type Doc struct {
	Value Value
}

// IsZero reports whether the document was absent in the source.
func (d Doc) IsZero() bool {
	return d.Value == nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Scalars keep their literal text,
// so `key: 18446744073709551615` stays a valid u64 Number.
func (d *Doc) UnmarshalYAML(node *yaml.Node) error {
	v, err := FromYAML(node)
	if err != nil {
		return err
	}
	d.Value = v
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Doc) UnmarshalJSON(data []byte) error {
	v, err := ParseJSON(data)
	if err != nil {
		return err
	}
	d.Value = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Doc) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(d.Value)
}

// FromYAML converts a YAML node tree into a Value.
func FromYAML(node *yaml.Node) (Value, error) {
	if node == nil {
		return Null{}, nil
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null{}, nil
		}
		return FromYAML(node.Content[0])

	case yaml.AliasNode:
		return FromYAML(node.Alias)

	case yaml.MappingNode:
		obj := make(Object, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			v, err := FromYAML(valNode)
			if err != nil {
				return nil, fmt.Errorf("line %d: key %q: %w", keyNode.Line, keyNode.Value, err)
			}
			obj[keyNode.Value] = v
		}
		return obj, nil

	case yaml.SequenceNode:
		arr := make(Array, len(node.Content))
		for i, elem := range node.Content {
			v, err := FromYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("line %d: index %d: %w", elem.Line, i, err)
			}
			arr[i] = v
		}
		return arr, nil

	case yaml.ScalarNode:
		return scalarFromYAML(node)

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}

func scalarFromYAML(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			var decoded bool
			if derr := node.Decode(&decoded); derr != nil {
				return nil, fmt.Errorf("line %d: invalid bool %q", node.Line, node.Value)
			}
			b = decoded
		}
		return Bool(b), nil
	case "!!int", "!!float":
		if IsNumericText(node.Value) {
			return Number(node.Value), nil
		}
		// Hex, octal, underscores and .inf forms go through yaml's own decoder.
		var decoded any
		if err := node.Decode(&decoded); err != nil {
			return nil, fmt.Errorf("line %d: invalid number %q: %w", node.Line, node.Value, err)
		}
		return FromAny(decoded)
	default:
		return String(node.Value), nil
	}
}
