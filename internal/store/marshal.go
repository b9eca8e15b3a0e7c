package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/ledgerlens/internal/decode"
	"github.com/roach88/ledgerlens/internal/payload"
)

// marshalPayload converts a payload to canonical JSON TEXT for storage.
// A nil payload is stored as JSON null.
func marshalPayload(v payload.Value) (string, error) {
	if v == nil {
		v = payload.Null{}
	}
	data, err := payload.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload parses stored JSON TEXT. Numbers keep their literal text.
func unmarshalPayload(data string) (payload.Value, error) {
	v, err := payload.ParseJSON([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}

// numericKey is the decoded enumeration key column, NULL when the key has
// no numeric reading.
func numericKey(key payload.Value) sql.NullString {
	k, ok := decode.EnumerationKey(key)
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: decode.FormatKey(k), Valid: true}
}
