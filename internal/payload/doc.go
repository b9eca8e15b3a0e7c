// Package payload models the raw, loosely-typed data read from a ledger node.
//
// A ledger object, a dynamic-field entry and a creation event all arrive as
// JSON trees whose shape varies between record generations. Value is a
// sealed variant over those trees:
//   - Null, String, Bool: as in JSON
//   - Number: numeric literal kept as text (u64 quantities survive intact)
//   - Array, Object: containers
//
// Payloads are transient. Nothing in this package caches or mutates them
// after construction.
//
// Values can be built from JSON (ParseJSON), from decoded Go values
// (FromAny), or from YAML fixtures (Doc). MarshalCanonical produces
// byte-stable JSON for comparisons and golden files.
package payload
