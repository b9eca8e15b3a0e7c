// Package decode turns raw ledger payloads into flat Project attributes.
//
// Project records were written by several generations of the marketplace
// contract, so the same attribute can appear under different names
// (short_summary vs shortSummary) and at different wrapping depths:
//
//	flat            {"title": ...}
//	wrapped         {"fields": {"title": ...}}
//	double-wrapped  {"fields": {"id": ..., "name": ..., "value": {"fields": {"title": ...}}}}
//
// Unwrap detects the Shape once and dispatches on it; Decode then reads each
// attribute through an ordered alias table. Numeric attributes coerce to 0
// on any parse failure. Missing strings fall back to fixed literals.
//
// Decode never fails. A payload without record attributes decodes to an
// Attributes value whose Empty method reports true.
package decode
