package resolve

import "github.com/google/uuid"

// TraceIDGenerator generates the id that correlates one Resolve call's log
// records, spans and steps. Implemented by UUIDv7Generator (production) and
// testutil.FixedTraceIDGenerator (tests).
type TraceIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 trace ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
