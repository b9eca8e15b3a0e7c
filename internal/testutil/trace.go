package testutil

// FixedTraceIDGenerator returns the same trace id on every call.
//
// Golden outputs embed the trace id, so scenario runs use a fixed one to
// stay byte-identical across runs.
//
// Thread-safety: FixedTraceIDGenerator is stateless and safe for concurrent use.
type FixedTraceIDGenerator struct {
	id string
}

// NewFixedTraceIDGenerator creates a fixed generator. An empty id falls back
// to "test-trace-default".
func NewFixedTraceIDGenerator(id string) *FixedTraceIDGenerator {
	if id == "" {
		id = "test-trace-default"
	}
	return &FixedTraceIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedTraceIDGenerator) Generate() string {
	return g.id
}
