package harness

import "github.com/roach88/ledgerlens/internal/resolve"

// Request outcomes.
const (
	OutcomeResolved    = "resolved"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeTransport   = "transport"
)

// TraceEvent is the recorded result of one request.
type TraceEvent struct {
	Request  int      `json:"request"`
	ID       string   `json:"id"`
	Outcome  string   `json:"outcome"`
	Code     string   `json:"code,omitempty"`
	Strategy string   `json:"strategy,omitempty"`
	Match    string   `json:"match,omitempty"`
	RecordID string   `json:"record_id,omitempty"`
	Key      *uint64  `json:"key,omitempty"`
	Title    string   `json:"title,omitempty"`
	Steps    []string `json:"steps"`

	// Record is the full resolved record, kept for expectations. Golden
	// files carry only the summary fields above.
	Record *resolve.Record `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per request, in request order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Calls counts ledger calls per method. Only the memory backend
	// records calls.
	Calls map[string]int `json:"calls,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// stepStrings renders steps as "name:outcome".
func stepStrings(steps []resolve.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name + ":" + s.Outcome
	}
	return out
}
