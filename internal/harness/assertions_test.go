package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Request: 0, ID: "3", Outcome: OutcomeResolved, Strategy: "table", Steps: []string{"direct:miss", "table:hit"}},
		{Request: 1, ID: "9", Outcome: OutcomeUnavailable, Steps: []string{"direct:miss", "table:unavailable"}},
		{Request: 2, ID: "4", Outcome: OutcomeResolved, Strategy: "table", Steps: []string{"direct:miss", "table:hit"}},
	}
	r.Calls = map[string]int{"GetObject": 3, "ListEntries": 3}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertStepOutcome, Request: 1, Step: "table", Outcome: "unavailable"},
		{Type: AssertStrategyCount, Strategy: "table", Count: 2},
		{Type: AssertStrategyCount, Strategy: "event", Count: 0},
		{Type: AssertCallCount, Method: "GetObject", Count: 3},
		{Type: AssertCallCount, Method: "ListOwnedObjects", Count: 0},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"step missing", Assertion{Type: AssertStepOutcome, Request: 0, Step: "event", Outcome: "hit"}, "request 0 to record event:hit"},
		{"step request beyond trace", Assertion{Type: AssertStepOutcome, Request: 9, Step: "direct", Outcome: "miss"}, "step outcome not found"},
		{"strategy count", Assertion{Type: AssertStrategyCount, Strategy: "table", Count: 1}, "Actual: 2 requests"},
		{"call count", Assertion{Type: AssertCallCount, Method: "ListEntries", Count: 1}, "Actual: 3 calls"},
		{"unknown type", Assertion{Type: "vibes"}, `unknown assertion type "vibes"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.a})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertCallCount_NoCalls(t *testing.T) {
	r := sampleResult()
	r.Calls = nil
	errs := EvaluateAssertions(r, []Assertion{{Type: AssertCallCount, Method: "GetObject", Count: 1}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires recorded calls")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertStrategyCount,
		Expected: "1 requests resolved by event",
		Actual:   "0 requests",
		Trace:    sampleResult().Trace,
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: strategy_count")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "[1] 9 unavailable [direct:miss table:unavailable]")
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("broken")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"broken"}, r.Errors)
}
