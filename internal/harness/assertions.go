package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", ev.Request, ev.ID, ev.Outcome, ev.Steps)
		}
	}
	return buf.String()
}

// assertStepOutcome checks that one request took a step with the given
// outcome.
func assertStepOutcome(trace []TraceEvent, a Assertion) error {
	want := a.Step + ":" + a.Outcome
	if a.Request < len(trace) {
		for _, s := range trace[a.Request].Steps {
			if s == want {
				return nil
			}
		}
	}
	return &AssertionError{
		Type:     AssertStepOutcome,
		Expected: fmt.Sprintf("request %d to record %s", a.Request, want),
		Actual:   "step outcome not found",
		Trace:    trace,
	}
}

// assertStrategyCount checks how many requests resolved through a
// strategy.
func assertStrategyCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Outcome == OutcomeResolved && ev.Strategy == a.Strategy {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertStrategyCount,
			Expected: fmt.Sprintf("%d requests resolved by %s", a.Count, a.Strategy),
			Actual:   fmt.Sprintf("%d requests", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertCallCount checks how often a ledger method was called.
func assertCallCount(result *Result, a Assertion) error {
	if result.Calls == nil {
		return fmt.Errorf("call_count requires recorded calls")
	}
	if got := result.Calls[a.Method]; got != a.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%d calls to %s", a.Count, a.Method),
			Actual:   fmt.Sprintf("%d calls", got),
		}
	}
	return nil
}

// valuesEqual compares two YAML-decoded values.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}
	return reflect.DeepEqual(actual, expected)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertStepOutcome:
			err = assertStepOutcome(result.Trace, a)
		case AssertStrategyCount:
			err = assertStrategyCount(result.Trace, a)
		case AssertCallCount:
			err = assertCallCount(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
