package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/resolve"
	"github.com/roach88/ledgerlens/internal/store"
	"github.com/roach88/ledgerlens/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	client   ledger.Client
	fake     *testutil.Ledger // nil on the sqlite backend
	resolver *resolve.Resolver
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each run builds a fresh ledger from the scenario's snapshot. Execution
// errors (a snapshot the store rejects) are returned as err; failed
// expectations are reported in Result.
func Run(scenario *Scenario) (*Result, error) {
	if scenario.Ledger == nil {
		return nil, fmt.Errorf("scenario %s has no ledger", scenario.Name)
	}
	ctx := context.Background()

	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	switch scenario.Backend {
	case BackendSQLite:
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		if _, err := st.Import(ctx, scenario.Ledger); err != nil {
			return nil, fmt.Errorf("failed to import snapshot: %w", err)
		}
		h.client = st
	default:
		h.fake = testutil.FromSnapshot(scenario.Ledger)
		for _, f := range scenario.Faults {
			h.fake.Fail(testutil.Method(f.Method), errors.New(f.Error))
		}
		h.client = h.fake
	}

	h.resolver = resolve.New(h.client, scenario.Settings.Settings(),
		resolve.WithLogger(h.logger),
		resolve.WithTraceIDGenerator(testutil.NewFixedTraceIDGenerator(scenario.TraceID)),
	)

	result := NewResult()
	for i, req := range scenario.Requests {
		ev := h.resolve(ctx, i, req, scenario.Context)
		result.Trace = append(result.Trace, ev)
		if req.Expect != nil {
			for _, msg := range checkExpect(ev, req.Expect) {
				result.AddError(fmt.Sprintf("requests[%d] %s: %s", i, req.ID, msg))
			}
		}
	}

	if h.fake != nil {
		result.Calls = make(map[string]int, len(validMethods))
		for _, m := range validMethods {
			result.Calls[string(m)] = h.fake.Calls(m)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// resolve runs one request and records it.
func (h *Harness) resolve(ctx context.Context, index int, req Request, cs ContextSpec) TraceEvent {
	rc := resolve.Context{RegistryID: cs.Registry, RequesterID: cs.Requester}
	if req.Requester != "" {
		rc.RequesterID = req.Requester
	}

	res, err := h.resolver.Resolve(ctx, req.ID, rc)
	ev := TraceEvent{
		Request: index,
		ID:      req.ID,
		Outcome: classify(err),
		Steps:   []string{},
	}

	var re *resolve.Error
	if errors.As(err, &re) {
		ev.Code = string(re.Code)
	}
	if res != nil {
		ev.Steps = stepStrings(res.Steps)
		if res.Record != nil {
			ev.Strategy = res.Strategy
			ev.Match = res.Match
			ev.RecordID = res.Record.ID
			ev.Key = res.Record.Key
			ev.Title = res.Record.Title
			ev.Record = res.Record
		}
	}

	h.logger.Info("request resolved",
		"request", index,
		"id", req.ID,
		"outcome", ev.Outcome,
		"strategy", ev.Strategy,
	)
	return ev
}

// classify maps a Resolve error to a request outcome.
func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeResolved
	case resolve.IsNotFound(err):
		return OutcomeNotFound
	case resolve.IsFoundButUnavailable(err):
		return OutcomeUnavailable
	default:
		return OutcomeTransport
	}
}

// checkExpect compares a request's trace event with its expect clause.
func checkExpect(ev TraceEvent, want *ExpectClause) []string {
	var errs []string
	if ev.Outcome != want.Outcome {
		errs = append(errs, fmt.Sprintf("outcome = %s, want %s", ev.Outcome, want.Outcome))
	}
	if want.Strategy != "" && ev.Strategy != want.Strategy {
		errs = append(errs, fmt.Sprintf("strategy = %q, want %q", ev.Strategy, want.Strategy))
	}
	if want.Match != "" && ev.Match != want.Match {
		errs = append(errs, fmt.Sprintf("match = %q, want %q", ev.Match, want.Match))
	}
	if want.Steps != nil && !stringsEqual(ev.Steps, want.Steps) {
		errs = append(errs, fmt.Sprintf("steps = %v, want %v", ev.Steps, want.Steps))
	}
	if len(want.Record) > 0 {
		if ev.Record == nil {
			errs = append(errs, "record expected but none resolved")
		} else if err := matchRecord(ev.Record, want.Record); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// matchRecord checks that every expected field equals the record's JSON
// rendering of it. Both sides go through yaml.v3 so that numbers compare
// with the same Go types.
func matchRecord(rec *resolve.Record, want map[string]any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(data, &got); err != nil {
		return fmt.Errorf("reparse record: %w", err)
	}

	for _, key := range sortedKeys(want) {
		actual, ok := got[key]
		if !ok {
			return fmt.Errorf("record field %q not present", key)
		}
		if !valuesEqual(actual, want[key]) {
			return fmt.Errorf("record field %q = %v (type %T), want %v (type %T)", key, actual, actual, want[key], want[key])
		}
	}
	return nil
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
