package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Backend      string       `json:"backend"`
	TraceID      string       `json:"trace_id"`
	Trace        []TraceEvent `json:"trace"`
}

// GoldenBytes renders a run as indented JSON with a trailing newline.
func GoldenBytes(scenario *Scenario, result *Result) ([]byte, error) {
	backend := scenario.Backend
	if backend == "" {
		backend = BackendMemory
	}
	traceID := scenario.TraceID
	if traceID == "" {
		traceID = "test-trace-default"
	}

	data, err := json.MarshalIndent(TraceSnapshot{
		ScenarioName: scenario.Name,
		Backend:      backend,
		TraceID:      traceID,
		Trace:        result.Trace,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	data, err := GoldenBytes(scenario, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return result, nil
}
