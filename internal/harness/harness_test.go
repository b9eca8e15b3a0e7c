package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario in testdata/scenarios against its golden
// trace.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			require.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

const inlineScenario = `
name: inline
description: "An inline ledger resolves a direct hit"
ledger:
  objects:
    - id: "0xa1"
      type: "0x2a::marketplace::Project"
      owner: "0xalice"
      content:
        fields: {project_id: "5", title: Five}
context:
  registry: "0xreg"
requests:
  - id: "0xa1"
    expect:
      outcome: resolved
      strategy: direct
      match: exact
      record: {id: "0xa1", key: 5, title: Five}
      steps: ["direct:hit"]
`

func TestRun_InlineLedger(t *testing.T) {
	scenario, err := ParseScenario([]byte(inlineScenario))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 1)
	ev := result.Trace[0]
	assert.Equal(t, OutcomeResolved, ev.Outcome)
	assert.Equal(t, "0xa1", ev.RecordID)
	require.NotNil(t, ev.Key)
	assert.Equal(t, uint64(5), *ev.Key)
	assert.Equal(t, 1, result.Calls["GetObject"])
	assert.Equal(t, 0, result.Calls["ListEntries"])
}

func TestRun_ExpectationFailuresReported(t *testing.T) {
	scenario, err := ParseScenario([]byte(inlineScenario))
	require.NoError(t, err)
	scenario.Requests[0].Expect = &ExpectClause{
		Outcome:  OutcomeResolved,
		Strategy: "table",
		Record:   map[string]any{"title": "Six", "missing_field": 1},
		Steps:    []string{"direct:miss"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, `strategy = "direct", want "table"`)
	assert.Contains(t, joined, "steps = [direct:hit], want [direct:miss]")
	assert.Contains(t, joined, `record field "missing_field" not present`)
}

func TestRun_OutcomeMismatch(t *testing.T) {
	scenario, err := ParseScenario([]byte(inlineScenario))
	require.NoError(t, err)
	scenario.Requests[0].ID = "0xdeadbeef"
	scenario.Requests[0].Expect = &ExpectClause{Outcome: OutcomeResolved}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "outcome = not_found, want resolved")
	assert.Equal(t, "NOT_FOUND", result.Trace[0].Code)
}

func TestRun_RecordWithoutResolution(t *testing.T) {
	scenario, err := ParseScenario([]byte(inlineScenario))
	require.NoError(t, err)
	scenario.Requests[0].ID = "0xdeadbeef"
	scenario.Requests[0].Expect = &ExpectClause{
		Outcome: OutcomeNotFound,
		Record:  map[string]any{"title": "Five"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, strings.Join(result.Errors, "\n"), "record expected but none resolved")
}

func TestRun_RequesterOverride(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "marketplace_cascade.yaml"))
	require.NoError(t, err)

	scenario.Context.Requester = ""
	scenario.Assertions = nil
	scenario.Requests = []Request{
		{ID: "42", Expect: &ExpectClause{Outcome: OutcomeNotFound}},
		{ID: "42", Requester: "0xb0b", Expect: &ExpectClause{Outcome: OutcomeResolved, Strategy: "owned-requester"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Trace[0].Steps, "owned-requester:skipped")
}

// The offline store and the in-memory fake must produce the same trace.
func TestRun_BackendParity(t *testing.T) {
	memory, err := LoadScenario(filepath.Join("testdata", "scenarios", "marketplace_cascade.yaml"))
	require.NoError(t, err)
	memory.Assertions = nil

	sqlite := *memory
	sqlite.Backend = BackendSQLite

	memResult, err := Run(memory)
	require.NoError(t, err)
	require.True(t, memResult.Pass, "errors: %v", memResult.Errors)

	sqlResult, err := Run(&sqlite)
	require.NoError(t, err)
	require.True(t, sqlResult.Pass, "errors: %v", sqlResult.Errors)

	memGolden, err := GoldenBytes(memory, memResult)
	require.NoError(t, err)
	sqlGolden, err := GoldenBytes(memory, sqlResult)
	require.NoError(t, err)
	assert.Equal(t, string(memGolden), string(sqlGolden))
	assert.Nil(t, sqlResult.Calls, "the store does not count calls")
}

func TestRun_NoLedger(t *testing.T) {
	_, err := Run(&Scenario{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no ledger")
}

func TestGoldenBytes_Defaults(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{Request: 0, ID: "7", Outcome: OutcomeNotFound, Code: "NOT_FOUND", Steps: []string{}})

	data, err := GoldenBytes(&Scenario{Name: "defaults"}, result)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"backend": "memory"`)
	assert.Contains(t, s, `"trace_id": "test-trace-default"`)
	assert.Contains(t, s, `"steps": []`)
	assert.NotContains(t, s, `"strategy"`)
	assert.True(t, strings.HasSuffix(s, "}\n"))
}
