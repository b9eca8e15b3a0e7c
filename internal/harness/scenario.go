package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ledgerlens/internal/ledger"
	"github.com/roach88/ledgerlens/internal/resolve"
	"github.com/roach88/ledgerlens/internal/testutil"
)

// Backends a scenario can run against.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Scenario defines a resolution scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend selects the ledger implementation. Empty means memory.
	Backend string `yaml:"backend,omitempty"`

	// Snapshot is a snapshot fixture path, relative to the scenario file.
	// Exactly one of Snapshot and Ledger is required.
	Snapshot string `yaml:"snapshot,omitempty"`

	// Ledger is an inline snapshot.
	Ledger *ledger.Snapshot `yaml:"ledger,omitempty"`

	// Context is the default addressing for every request.
	Context ContextSpec `yaml:"context"`

	// Settings override resolver defaults.
	Settings SettingsSpec `yaml:"settings,omitempty"`

	// Faults inject ledger failures (memory backend only).
	Faults []Fault `yaml:"faults,omitempty"`

	// Requests are resolved in order.
	Requests []Request `yaml:"requests"`

	// Assertions are checked after all requests ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// TraceID is the fixed trace id. Empty means "test-trace-default".
	TraceID string `yaml:"trace_id,omitempty"`
}

// ContextSpec is the YAML form of resolve.Context.
type ContextSpec struct {
	Registry  string `yaml:"registry"`
	Requester string `yaml:"requester,omitempty"`
}

// SettingsSpec is the YAML form of resolve.Settings.
type SettingsSpec struct {
	RecordType        string `yaml:"record_type,omitempty"`
	TableField        string `yaml:"table_field,omitempty"`
	CreationEventType string `yaml:"creation_event_type,omitempty"`
	PageSize          int    `yaml:"page_size,omitempty"`
	FanOut            int    `yaml:"fan_out,omitempty"`
	EventWindow       int    `yaml:"event_window,omitempty"`
	OwnedScanLimit    int    `yaml:"owned_scan_limit,omitempty"`
}

// Settings converts the YAML settings to resolve.Settings.
func (s SettingsSpec) Settings() resolve.Settings {
	return resolve.Settings{
		RecordType:        s.RecordType,
		TableField:        s.TableField,
		CreationEventType: s.CreationEventType,
		PageSize:          s.PageSize,
		FanOut:            s.FanOut,
		EventWindow:       s.EventWindow,
		OwnedScanLimit:    s.OwnedScanLimit,
	}
}

// Fault makes every call to Method fail with Error.
type Fault struct {
	Method string `yaml:"method"`
	Error  string `yaml:"error"`
}

// Request is one resolve call.
type Request struct {
	// ID is the identifier to resolve.
	ID string `yaml:"id"`

	// Requester overrides the scenario's requester for this call.
	Requester string `yaml:"requester,omitempty"`

	// Expect is checked against the call's outcome. Nil skips checks.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a request.
type ExpectClause struct {
	// Outcome is one of resolved, not_found, unavailable, transport.
	Outcome string `yaml:"outcome"`

	// Strategy and Match apply to resolved requests.
	Strategy string `yaml:"strategy,omitempty"`
	Match    string `yaml:"match,omitempty"`

	// Record is a subset match against the record's JSON fields.
	Record map[string]any `yaml:"record,omitempty"`

	// Steps, when set, must equal the steps taken ("name:outcome").
	Steps []string `yaml:"steps,omitempty"`
}

// Assertion validates the whole run.
type Assertion struct {
	// Type is step_outcome, strategy_count or call_count.
	Type string `yaml:"type"`

	// Request indexes Requests (step_outcome).
	Request int `yaml:"request,omitempty"`

	// Step and Outcome name the step result (step_outcome).
	Step    string `yaml:"step,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	// Strategy names the winning step (strategy_count).
	Strategy string `yaml:"strategy,omitempty"`

	// Method names a ledger method (call_count).
	Method string `yaml:"method,omitempty"`

	// Count is the expected count (strategy_count, call_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStepOutcome   = "step_outcome"
	AssertStrategyCount = "strategy_count"
	AssertCallCount     = "call_count"
)

var (
	validOutcomes = []string{OutcomeResolved, OutcomeNotFound, OutcomeUnavailable, OutcomeTransport}
	validMethods  = []testutil.Method{
		testutil.MethodGetObject,
		testutil.MethodGetContainerHandle,
		testutil.MethodListEntries,
		testutil.MethodGetEntryValue,
		testutil.MethodQueryCreationEvents,
		testutil.MethodListOwnedObjects,
	}
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, and a referenced snapshot is loaded into Ledger.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if s.Snapshot != "" {
		if s.Ledger != nil {
			return nil, fmt.Errorf("invalid scenario: snapshot and ledger are mutually exclusive")
		}
		snapPath := s.Snapshot
		if !filepath.IsAbs(snapPath) {
			snapPath = filepath.Join(filepath.Dir(path), snapPath)
		}
		snap, err := ledger.LoadSnapshot(snapPath)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
		s.Ledger = snap
	}
	if s.Ledger == nil {
		return nil, fmt.Errorf("invalid scenario: snapshot or ledger is required")
	}
	return s, nil
}

// ParseScenario parses scenario YAML without resolving a snapshot path.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Backend {
	case "", BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	memory := s.Backend != BackendSQLite

	if s.Ledger != nil {
		if err := s.Ledger.Validate(); err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
	}

	if len(s.Faults) > 0 && !memory {
		return fmt.Errorf("faults require the memory backend")
	}
	for i, f := range s.Faults {
		if !slices.Contains(validMethods, testutil.Method(f.Method)) {
			return fmt.Errorf("faults[%d]: unknown method %q", i, f.Method)
		}
		if f.Error == "" {
			return fmt.Errorf("faults[%d]: error is required", i)
		}
	}

	if len(s.Requests) == 0 {
		return fmt.Errorf("requests list is required and must be non-empty")
	}
	for i, r := range s.Requests {
		if r.Expect != nil && !slices.Contains(validOutcomes, r.Expect.Outcome) {
			return fmt.Errorf("requests[%d].expect: outcome must be one of %v, got %q", i, validOutcomes, r.Expect.Outcome)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Requests), memory); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, requests int, memory bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStepOutcome:
		if a.Request < 0 || a.Request >= requests {
			return fmt.Errorf("assertions[%d]: request %d out of range", index, a.Request)
		}
		if a.Step == "" || a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: step and outcome are required for step_outcome", index)
		}
	case AssertStrategyCount:
		if a.Strategy == "" {
			return fmt.Errorf("assertions[%d]: strategy is required for strategy_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for strategy_count", index)
		}
	case AssertCallCount:
		if !memory {
			return fmt.Errorf("assertions[%d]: call_count requires the memory backend", index)
		}
		if !slices.Contains(validMethods, testutil.Method(a.Method)) {
			return fmt.Errorf("assertions[%d]: unknown method %q", index, a.Method)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
