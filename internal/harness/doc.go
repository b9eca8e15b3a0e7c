// Package harness runs resolution scenarios against a fixture ledger.
//
// A scenario pairs a ledger snapshot with a list of resolve requests and
// the outcome each should produce. The harness builds the ledger, resolves
// every request through the full cascade, checks expectations and
// assertions, and records a trace suitable for golden comparison.
//
// # Scenario Format
//
//	name: table_suffix_match
//	description: "String enumeration keys resolve from a padded object id"
//	backend: memory            # or sqlite
//	snapshot: ../snapshots/marketplace.yaml
//	context:
//	  registry: "0xreg"
//	  requester: "0xb0b"
//	faults:
//	  - method: GetEntryValue
//	    error: "connection reset"
//	requests:
//	  - id: "0x...07"
//	    expect:
//	      outcome: resolved
//	      strategy: table
//	      match: suffix
//	      record: {title: Indexer, key: 7}
//	      steps: ["direct:miss", "table:hit"]
//	assertions:
//	  - type: strategy_count
//	    strategy: table
//	    count: 1
//
// The snapshot path is relative to the scenario file. A scenario may embed
// the snapshot under ledger: instead.
//
// # Assertion Types
//
//   - step_outcome: a request's steps include step:outcome
//   - strategy_count: exactly N requests resolved through a strategy
//   - call_count: a ledger method was called exactly N times (memory only)
//
// # Deterministic Testing
//
// Every request in a scenario shares a fixed trace id (trace_id, or
// "test-trace-default"), logs are discarded, and the sqlite backend uses
// an in-memory database. Runs are byte-identical, which golden files rely
// on.
package harness
