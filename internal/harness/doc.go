// Package harness runs verification scenarios against CUE units.
//
// A scenario names a unit and the verdict each root is expected to get.
// The harness compiles the unit, verifies every root into a fresh
// in-memory verdict log, reads the verdicts back and compares them with
// the expectations.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: widen
//	description: "storing an i32 sum into an i64 local is rejected"
//	unit: ../units/widen.cue
//	options:
//	  fail_fast: false
//	  memoize: true
//	expect:
//	  - method: widen
//	    root: 0
//	    code: LOCAL_ASSIGNMENT_WRONG
//	  - method: widen
//	    root: 1
//	    ok: true
//	assertions:
//	  - type: failure_count
//	    count: 1
//	  - type: graph_contains
//	    method: widen
//	    root: 0
//	    text: 'color = "red"'
//
// The unit path is relative to the scenario file. A scenario for a unit
// that must not compile sets compile_error to a substring of the expected
// message instead of listing expectations.
//
// # Assertion Types
//
//   - failure_count: the run has exactly count failing roots
//   - code_count: exactly count failures carry code
//   - method_clean: every root of method typechecks
//   - graph_contains: the diagnostic graph of a failing root contains text
//
// # Deterministic Testing
//
// Every run uses the same fixed run ID and a fresh logical clock, so the
// verdicts of a scenario are identical across runs and can be compared
// against golden files.
package harness
