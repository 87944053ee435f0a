// Package harness executes declarative reading-session scenarios.
//
// A scenario wires a complete client session (in-memory store, progress
// manager, history recorder, connectivity monitor, navigator) and
// drives it through a sequence of steps, collecting every change
// notification and navigation decision into a trace. Assertions then
// validate the trace and the final stored state, and golden files pin
// the exact canonical trace bytes.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - do: read
//	    section: 2
//	    subsection: 5
//	  - do: bookmark
//	    section: 2
//	    subsection: 5
//	    category: favorites
//	  - do: login
//	    user: user-42
//	  - do: logout
//	  - do: go-offline
//	  - do: navigate
//	    target: /section/2
//	assertions:
//	  - type: trace_contains
//	    op: progress
//	    identity: guest
//	  - type: final_state
//	    identity: guest
//	    expect:
//	      last_section: 2
//	      last_subsection: 5
//	      bookmarks: 1
//
// # Assertion Types
//
//   - trace_contains: an event with the given op (and identity) occurred
//   - trace_order: events with the given ops occurred in order
//   - trace_count: an op occurred exactly N times
//   - final_state: the stored record for an identity matches expectations
//   - history: the daily history row for (identity, date) matches
//   - navigation: a navigation to the target was decided with the kind
//
// # Deterministic Execution
//
// Every run uses a fixed-start wall clock and sequential event IDs, so
// the same scenario always produces byte-identical traces for golden
// file comparison. Each run gets a fresh in-memory SQLite database.
package harness
