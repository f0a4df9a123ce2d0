// Package harness runs query scenarios: YAML files that compile a sequence
// of query documents and check what comes out.
//
// # Scenario Format
//
//	name: user_lifecycle
//	description: "Insert, update and read back a user on SQLite"
//	dialect: sqlite
//	execute: true
//	setup:
//	  - CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)
//	steps:
//	  - name: insert
//	    query:
//	      operation: insert
//	      table: { name: users }
//	      rows: [[{ column: id, value: 1 }, { column: name, value: ada }]]
//	    expect:
//	      text: INSERT INTO users (id, name) VALUES (?, ?)
//	      args: [1, ada]
//	      affected: 1
//	  - name: postgres_form
//	    file: queries/find_user.cue
//	    expect:
//	      contains: ["WHERE age > ?"]
//	  - name: bad_between
//	    query: { operation: select, table: { name: users },
//	             where: [{ column: age, op: BETWEEN, values: [1] }] }
//	    expect: { error: E107 }
//	assertions:
//	  - type: final_state
//	    table: users
//	    where: { id: 1 }
//	    expect: { name: ada }
//
// # Assertion Types
//
//   - trace_contains: some compiled command contains a text fragment
//   - trace_order: fragments appear in command order
//   - trace_count: exactly N commands have an operation
//   - final_state: one row matches and carries expected values (execute only)
//   - row_count: exactly N rows match (execute only)
//
// # Deterministic Testing
//
// Trace events are numbered by testutil.DeterministicClock and executing
// scenarios get a private in-memory SQLite database, so the same scenario
// always yields the same trace. RunWithGolden compares that trace against
// testdata/golden/{name}.golden.
package harness
