// Package harness runs conformance scenarios against the query engine.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: users_by_name
//	description: "Equality filter on a text column"
//	schema:
//	  tables:
//	    - name: users
//	      columns: [id, name]
//	      primary_key: [id]
//	fixtures:
//	  - CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)
//	  - INSERT INTO users VALUES (1, 'Ann'), (2, 'Bo')
//	request:
//	  collection: users
//	  query:
//	    fields: {name: {type: column, column: name}}
//	    where:
//	      type: binary_comparison_operator
//	      column: {type: column, name: name, path: []}
//	      operator: {type: equal}
//	      value: {type: scalar, value: Ann}
//	  arguments: {}
//	  collection_relationships: {}
//	expect:
//	  rows: [{name: Ann}]
//	assertions:
//	  - type: sql_contains
//	    text: "WHERE"
//
// A scenario expects either a row set (expect) or an error kind
// (expect_error). Every scenario runs in its own in-memory SQLite
// database, seeded by its fixtures, through the same engine the CLI uses.
//
// # Golden Files
//
// A scenario's golden field names a file holding the canonical JSON of the
// whole response. RunWithGolden does the same comparison for Go tests
// through goldie; regenerate with -update.
package harness
