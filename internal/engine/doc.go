// Package engine runs query and explain requests end to end.
//
// Request Flow:
//  1. A request id (UUIDv7) and the request's content hash tag the logger.
//  2. The compiler validates the request and compiles every statement it
//     needs (rows, aggregates). Any failure stops here; nothing executes.
//  3. Statements run through the Executor with their bound parameters.
//  4. Row results are reassembled into nested response rows; the aggregate
//     row is trimmed to the requested aggregate names.
//
// Explain stops after step 2 and reports the SQL and canonical parameters.
//
// Errors:
// Compile-time failures are *queryir.Error with a kind (bad_request,
// not_supported, unresolved_relationship, internal). Reassembly mismatches
// are internal. Storage failures are wrapped driver errors.
package engine
