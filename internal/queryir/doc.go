// Package queryir provides the query request intermediate representation
// (IR) for ndcsqlite.
//
// QueryIR is the boundary between the protocol layer and the SQL compiler:
//
//	[request JSON] -> DecodeQueryRequest -> [Query IR] -> Validate -> [querysql] -> SQL
//	[--where DSL]  -> ParseFilter ---------+
//
// SEALED INTERFACES:
//
// Field, Expression, ComparisonTarget, ComparisonValue, ExistsInCollection,
// OrderByTarget and Aggregate are sealed interfaces using the marker method
// pattern. Only types in this package implement them, so the compiler and
// the result reassembler switch over a closed set of variants:
//
//	switch f := field.(type) {
//	case queryir.ColumnField:
//	    // project the column
//	case queryir.RelationshipField:
//	    // correlated subquery
//	}
//
// Variants the compiler does not implement (relationship paths, column and
// variable comparison values, array comparisons, unrelated exists, ordering
// by aggregates) are still decoded, so they are rejected as not_supported
// rather than as malformed input.
//
// ERRORS:
//
// All request errors are *Error values with a Kind: bad_request,
// not_supported, unresolved_relationship or internal. Use KindOf or the
// Is* helpers; they see through wrapping.
//
// IDENTIFIER SAFETY:
//
// Collection, column and relationship names are interpolated into SQL text.
// Validate resolves every one of them against the trusted catalog before
// compilation; requests naming anything else are rejected.
package queryir
