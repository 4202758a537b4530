// Package ir provides the shared value and catalog types for ndcsqlite.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - IRValue is sealed; values crossing package boundaries use it, never bare any
//   - All JSON tags use snake_case
//   - Object keys are emitted in RFC 8785 order, so output is deterministic
//   - Canonical JSON (MarshalCanonical) is the only encoding that is hashed
package ir
