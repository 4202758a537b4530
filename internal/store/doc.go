// Package store is the execution adapter: it opens a database/sql handle
// (SQLite through go-sqlite3, PostgreSQL through pgx), runs compiled
// statements with their bound parameters, and converts every result row
// into an ir.IRObject keyed by column name.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection, so ":memory:" databases survive between calls
//
// The store never builds SQL from values. Statements arrive compiled, with
// parameters already converted by querysql.CompiledQuery.Args.
//
// IntrospectSQLite reads sqlite_master and the table_info/foreign_key_list
// pragmas to produce a catalog for a live database.
package store
