package querysql

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect renders the storage-specific parts of a statement: placeholders,
// JSON construction for relationship embedding, and pagination.
//
// Everything else the compiler emits is portable SQL.
type Dialect interface {
	// Name identifies the dialect in configuration ("sqlite", "postgres").
	Name() string

	// Placeholder renders the index-th positional placeholder (1-based).
	Placeholder(index int) string

	// JSONObject builds one JSON object from alternating key/value SQL
	// expressions. Keys are already quoted string literals.
	JSONObject(entries []string) string

	// JSONArrayAgg aggregates expr over all rows into a JSON array. The
	// result must be an empty array, not NULL, when there are no rows.
	JSONArrayAgg(expr string) string

	// EmbedJSON marks expr, a column holding JSON produced by a nested
	// subquery, so that it embeds as JSON rather than as a string.
	EmbedJSON(expr string) string

	// StringAgg concatenates expr over all rows, comma separated.
	StringAgg(expr string) string

	// Pagination renders the LIMIT/OFFSET suffix including its leading
	// space, or "" when neither is set.
	Pagination(limit, offset *int64) string

	// OrderCollation is appended to every ORDER BY term, including its
	// leading space, or "" for none.
	OrderCollation() string
}

// SQLite is the default dialect (json1 functions, ? placeholders).
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) JSONObject(entries []string) string {
	return "json_object(" + strings.Join(entries, ", ") + ")"
}

func (SQLite) JSONArrayAgg(expr string) string {
	return "json_group_array(" + expr + ")"
}

// EmbedJSON wraps expr in json(). Text crossing a subquery boundary loses
// its JSON subtype, and json_object would otherwise store it as a string.
func (SQLite) EmbedJSON(expr string) string {
	return "json(" + expr + ")"
}

func (SQLite) StringAgg(expr string) string {
	return "group_concat(" + expr + ", ',')"
}

// Pagination emits LIMIT -1 when only an offset is given; SQLite does not
// accept OFFSET without LIMIT.
func (SQLite) Pagination(limit, offset *int64) string {
	switch {
	case limit != nil && offset != nil:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", *limit, *offset)
	case limit != nil:
		return fmt.Sprintf(" LIMIT %d", *limit)
	case offset != nil:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", *offset)
	default:
		return ""
	}
}

// OrderCollation pins byte-wise text ordering regardless of any collation
// declared on the column.
func (SQLite) OrderCollation() string { return " COLLATE BINARY" }

// Postgres targets PostgreSQL through pgx ($n placeholders, json_agg).
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(index int) string { return "$" + strconv.Itoa(index) }

func (Postgres) JSONObject(entries []string) string {
	return "json_build_object(" + strings.Join(entries, ", ") + ")"
}

func (Postgres) JSONArrayAgg(expr string) string {
	return "COALESCE(json_agg(" + expr + "), '[]'::json)"
}

func (Postgres) EmbedJSON(expr string) string { return expr }

func (Postgres) StringAgg(expr string) string {
	return "string_agg(" + expr + "::text, ',')"
}

func (Postgres) Pagination(limit, offset *int64) string {
	var b strings.Builder
	if limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *limit)
	}
	if offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *offset)
	}
	return b.String()
}

// OrderCollation is empty: COLLATE is rejected on non-text columns.
func (Postgres) OrderCollation() string { return "" }

// DialectByName returns the dialect for a configuration value.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return SQLite{}, nil
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unknown SQL dialect %q (supported: sqlite, postgres)", name)
	}
}
