package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// CompiledQuery is SQL text plus its bound parameters. Params[i] belongs to
// the i-th placeholder in the text, counting left to right.
type CompiledQuery struct {
	SQL    string
	Params []ir.IRValue
}

// Args converts the parameters into database/sql arguments.
func (q *CompiledQuery) Args() ([]any, error) {
	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		a, err := ir.ToSQLParam(p)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i+1, err)
		}
		args[i] = a
	}
	return args, nil
}

// sqlWriter accumulates statement text and parameters together.
//
// CRITICAL: bind is the only way a value reaches a statement. It writes the
// placeholder and appends the parameter in one step, so parameter order is
// placeholder order by construction, whatever order the compiler visits
// the request in.
type sqlWriter struct {
	dialect Dialect
	buf     strings.Builder
	params  []ir.IRValue
}

func newSQLWriter(d Dialect) *sqlWriter {
	return &sqlWriter{dialect: d}
}

func (w *sqlWriter) write(parts ...string) {
	for _, p := range parts {
		w.buf.WriteString(p)
	}
}

func (w *sqlWriter) bind(v ir.IRValue) {
	if v == nil {
		v = ir.IRNull{}
	}
	w.params = append(w.params, v)
	w.buf.WriteString(w.dialect.Placeholder(len(w.params)))
}

func (w *sqlWriter) compiled() *CompiledQuery {
	return &CompiledQuery{SQL: w.buf.String(), Params: w.params}
}

// quoteIdent renders a SQL identifier. Identifiers are validated against
// the catalog before compilation; quoting keeps output names (which come
// from the request) from being read as SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral renders a SQL string literal, used for JSON object keys.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// columnRef renders "alias"."column".
func columnRef(alias, column string) string {
	return quoteIdent(alias) + "." + quoteIdent(column)
}
