package querysql

import (
	"sort"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
)

// FillerColumn names the constant column emitted when a SELECT (or the
// aggregate projection) would otherwise be empty. It is never copied into
// a response.
const FillerColumn = "__placeholder"

// AggregateSource aliases the derived table the aggregate pass reads from.
const AggregateSource = "aggregate_source"

// Compiler compiles query requests to parameterized SQL.
//
// CRITICAL: Values are NEVER interpolated into SQL strings. Every scalar
// the request carries is bound through a placeholder. Identifiers cannot be
// bound, so every request is validated against the catalog before any text
// is emitted, and every identifier is quoted.
//
// A Compiler holds no per-request state and is safe for concurrent use.
// Each compilation pass gets its own alias allocator and parameter list.
type Compiler struct {
	catalog *ir.Catalog
	dialect Dialect
	limits  queryir.Limits
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDialect selects the SQL dialect. The default is SQLite.
func WithDialect(d Dialect) Option {
	return func(c *Compiler) {
		if d != nil {
			c.dialect = d
		}
	}
}

// WithLimits sets the request shape limits enforced before compilation.
func WithLimits(l queryir.Limits) Option {
	return func(c *Compiler) {
		c.limits = l
	}
}

// NewCompiler creates a compiler over catalog.
func NewCompiler(catalog *ir.Catalog, opts ...Option) *Compiler {
	c := &Compiler{catalog: catalog, dialect: SQLite{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the dialect the compiler emits.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

// Catalog returns the catalog requests are validated against.
func (c *Compiler) Catalog() *ir.Catalog {
	return c.catalog
}

// Plan holds the statements for one request. Rows is nil when the request
// did not ask for fields; Aggregates is nil when it did not ask for
// aggregates.
type Plan struct {
	Rows       *CompiledQuery
	Aggregates *CompiledQuery
}

// Compile validates req and compiles every statement it needs.
func (c *Compiler) Compile(req *queryir.QueryRequest) (*Plan, error) {
	if err := queryir.Validate(req, c.catalog, c.limits); err != nil {
		return nil, err
	}

	plan := &Plan{}
	if req.Query.Fields != nil {
		q, err := c.compileRows(req)
		if err != nil {
			return nil, err
		}
		plan.Rows = q
	}
	if req.Query.Aggregates != nil {
		q, err := c.compileAggregates(req)
		if err != nil {
			return nil, err
		}
		plan.Aggregates = q
	}
	return plan, nil
}

func (c *Compiler) compileRows(req *queryir.QueryRequest) (*CompiledQuery, error) {
	cp := c.newCompilation(req)
	if err := cp.selectQuery(req.Collection, req.Query, nil); err != nil {
		return nil, err
	}
	return cp.w.compiled(), nil
}

// compilation is one pass over a request: one alias sequence, one
// statement, one parameter list.
type compilation struct {
	catalog *ir.Catalog
	dialect Dialect
	rels    map[string]queryir.Relationship
	aliases *AliasAllocator
	w       *sqlWriter
}

func (c *Compiler) newCompilation(req *queryir.QueryRequest) *compilation {
	return &compilation{
		catalog: c.catalog,
		dialect: c.dialect,
		rels:    req.CollectionRelationships,
		aliases: NewAliasAllocator(),
		w:       newSQLWriter(c.dialect),
	}
}

// selectQuery emits one SELECT level:
//
//	SELECT <projection> FROM "<collection>" AS "<alias>"
//	  [WHERE ...] ORDER BY ... [LIMIT n] [OFFSET m]
//
// corr, when set, correlates this level with its enclosing query.
func (cp *compilation) selectQuery(collection string, q queryir.Query, corr *correlation) error {
	table, ok := cp.catalog.Table(collection)
	if !ok {
		return queryir.Internal("collection %q missing from catalog after validation", collection)
	}
	alias := cp.aliases.Next()

	cp.w.write("SELECT ")
	if err := cp.projection(alias, q.Fields); err != nil {
		return err
	}
	cp.w.write(" FROM ", quoteIdent(table.Name), " AS ", quoteIdent(alias))

	if err := cp.where(alias, q.Where, corr); err != nil {
		return err
	}
	if err := cp.orderBy(alias, table, q.OrderBy); err != nil {
		return err
	}
	cp.w.write(cp.dialect.Pagination(q.Limit, q.Offset))
	return nil
}

// projection emits the select list sorted by output name. Output names come
// from the request and are quoted, never trusted.
func (cp *compilation) projection(alias string, fields map[string]queryir.Field) error {
	if len(fields) == 0 {
		cp.w.write("1 AS ", quoteIdent(FillerColumn))
		return nil
	}
	for i, name := range sortedKeys(fields) {
		if i > 0 {
			cp.w.write(", ")
		}
		switch f := fields[name].(type) {
		case queryir.ColumnField:
			cp.w.write(columnRef(alias, f.Column))
		case queryir.RelationshipField:
			if err := cp.relationshipField(alias, f); err != nil {
				return err
			}
		default:
			return queryir.Internal("unhandled field type %T", f)
		}
		cp.w.write(" AS ", quoteIdent(name))
	}
	return nil
}

func (cp *compilation) where(alias string, expr queryir.Expression, corr *correlation) error {
	switch {
	case expr != nil && corr != nil:
		cp.w.write(" WHERE (")
		if err := cp.expression(alias, expr); err != nil {
			return err
		}
		cp.w.write(") AND (", corr.condition(alias), ")")
	case expr != nil:
		cp.w.write(" WHERE ")
		return cp.expression(alias, expr)
	case corr != nil:
		cp.w.write(" WHERE ", corr.condition(alias))
	}
	return nil
}

// sortedKeys returns map keys in byte order; the compiler never depends on
// map iteration order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
