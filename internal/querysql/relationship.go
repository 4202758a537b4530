package querysql

import (
	"strings"

	"github.com/roach88/ndcsqlite/internal/queryir"
)

// correlation ties a subquery to the row of its enclosing query.
type correlation struct {
	outer string
	pairs []queryir.ColumnPair
}

// condition renders "outer"."source" = "inner"."target" for every mapped
// column pair, joined with AND.
func (c *correlation) condition(inner string) string {
	parts := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		parts[i] = columnRef(c.outer, p.Source) + " = " + columnRef(inner, p.Target)
	}
	return strings.Join(parts, " AND ")
}

func (cp *compilation) relationship(name string) (queryir.Relationship, error) {
	rel, ok := cp.rels[name]
	if !ok {
		return queryir.Relationship{}, queryir.UnresolvedRelationship(name)
	}
	return rel, nil
}

// relationshipField emits a correlated subquery that evaluates to one JSON
// document {"rows": [ {...}, ... ]} per outer row:
//
//	(SELECT json_object('rows', json_group_array(json_object('k', "table_2_rows"."k", ...)))
//	   FROM (<inner select>) AS "table_2_rows")
//
// The inner select is compiled with the same rules as the top level, so its
// own relationship fields nest recursively. Nested relationship columns are
// embedded as JSON rather than as strings. Zero matching rows yields
// {"rows": []}.
//
// The inner alias is peeked before recursing: the correlation predicate
// must name it, and the recursive selectQuery is what allocates it.
func (cp *compilation) relationshipField(outer string, f queryir.RelationshipField) error {
	rel, err := cp.relationship(f.Relationship)
	if err != nil {
		return err
	}

	inner := cp.aliases.Peek()
	rowsAlias := inner + "_rows"

	entries := make([]string, 0, 2*len(f.Query.Fields))
	for _, name := range sortedKeys(f.Query.Fields) {
		ref := columnRef(rowsAlias, name)
		if _, nested := f.Query.Fields[name].(queryir.RelationshipField); nested {
			ref = cp.dialect.EmbedJSON(ref)
		}
		entries = append(entries, quoteLiteral(name), ref)
	}
	rows := cp.dialect.JSONArrayAgg(cp.dialect.JSONObject(entries))
	doc := cp.dialect.JSONObject([]string{quoteLiteral("rows"), rows})

	cp.w.write("(SELECT ", doc, " FROM (")
	if err := cp.selectQuery(rel.TargetCollection, f.Query, &correlation{outer: outer, pairs: rel.ColumnMapping}); err != nil {
		return err
	}
	cp.w.write(") AS ", quoteIdent(rowsAlias), ")")
	return nil
}
