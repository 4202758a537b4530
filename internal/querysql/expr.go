package querysql

import (
	"github.com/roach88/ndcsqlite/internal/queryir"
)

// expression compiles a predicate against the row source aliased alias.
//
//	And{}            -> 1 = 1
//	Or{}             -> 1 = 0
//	And{a, b}        -> (a) AND (b)
//	Not{e}           -> NOT (e)
//	is_null          -> "t"."c" IS NULL
//	equal / like     -> "t"."c" = ? / "t"."c" LIKE ?
//	Exists{related}  -> EXISTS (SELECT ... correlated ...)
func (cp *compilation) expression(alias string, e queryir.Expression) error {
	switch e := e.(type) {
	case queryir.And:
		return cp.junction(alias, e.Expressions, " AND ", "1 = 1")
	case queryir.Or:
		return cp.junction(alias, e.Expressions, " OR ", "1 = 0")
	case queryir.Not:
		cp.w.write("NOT (")
		if err := cp.expression(alias, e.Expression); err != nil {
			return err
		}
		cp.w.write(")")
		return nil
	case queryir.UnaryComparison:
		ref, err := comparisonColumn(alias, e.Column)
		if err != nil {
			return err
		}
		if e.Operator != queryir.OpIsNull {
			return queryir.NotSupported("unary operator %q is not supported", e.Operator)
		}
		cp.w.write(ref, " IS NULL")
		return nil
	case queryir.BinaryComparison:
		return cp.binaryComparison(alias, e)
	case queryir.BinaryArrayComparison:
		return queryir.NotSupported("array comparison operator %q is not supported", e.Operator)
	case queryir.Exists:
		return cp.exists(alias, e)
	case nil:
		return queryir.Internal("nil expression")
	default:
		return queryir.Internal("unhandled expression type %T", e)
	}
}

// junction compiles a conjunction or disjunction. Each operand is
// parenthesized, so operator precedence inside operands never leaks.
func (cp *compilation) junction(alias string, exprs []queryir.Expression, sep, empty string) error {
	if len(exprs) == 0 {
		cp.w.write(empty)
		return nil
	}
	for i, sub := range exprs {
		if i > 0 {
			cp.w.write(sep)
		}
		cp.w.write("(")
		if err := cp.expression(alias, sub); err != nil {
			return err
		}
		cp.w.write(")")
	}
	return nil
}

func (cp *compilation) binaryComparison(alias string, e queryir.BinaryComparison) error {
	ref, err := comparisonColumn(alias, e.Column)
	if err != nil {
		return err
	}

	var op string
	switch e.Operator {
	case queryir.OpEqual:
		op = " = "
	case queryir.OpLike:
		op = " LIKE "
	default:
		return queryir.NotSupported("binary operator %q is not supported", e.Operator)
	}

	sv, ok := e.Value.(queryir.ScalarValue)
	if !ok {
		return queryir.NotSupported("comparison value %T is not supported", e.Value)
	}
	cp.w.write(ref, op)
	cp.w.bind(sv.Value)
	return nil
}

// exists compiles an EXISTS subquery over a related collection, correlated
// to the enclosing row through the relationship's column mapping.
func (cp *compilation) exists(outer string, e queryir.Exists) error {
	switch in := e.InCollection.(type) {
	case queryir.RelatedCollection:
		rel, err := cp.relationship(in.Relationship)
		if err != nil {
			return err
		}
		cp.w.write("EXISTS (")
		sub := queryir.Query{Where: e.Where}
		if err := cp.selectQuery(rel.TargetCollection, sub, &correlation{outer: outer, pairs: rel.ColumnMapping}); err != nil {
			return err
		}
		cp.w.write(")")
		return nil
	case queryir.UnrelatedCollection:
		return queryir.NotSupported("exists over unrelated collection %q is not supported", in.Collection)
	default:
		return queryir.Internal("unhandled exists target %T", in)
	}
}

func comparisonColumn(alias string, t queryir.ComparisonTarget) (string, error) {
	switch t := t.(type) {
	case queryir.ColumnTarget:
		if len(t.Path) > 0 {
			return "", queryir.NotSupported("comparisons through relationships are not supported")
		}
		return columnRef(alias, t.Name), nil
	case queryir.RootCollectionColumn:
		return "", queryir.NotSupported("root collection column comparisons are not supported")
	default:
		return "", queryir.Internal("unhandled comparison target %T", t)
	}
}
