package querysql

import (
	"strings"

	"github.com/roach88/ndcsqlite/internal/queryir"
)

// compileAggregates emits the aggregate statement:
//
//	SELECT COUNT(*) AS "n", MAX("aggregate_source"."id") AS "m", ...
//	  FROM (<row select with the same WHERE/ORDER BY/LIMIT/OFFSET>) AS "aggregate_source"
//
// Aggregates therefore apply to exactly the rows the row-fetch statement
// returns. The statement always yields one row. It runs in its own pass
// with its own aliases and parameters.
func (c *Compiler) compileAggregates(req *queryir.QueryRequest) (*CompiledQuery, error) {
	cp := c.newCompilation(req)
	aggs := req.Query.Aggregates

	exprs := make([]string, 0, len(aggs))
	for _, name := range sortedKeys(aggs) {
		expr, err := cp.aggregate(aggs[name])
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr+" AS "+quoteIdent(name))
	}
	if len(exprs) == 0 {
		exprs = append(exprs, "COUNT(*) AS "+quoteIdent(FillerColumn))
	}

	source := req.Query
	source.Fields = aggregateColumns(aggs)
	source.Aggregates = nil

	cp.w.write("SELECT ", strings.Join(exprs, ", "), " FROM (")
	if err := cp.selectQuery(req.Collection, source, nil); err != nil {
		return nil, err
	}
	cp.w.write(") AS ", quoteIdent(AggregateSource))
	return cp.w.compiled(), nil
}

func (cp *compilation) aggregate(a queryir.Aggregate) (string, error) {
	switch a := a.(type) {
	case queryir.StarCount:
		return "COUNT(*)", nil
	case queryir.ColumnCount:
		ref := columnRef(AggregateSource, a.Column)
		if a.Distinct {
			return "COUNT(DISTINCT " + ref + ")", nil
		}
		return "COUNT(" + ref + ")", nil
	case queryir.SingleColumnAggregate:
		ref := columnRef(AggregateSource, a.Column)
		switch a.Function {
		case queryir.FuncSum:
			return "SUM(" + ref + ")", nil
		case queryir.FuncAvg:
			return "AVG(" + ref + ")", nil
		case queryir.FuncMin:
			return "MIN(" + ref + ")", nil
		case queryir.FuncMax:
			return "MAX(" + ref + ")", nil
		case queryir.FuncConcat:
			return cp.dialect.StringAgg(ref), nil
		default:
			return "", queryir.NotSupported("aggregate function %q is not supported", a.Function)
		}
	default:
		return "", queryir.Internal("unhandled aggregate type %T", a)
	}
}

// aggregateColumns projects the columns the aggregates read, each under its
// own name. A nil result makes the source select emit the filler column.
func aggregateColumns(aggs map[string]queryir.Aggregate) map[string]queryir.Field {
	var fields map[string]queryir.Field
	add := func(column string) {
		if fields == nil {
			fields = make(map[string]queryir.Field)
		}
		fields[column] = queryir.ColumnField{Column: column}
	}
	for _, a := range aggs {
		switch a := a.(type) {
		case queryir.ColumnCount:
			add(a.Column)
		case queryir.SingleColumnAggregate:
			add(a.Column)
		}
	}
	return fields
}
