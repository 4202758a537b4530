package queryir

import (
	"fmt"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// ToIR renders the request in its protocol wire form, the inverse of
// DecodeQueryRequest. The engine hashes this form for request_hash, and the
// CLI prints it for requests assembled from flags.
func (r *QueryRequest) ToIR() ir.IRObject {
	rels := ir.IRObject{}
	for name, rel := range r.CollectionRelationships {
		mapping := ir.IRObject{}
		for _, p := range rel.ColumnMapping {
			mapping[p.Source] = ir.IRString(p.Target)
		}
		rels[name] = ir.IRObject{
			"column_mapping":    mapping,
			"relationship_type": ir.IRString(rel.RelationshipType),
			"target_collection": ir.IRString(rel.TargetCollection),
			"arguments":         objectOrEmpty(rel.Arguments),
		}
	}

	obj := ir.IRObject{
		"collection":               ir.IRString(r.Collection),
		"query":                    queryToIR(r.Query),
		"arguments":                objectOrEmpty(r.Arguments),
		"collection_relationships": rels,
	}
	if r.Variables != nil {
		vars := make(ir.IRArray, len(r.Variables))
		for i, v := range r.Variables {
			vars[i] = v
		}
		obj["variables"] = vars
	}
	return obj
}

func queryToIR(q Query) ir.IRObject {
	obj := ir.IRObject{}
	if q.Fields != nil {
		fields := ir.IRObject{}
		for name, f := range q.Fields {
			fields[name] = fieldToIR(f)
		}
		obj["fields"] = fields
	}
	if q.Aggregates != nil {
		aggs := ir.IRObject{}
		for name, a := range q.Aggregates {
			aggs[name] = aggregateToIR(a)
		}
		obj["aggregates"] = aggs
	}
	if q.Where != nil {
		obj["where"] = expressionToIR(q.Where)
	}
	if q.OrderBy != nil {
		elems := make(ir.IRArray, len(q.OrderBy))
		for i, el := range q.OrderBy {
			elems[i] = ir.IRObject{
				"order_direction": ir.IRString(el.Direction),
				"target":          orderByTargetToIR(el.Target),
			}
		}
		obj["order_by"] = ir.IRObject{"elements": elems}
	}
	if q.Limit != nil {
		obj["limit"] = ir.IRInt(*q.Limit)
	}
	if q.Offset != nil {
		obj["offset"] = ir.IRInt(*q.Offset)
	}
	return obj
}

func fieldToIR(f Field) ir.IRValue {
	switch f := f.(type) {
	case ColumnField:
		return ir.IRObject{"type": ir.IRString("column"), "column": ir.IRString(f.Column)}
	case RelationshipField:
		return ir.IRObject{
			"type":         ir.IRString("relationship"),
			"relationship": ir.IRString(f.Relationship),
			"query":        queryToIR(f.Query),
			"arguments":    objectOrEmpty(f.Arguments),
		}
	default:
		panic(fmt.Sprintf("queryir: unhandled field %T", f))
	}
}

func expressionToIR(e Expression) ir.IRValue {
	switch e := e.(type) {
	case And:
		return ir.IRObject{"type": ir.IRString("and"), "expressions": expressionsToIR(e.Expressions)}
	case Or:
		return ir.IRObject{"type": ir.IRString("or"), "expressions": expressionsToIR(e.Expressions)}
	case Not:
		return ir.IRObject{"type": ir.IRString("not"), "expression": expressionToIR(e.Expression)}
	case UnaryComparison:
		return ir.IRObject{
			"type":     ir.IRString("unary_comparison_operator"),
			"column":   targetToIR(e.Column),
			"operator": ir.IRString(e.Operator),
		}
	case BinaryComparison:
		op := ir.IRObject{"type": ir.IRString("equal")}
		if e.Operator != OpEqual {
			op = ir.IRObject{"type": ir.IRString("other"), "name": ir.IRString(e.Operator)}
		}
		return ir.IRObject{
			"type":     ir.IRString("binary_comparison_operator"),
			"column":   targetToIR(e.Column),
			"operator": op,
			"value":    valueToIR(e.Value),
		}
	case BinaryArrayComparison:
		values := make(ir.IRArray, len(e.Values))
		for i, v := range e.Values {
			values[i] = valueToIR(v)
		}
		return ir.IRObject{
			"type":     ir.IRString("binary_array_comparison_operator"),
			"column":   targetToIR(e.Column),
			"operator": ir.IRString(e.Operator),
			"values":   values,
		}
	case Exists:
		obj := ir.IRObject{"type": ir.IRString("exists")}
		switch in := e.InCollection.(type) {
		case RelatedCollection:
			obj["in_collection"] = ir.IRObject{
				"type":         ir.IRString("related"),
				"relationship": ir.IRString(in.Relationship),
				"arguments":    objectOrEmpty(in.Arguments),
			}
		case UnrelatedCollection:
			obj["in_collection"] = ir.IRObject{
				"type":       ir.IRString("unrelated"),
				"collection": ir.IRString(in.Collection),
				"arguments":  objectOrEmpty(in.Arguments),
			}
		}
		if e.Where != nil {
			obj["where"] = expressionToIR(e.Where)
		}
		return obj
	default:
		panic(fmt.Sprintf("queryir: unhandled expression %T", e))
	}
}

func expressionsToIR(es []Expression) ir.IRArray {
	arr := make(ir.IRArray, len(es))
	for i, e := range es {
		arr[i] = expressionToIR(e)
	}
	return arr
}

func targetToIR(t ComparisonTarget) ir.IRValue {
	switch t := t.(type) {
	case ColumnTarget:
		return ir.IRObject{"type": ir.IRString("column"), "name": ir.IRString(t.Name), "path": pathToIR(t.Path)}
	case RootCollectionColumn:
		return ir.IRObject{"type": ir.IRString("root_collection_column"), "name": ir.IRString(t.Name)}
	default:
		panic(fmt.Sprintf("queryir: unhandled comparison target %T", t))
	}
}

func valueToIR(v ComparisonValue) ir.IRValue {
	switch v := v.(type) {
	case ScalarValue:
		val := v.Value
		if val == nil {
			val = ir.IRNull{}
		}
		return ir.IRObject{"type": ir.IRString("scalar"), "value": val}
	case ColumnValue:
		return ir.IRObject{"type": ir.IRString("column"), "column": targetToIR(v.Column)}
	case VariableValue:
		return ir.IRObject{"type": ir.IRString("variable"), "name": ir.IRString(v.Name)}
	default:
		panic(fmt.Sprintf("queryir: unhandled comparison value %T", v))
	}
}

func orderByTargetToIR(t OrderByTarget) ir.IRValue {
	switch t := t.(type) {
	case OrderByColumn:
		return ir.IRObject{"type": ir.IRString("column"), "name": ir.IRString(t.Name), "path": pathToIR(t.Path)}
	case OrderBySingleColumnAggregate:
		return ir.IRObject{
			"type":     ir.IRString("single_column_aggregate"),
			"column":   ir.IRString(t.Column),
			"function": ir.IRString(t.Function),
			"path":     pathToIR(t.Path),
		}
	case OrderByStarCountAggregate:
		return ir.IRObject{"type": ir.IRString("star_count_aggregate"), "path": pathToIR(t.Path)}
	default:
		panic(fmt.Sprintf("queryir: unhandled order by target %T", t))
	}
}

func aggregateToIR(a Aggregate) ir.IRValue {
	switch a := a.(type) {
	case StarCount:
		return ir.IRObject{"type": ir.IRString("star_count")}
	case ColumnCount:
		return ir.IRObject{"type": ir.IRString("column_count"), "column": ir.IRString(a.Column), "distinct": ir.IRBool(a.Distinct)}
	case SingleColumnAggregate:
		return ir.IRObject{"type": ir.IRString("single_column"), "column": ir.IRString(a.Column), "function": ir.IRString(a.Function)}
	default:
		panic(fmt.Sprintf("queryir: unhandled aggregate %T", a))
	}
}

func pathToIR(path []PathElement) ir.IRArray {
	arr := make(ir.IRArray, len(path))
	for i, p := range path {
		obj := ir.IRObject{
			"relationship": ir.IRString(p.Relationship),
			"arguments":    objectOrEmpty(p.Arguments),
		}
		if p.Predicate != nil {
			obj["predicate"] = expressionToIR(p.Predicate)
		}
		arr[i] = obj
	}
	return arr
}

func objectOrEmpty(o ir.IRObject) ir.IRObject {
	if o == nil {
		return ir.IRObject{}
	}
	return o
}
