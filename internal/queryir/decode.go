package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// DecodeQueryRequest decodes a protocol query request from JSON.
//
// Every tagged union is decoded into its sealed Go variant. Unknown tags,
// missing required members and negative pagination are reported as
// KindBadRequest errors carrying the JSON path of the offending node.
// Variants that decode but are not implemented (array comparisons,
// relationship paths, column/variable values) are left for validation and
// compilation to reject, so the error kinds stay distinct.
func DecodeQueryRequest(data []byte) (*QueryRequest, error) {
	var w wireQueryRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, BadRequest("invalid query request JSON: %v", err)
	}
	if w.Collection == "" {
		return nil, BadRequest("collection is required").At("collection")
	}
	if isNull(w.Query) {
		return nil, BadRequest("query is required").At("query")
	}

	q, err := decodeQuery(w.Query, "query")
	if err != nil {
		return nil, err
	}

	rels := make(map[string]Relationship, len(w.CollectionRelationships))
	for name, wr := range w.CollectionRelationships {
		path := "collection_relationships." + name
		rel, err := wr.decode(path)
		if err != nil {
			return nil, err
		}
		rels[name] = rel
	}

	return &QueryRequest{
		Collection:              w.Collection,
		Query:                   q,
		Arguments:               w.Arguments,
		CollectionRelationships: rels,
		Variables:               w.Variables,
	}, nil
}

type wireQueryRequest struct {
	Collection              string                      `json:"collection"`
	Query                   json.RawMessage             `json:"query"`
	Arguments               ir.IRObject                 `json:"arguments"`
	CollectionRelationships map[string]wireRelationship `json:"collection_relationships"`
	Variables               []ir.IRObject               `json:"variables"`
}

type wireRelationship struct {
	ColumnMapping    map[string]string `json:"column_mapping"`
	RelationshipType string            `json:"relationship_type"`
	TargetCollection string            `json:"target_collection"`
	Arguments        ir.IRObject       `json:"arguments"`
}

func (w wireRelationship) decode(path string) (Relationship, error) {
	if w.TargetCollection == "" {
		return Relationship{}, BadRequest("target_collection is required").At(path)
	}
	rt := RelationshipType(w.RelationshipType)
	switch rt {
	case RelationshipObject, RelationshipArray:
	case "":
		rt = RelationshipArray
	default:
		return Relationship{}, BadRequest("unknown relationship_type %q", w.RelationshipType).At(path)
	}
	if len(w.ColumnMapping) == 0 {
		return Relationship{}, BadRequest("column_mapping must not be empty").At(path)
	}

	// JSON objects are unordered; sort by source column so compiled SQL
	// is identical for identical requests.
	sources := make([]string, 0, len(w.ColumnMapping))
	for src := range w.ColumnMapping {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	pairs := make([]ColumnPair, len(sources))
	for i, src := range sources {
		pairs[i] = ColumnPair{Source: src, Target: w.ColumnMapping[src]}
	}

	return Relationship{
		TargetCollection: w.TargetCollection,
		ColumnMapping:    pairs,
		RelationshipType: rt,
		Arguments:        w.Arguments,
	}, nil
}

type wireQuery struct {
	Aggregates map[string]json.RawMessage `json:"aggregates"`
	Fields     map[string]json.RawMessage `json:"fields"`
	Limit      *int64                     `json:"limit"`
	Offset     *int64                     `json:"offset"`
	OrderBy    *wireOrderBy               `json:"order_by"`
	Where      json.RawMessage            `json:"where"`
}

type wireOrderBy struct {
	Elements []wireOrderByElement `json:"elements"`
}

type wireOrderByElement struct {
	OrderDirection string          `json:"order_direction"`
	Target         json.RawMessage `json:"target"`
}

func decodeQuery(raw json.RawMessage, path string) (Query, error) {
	var w wireQuery
	if err := json.Unmarshal(raw, &w); err != nil {
		return Query{}, BadRequest("invalid query: %v", err).At(path)
	}

	q := Query{Limit: w.Limit, Offset: w.Offset}
	if w.Limit != nil && *w.Limit < 0 {
		return Query{}, BadRequest("limit must be non-negative, got %d", *w.Limit).At(path + ".limit")
	}
	if w.Offset != nil && *w.Offset < 0 {
		return Query{}, BadRequest("offset must be non-negative, got %d", *w.Offset).At(path + ".offset")
	}

	if w.Fields != nil {
		q.Fields = make(map[string]Field, len(w.Fields))
		for name, rf := range w.Fields {
			f, err := decodeField(rf, path+".fields."+name)
			if err != nil {
				return Query{}, err
			}
			q.Fields[name] = f
		}
	}

	if w.Aggregates != nil {
		q.Aggregates = make(map[string]Aggregate, len(w.Aggregates))
		for name, ra := range w.Aggregates {
			a, err := decodeAggregate(ra, path+".aggregates."+name)
			if err != nil {
				return Query{}, err
			}
			q.Aggregates[name] = a
		}
	}

	if !isNull(w.Where) {
		e, err := decodeExpression(w.Where, path+".where")
		if err != nil {
			return Query{}, err
		}
		q.Where = e
	}

	if w.OrderBy != nil {
		q.OrderBy = make([]OrderByElement, 0, len(w.OrderBy.Elements))
		for i, we := range w.OrderBy.Elements {
			el, err := decodeOrderByElement(we, fmt.Sprintf("%s.order_by.elements[%d]", path, i))
			if err != nil {
				return Query{}, err
			}
			q.OrderBy = append(q.OrderBy, el)
		}
	}

	return q, nil
}

// tag reads the "type" member of a tagged union.
func tag(raw json.RawMessage, path string) (string, error) {
	var t struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return "", BadRequest("expected tagged object: %v", err).At(path)
	}
	if t.Type == "" {
		return "", BadRequest("missing type tag").At(path)
	}
	return t.Type, nil
}

func decodeField(raw json.RawMessage, path string) (Field, error) {
	typ, err := tag(raw, path)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "column":
		var w struct {
			Column string `json:"column"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid column field: %v", err).At(path)
		}
		if w.Column == "" {
			return nil, BadRequest("column field requires column").At(path)
		}
		return ColumnField{Column: w.Column}, nil

	case "relationship":
		var w struct {
			Relationship string          `json:"relationship"`
			Query        json.RawMessage `json:"query"`
			Arguments    ir.IRObject     `json:"arguments"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid relationship field: %v", err).At(path)
		}
		if w.Relationship == "" {
			return nil, BadRequest("relationship field requires relationship").At(path)
		}
		if isNull(w.Query) {
			return nil, BadRequest("relationship field requires query").At(path)
		}
		q, err := decodeQuery(w.Query, path+".query")
		if err != nil {
			return nil, err
		}
		return RelationshipField{Relationship: w.Relationship, Query: q, Arguments: w.Arguments}, nil

	default:
		return nil, BadRequest("unknown field type %q", typ).At(path)
	}
}

func decodeExpression(raw json.RawMessage, path string) (Expression, error) {
	typ, err := tag(raw, path)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "and", "or":
		var w struct {
			Expressions []json.RawMessage `json:"expressions"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid %s expression: %v", typ, err).At(path)
		}
		exprs := make([]Expression, len(w.Expressions))
		for i, re := range w.Expressions {
			e, err := decodeExpression(re, fmt.Sprintf("%s.expressions[%d]", path, i))
			if err != nil {
				return nil, err
			}
			exprs[i] = e
		}
		if typ == "and" {
			return And{Expressions: exprs}, nil
		}
		return Or{Expressions: exprs}, nil

	case "not":
		var w struct {
			Expression json.RawMessage `json:"expression"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid not expression: %v", err).At(path)
		}
		if isNull(w.Expression) {
			return nil, BadRequest("not requires expression").At(path)
		}
		e, err := decodeExpression(w.Expression, path+".expression")
		if err != nil {
			return nil, err
		}
		return Not{Expression: e}, nil

	case "unary_comparison_operator":
		var w struct {
			Column   json.RawMessage `json:"column"`
			Operator string          `json:"operator"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid unary comparison: %v", err).At(path)
		}
		target, err := decodeComparisonTarget(w.Column, path+".column")
		if err != nil {
			return nil, err
		}
		if w.Operator == "" {
			return nil, BadRequest("unary comparison requires operator").At(path)
		}
		return UnaryComparison{Column: target, Operator: UnaryOperator(w.Operator)}, nil

	case "binary_comparison_operator":
		var w struct {
			Column   json.RawMessage `json:"column"`
			Operator json.RawMessage `json:"operator"`
			Value    json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid binary comparison: %v", err).At(path)
		}
		target, err := decodeComparisonTarget(w.Column, path+".column")
		if err != nil {
			return nil, err
		}
		op, err := decodeBinaryOperator(w.Operator, path+".operator")
		if err != nil {
			return nil, err
		}
		value, err := decodeComparisonValue(w.Value, path+".value")
		if err != nil {
			return nil, err
		}
		return BinaryComparison{Column: target, Operator: op, Value: value}, nil

	case "binary_array_comparison_operator":
		var w struct {
			Column   json.RawMessage   `json:"column"`
			Operator string            `json:"operator"`
			Values   []json.RawMessage `json:"values"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid binary array comparison: %v", err).At(path)
		}
		target, err := decodeComparisonTarget(w.Column, path+".column")
		if err != nil {
			return nil, err
		}
		values := make([]ComparisonValue, len(w.Values))
		for i, rv := range w.Values {
			v, err := decodeComparisonValue(rv, fmt.Sprintf("%s.values[%d]", path, i))
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return BinaryArrayComparison{Column: target, Operator: w.Operator, Values: values}, nil

	case "exists":
		var w struct {
			InCollection json.RawMessage `json:"in_collection"`
			Where        json.RawMessage `json:"where"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid exists expression: %v", err).At(path)
		}
		in, err := decodeExistsInCollection(w.InCollection, path+".in_collection")
		if err != nil {
			return nil, err
		}
		ex := Exists{InCollection: in}
		if !isNull(w.Where) {
			e, err := decodeExpression(w.Where, path+".where")
			if err != nil {
				return nil, err
			}
			ex.Where = e
		}
		return ex, nil

	default:
		return nil, BadRequest("unknown expression type %q", typ).At(path)
	}
}

func decodeBinaryOperator(raw json.RawMessage, path string) (BinaryOperator, error) {
	if isNull(raw) {
		return "", BadRequest("binary comparison requires operator").At(path)
	}
	typ, err := tag(raw, path)
	if err != nil {
		return "", err
	}
	switch typ {
	case "equal":
		return OpEqual, nil
	case "other":
		var w struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return "", BadRequest("invalid operator: %v", err).At(path)
		}
		if w.Name == "" {
			return "", BadRequest("operator of type other requires name").At(path)
		}
		return BinaryOperator(w.Name), nil
	default:
		return "", BadRequest("unknown operator type %q", typ).At(path)
	}
}

func decodeComparisonTarget(raw json.RawMessage, path string) (ComparisonTarget, error) {
	if isNull(raw) {
		return nil, BadRequest("comparison requires column").At(path)
	}
	typ, err := tag(raw, path)
	if err != nil {
		return nil, err
	}
	var w struct {
		Name string            `json:"name"`
		Path []json.RawMessage `json:"path"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, BadRequest("invalid comparison target: %v", err).At(path)
	}
	if w.Name == "" {
		return nil, BadRequest("comparison target requires name").At(path)
	}

	switch typ {
	case "column":
		elems, err := decodePath(w.Path, path+".path")
		if err != nil {
			return nil, err
		}
		return ColumnTarget{Name: w.Name, Path: elems}, nil
	case "root_collection_column":
		return RootCollectionColumn{Name: w.Name}, nil
	default:
		return nil, BadRequest("unknown comparison target type %q", typ).At(path)
	}
}

func decodeComparisonValue(raw json.RawMessage, path string) (ComparisonValue, error) {
	if isNull(raw) {
		return nil, BadRequest("comparison requires value").At(path)
	}
	typ, err := tag(raw, path)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "scalar":
		var w struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid scalar value: %v", err).At(path)
		}
		if len(w.Value) == 0 {
			return nil, BadRequest("scalar value requires value").At(path)
		}
		v, err := ir.UnmarshalIRValue(w.Value)
		if err != nil {
			return nil, BadRequest("invalid scalar value: %v", err).At(path)
		}
		return ScalarValue{Value: v}, nil
	case "column":
		var w struct {
			Column json.RawMessage `json:"column"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid column value: %v", err).At(path)
		}
		target, err := decodeComparisonTarget(w.Column, path+".column")
		if err != nil {
			return nil, err
		}
		return ColumnValue{Column: target}, nil
	case "variable":
		var w struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid variable value: %v", err).At(path)
		}
		return VariableValue{Name: w.Name}, nil
	default:
		return nil, BadRequest("unknown comparison value type %q", typ).At(path)
	}
}

func decodeExistsInCollection(raw json.RawMessage, path string) (ExistsInCollection, error) {
	if isNull(raw) {
		return nil, BadRequest("exists requires in_collection").At(path)
	}
	typ, err := tag(raw, path)
	if err != nil {
		return nil, err
	}
	var w struct {
		Relationship string      `json:"relationship"`
		Collection   string      `json:"collection"`
		Arguments    ir.IRObject `json:"arguments"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, BadRequest("invalid in_collection: %v", err).At(path)
	}

	switch typ {
	case "related":
		if w.Relationship == "" {
			return nil, BadRequest("related in_collection requires relationship").At(path)
		}
		return RelatedCollection{Relationship: w.Relationship, Arguments: w.Arguments}, nil
	case "unrelated":
		return UnrelatedCollection{Collection: w.Collection, Arguments: w.Arguments}, nil
	default:
		return nil, BadRequest("unknown in_collection type %q", typ).At(path)
	}
}

func decodeOrderByElement(w wireOrderByElement, path string) (OrderByElement, error) {
	dir := OrderDirection(w.OrderDirection)
	if dir != Asc && dir != Desc {
		return OrderByElement{}, BadRequest("order_direction must be asc or desc, got %q", w.OrderDirection).At(path)
	}
	if isNull(w.Target) {
		return OrderByElement{}, BadRequest("order by element requires target").At(path)
	}

	path += ".target"
	typ, err := tag(w.Target, path)
	if err != nil {
		return OrderByElement{}, err
	}
	var t struct {
		Name     string            `json:"name"`
		Column   string            `json:"column"`
		Function string            `json:"function"`
		Path     []json.RawMessage `json:"path"`
	}
	if err := json.Unmarshal(w.Target, &t); err != nil {
		return OrderByElement{}, BadRequest("invalid order by target: %v", err).At(path)
	}
	elems, err := decodePath(t.Path, path+".path")
	if err != nil {
		return OrderByElement{}, err
	}

	var target OrderByTarget
	switch typ {
	case "column":
		if t.Name == "" {
			return OrderByElement{}, BadRequest("column order by target requires name").At(path)
		}
		target = OrderByColumn{Name: t.Name, Path: elems}
	case "single_column_aggregate":
		target = OrderBySingleColumnAggregate{Column: t.Column, Function: t.Function, Path: elems}
	case "star_count_aggregate":
		target = OrderByStarCountAggregate{Path: elems}
	default:
		return OrderByElement{}, BadRequest("unknown order by target type %q", typ).At(path)
	}
	return OrderByElement{Target: target, Direction: dir}, nil
}

func decodePath(raws []json.RawMessage, path string) ([]PathElement, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	elems := make([]PathElement, len(raws))
	for i, raw := range raws {
		p := fmt.Sprintf("%s[%d]", path, i)
		var w struct {
			Relationship string          `json:"relationship"`
			Arguments    ir.IRObject     `json:"arguments"`
			Predicate    json.RawMessage `json:"predicate"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, BadRequest("invalid path element: %v", err).At(p)
		}
		elems[i] = PathElement{Relationship: w.Relationship, Arguments: w.Arguments}
		if !isNull(w.Predicate) {
			e, err := decodeExpression(w.Predicate, p+".predicate")
			if err != nil {
				return nil, err
			}
			elems[i].Predicate = e
		}
	}
	return elems, nil
}

func decodeAggregate(raw json.RawMessage, path string) (Aggregate, error) {
	typ, err := tag(raw, path)
	if err != nil {
		return nil, err
	}
	var w struct {
		Column   string `json:"column"`
		Distinct bool   `json:"distinct"`
		Function string `json:"function"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, BadRequest("invalid aggregate: %v", err).At(path)
	}

	switch typ {
	case "star_count":
		return StarCount{}, nil
	case "column_count":
		if w.Column == "" {
			return nil, BadRequest("column_count requires column").At(path)
		}
		return ColumnCount{Column: w.Column, Distinct: w.Distinct}, nil
	case "single_column":
		if w.Column == "" || w.Function == "" {
			return nil, BadRequest("single_column aggregate requires column and function").At(path)
		}
		return SingleColumnAggregate{Column: w.Column, Function: AggregateFunction(w.Function)}, nil
	default:
		return nil, BadRequest("unknown aggregate type %q", typ).At(path)
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
