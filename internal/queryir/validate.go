package queryir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/ndcsqlite/internal/ir"
)

// DefaultMaxDepth bounds relationship nesting (fields and exists) when no
// limit is configured.
const DefaultMaxDepth = 8

// Limits bounds the shape of accepted requests.
type Limits struct {
	// MaxDepth is the deepest allowed relationship nesting. The root query
	// is depth 0; each relationship field or related exists adds one.
	// Zero means DefaultMaxDepth.
	MaxDepth int
}

func (l Limits) maxDepth() int {
	if l.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return l.MaxDepth
}

// Validate checks a request against the catalog before any SQL is built.
//
// Every collection, column and relationship the request names must resolve
// in the catalog or in the request's collection_relationships. Identifiers
// are interpolated into SQL text (they cannot be bound as parameters), so
// this check is what makes that interpolation safe.
//
// Validate returns the first problem found as an *Error.
// Validate is a pure function with no side effects.
func Validate(req *QueryRequest, catalog *ir.Catalog, limits Limits) error {
	if req == nil {
		return BadRequest("nil request")
	}
	if req.Variables != nil {
		return NotSupported("query variables are not supported").At("variables")
	}
	if len(req.Arguments) > 0 {
		return NotSupported("collection arguments are not supported").At("arguments")
	}

	table, ok := catalog.Table(req.Collection)
	if !ok {
		return BadRequest("unknown collection %q", req.Collection).At("collection")
	}

	v := &validator{req: req, catalog: catalog, maxDepth: limits.maxDepth()}
	return v.validateQuery(req.Query, table, 0, "query")
}

// validator carries request-wide context during traversal.
type validator struct {
	req      *QueryRequest
	catalog  *ir.Catalog
	maxDepth int
}

func (v *validator) validateQuery(q Query, table *ir.Table, depth int, path string) error {
	if q.Limit != nil && *q.Limit < 0 {
		return BadRequest("limit must be non-negative, got %d", *q.Limit).At(path + ".limit")
	}
	if q.Offset != nil && *q.Offset < 0 {
		return BadRequest("offset must be non-negative, got %d", *q.Offset).At(path + ".offset")
	}

	for _, name := range sortedKeys(q.Fields) {
		if err := checkOutputName(name, path+".fields"); err != nil {
			return err
		}
		if err := v.validateField(q.Fields[name], table, depth, path+".fields."+name); err != nil {
			return err
		}
	}

	if depth > 0 && q.Aggregates != nil {
		return NotSupported("aggregates in nested relationship queries are not supported").At(path + ".aggregates")
	}
	for _, name := range sortedKeys(q.Aggregates) {
		if err := checkOutputName(name, path+".aggregates"); err != nil {
			return err
		}
		if err := v.validateAggregate(q.Aggregates[name], table, path+".aggregates."+name); err != nil {
			return err
		}
	}

	if q.Where != nil {
		if err := v.validateExpression(q.Where, table, depth, path+".where"); err != nil {
			return err
		}
	}

	for i, el := range q.OrderBy {
		if err := v.validateOrderBy(el, table, fmt.Sprintf("%s.order_by.elements[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateField(f Field, table *ir.Table, depth int, path string) error {
	switch f := f.(type) {
	case ColumnField:
		return checkColumn(table, f.Column, path)
	case RelationshipField:
		if len(f.Arguments) > 0 {
			return NotSupported("relationship arguments are not supported").At(path + ".arguments")
		}
		target, err := v.resolveRelationship(f.Relationship, table, depth, path)
		if err != nil {
			return err
		}
		return v.validateQuery(f.Query, target, depth+1, path+".query")
	case nil:
		return BadRequest("nil field").At(path)
	default:
		return BadRequest("unknown field type %T", f).At(path)
	}
}

// resolveRelationship checks that name resolves to a relationship whose
// target and column mapping exist, and that following it stays within the
// depth limit. It returns the target table.
func (v *validator) resolveRelationship(name string, table *ir.Table, depth int, path string) (*ir.Table, error) {
	rel, ok := v.req.CollectionRelationships[name]
	if !ok {
		return nil, UnresolvedRelationship(name).At(path)
	}
	if depth+1 > v.maxDepth {
		return nil, BadRequest("relationship nesting exceeds maximum depth %d", v.maxDepth).At(path)
	}
	if len(rel.Arguments) > 0 {
		return nil, NotSupported("relationship arguments are not supported").At("collection_relationships." + name)
	}
	target, ok := v.catalog.Table(rel.TargetCollection)
	if !ok {
		return nil, BadRequest("relationship %q targets unknown collection %q", name, rel.TargetCollection).At("collection_relationships." + name)
	}
	if len(rel.ColumnMapping) == 0 {
		return nil, BadRequest("relationship %q has an empty column mapping", name).At("collection_relationships." + name)
	}
	for _, pair := range rel.ColumnMapping {
		relPath := "collection_relationships." + name + ".column_mapping." + pair.Source
		if err := checkColumn(table, pair.Source, relPath); err != nil {
			return nil, err
		}
		if err := checkColumn(target, pair.Target, relPath); err != nil {
			return nil, err
		}
	}
	return target, nil
}

func (v *validator) validateExpression(e Expression, table *ir.Table, depth int, path string) error {
	switch e := e.(type) {
	case And:
		return v.validateExpressions(e.Expressions, table, depth, path)
	case Or:
		return v.validateExpressions(e.Expressions, table, depth, path)
	case Not:
		if e.Expression == nil {
			return BadRequest("not requires expression").At(path)
		}
		return v.validateExpression(e.Expression, table, depth, path+".expression")
	case UnaryComparison:
		if err := checkTarget(e.Column, table, path+".column"); err != nil {
			return err
		}
		if e.Operator != OpIsNull {
			return BadRequest("unknown unary comparison operator %q", e.Operator).At(path + ".operator")
		}
		return nil
	case BinaryComparison:
		if err := checkTarget(e.Column, table, path+".column"); err != nil {
			return err
		}
		if e.Operator != OpEqual && e.Operator != OpLike {
			return BadRequest("unknown binary comparison operator %q", e.Operator).At(path + ".operator")
		}
		return checkValue(e.Value, path+".value")
	case BinaryArrayComparison:
		return NotSupported("binary array comparison operators are not supported").At(path)
	case Exists:
		switch in := e.InCollection.(type) {
		case RelatedCollection:
			if len(in.Arguments) > 0 {
				return NotSupported("relationship arguments are not supported").At(path + ".in_collection.arguments")
			}
			target, err := v.resolveRelationship(in.Relationship, table, depth, path+".in_collection")
			if err != nil {
				return err
			}
			if e.Where == nil {
				return nil
			}
			return v.validateExpression(e.Where, target, depth+1, path+".where")
		case UnrelatedCollection:
			return NotSupported("exists over unrelated collections is not supported").At(path + ".in_collection")
		default:
			return BadRequest("unknown in_collection type %T", in).At(path + ".in_collection")
		}
	case nil:
		return BadRequest("nil expression").At(path)
	default:
		return BadRequest("unknown expression type %T", e).At(path)
	}
}

func (v *validator) validateExpressions(es []Expression, table *ir.Table, depth int, path string) error {
	for i, sub := range es {
		if err := v.validateExpression(sub, table, depth, fmt.Sprintf("%s.expressions[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateAggregate(a Aggregate, table *ir.Table, path string) error {
	switch a := a.(type) {
	case StarCount:
		return nil
	case ColumnCount:
		return checkColumn(table, a.Column, path)
	case SingleColumnAggregate:
		if err := checkColumn(table, a.Column, path); err != nil {
			return err
		}
		if !a.Function.IsKnown() {
			return NotSupported("aggregate function %q is not supported", a.Function).At(path)
		}
		return nil
	case nil:
		return BadRequest("nil aggregate").At(path)
	default:
		return BadRequest("unknown aggregate type %T", a).At(path)
	}
}

func (v *validator) validateOrderBy(el OrderByElement, table *ir.Table, path string) error {
	if el.Direction != Asc && el.Direction != Desc {
		return BadRequest("order_direction must be asc or desc, got %q", el.Direction).At(path)
	}
	switch t := el.Target.(type) {
	case OrderByColumn:
		if len(t.Path) > 0 {
			return NotSupported("ordering through relationships is not supported").At(path + ".target")
		}
		return checkColumn(table, t.Name, path+".target")
	case OrderBySingleColumnAggregate, OrderByStarCountAggregate:
		return NotSupported("ordering by aggregates is not supported").At(path + ".target")
	default:
		return BadRequest("unknown order by target %T", t).At(path + ".target")
	}
}

func checkTarget(t ComparisonTarget, table *ir.Table, path string) error {
	switch t := t.(type) {
	case ColumnTarget:
		if len(t.Path) > 0 {
			return NotSupported("comparisons through relationships are not supported").At(path)
		}
		return checkColumn(table, t.Name, path)
	case RootCollectionColumn:
		return NotSupported("root collection column comparisons are not supported").At(path)
	case nil:
		return BadRequest("comparison requires column").At(path)
	default:
		return BadRequest("unknown comparison target %T", t).At(path)
	}
}

func checkValue(cv ComparisonValue, path string) error {
	switch cv := cv.(type) {
	case ScalarValue:
		switch cv.Value.(type) {
		case ir.IRArray, ir.IRObject:
			return BadRequest("comparison value must be a scalar").At(path)
		}
		return nil
	case ColumnValue:
		return NotSupported("column comparisons are not supported").At(path)
	case VariableValue:
		return NotSupported("variable comparisons are not supported").At(path)
	case nil:
		return BadRequest("comparison requires value").At(path)
	default:
		return BadRequest("unknown comparison value %T", cv).At(path)
	}
}

// checkOutputName rejects names SQL cannot carry as a quoted identifier.
func checkOutputName(name, path string) error {
	if name == "" || strings.ContainsRune(name, 0) {
		return BadRequest("output name %q is not allowed", name).At(path)
	}
	return nil
}

func checkColumn(table *ir.Table, column, path string) error {
	if !table.HasColumn(column) {
		return BadRequest("unknown column %q in collection %q", column, table.Name).At(path)
	}
	return nil
}

// sortedKeys gives deterministic traversal, so the first error reported
// for a request never depends on map iteration order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
