package queryir

import "github.com/roach88/ndcsqlite/internal/ir"

// QueryRequest is one protocol query: a root collection, the query against
// it, and the relationships the query may traverse.
//
// A QueryRequest is immutable input to one compilation pass.
type QueryRequest struct {
	Collection              string
	Query                   Query
	Arguments               ir.IRObject
	CollectionRelationships map[string]Relationship

	// Variables holds variable sets for parameterized requests. Variables
	// are not supported; a non-nil value fails validation.
	Variables []ir.IRObject
}

// Relationship resolves a relationship name to a target collection and the
// columns that correlate an outer row with its related rows.
type Relationship struct {
	TargetCollection string
	ColumnMapping    []ColumnPair
	RelationshipType RelationshipType
	Arguments        ir.IRObject
}

// RelationshipType is "object" (at most one related row) or "array".
// Both are embedded the same way, as a {"rows": [...]} object.
type RelationshipType string

const (
	RelationshipObject RelationshipType = "object"
	RelationshipArray  RelationshipType = "array"
)

// ColumnPair equates Source on the outer row with Target on the related row.
type ColumnPair struct {
	Source string
	Target string
}

// Query selects fields and/or aggregates from one collection.
//
// Fields and Aggregates are independent: a nil map means "not requested"
// and that path is neither compiled nor executed. An empty, non-nil map is
// requested with nothing in it, and still produces valid SQL.
type Query struct {
	Fields     map[string]Field
	Aggregates map[string]Aggregate
	Where      Expression // nil = no predicate
	OrderBy    []OrderByElement
	Limit      *int64
	Offset     *int64
}

// Field is a requested output field.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the SQL compiler and the result reassembler.
//
// Field types:
//   - ColumnField: a column of the current row
//   - RelationshipField: a nested row set reached through a relationship
type Field interface {
	fieldNode() // Marker method - seals interface to this package
}

// ColumnField projects a source column under the field's output name.
type ColumnField struct {
	Column string
}

func (ColumnField) fieldNode() {}

// RelationshipField embeds the related rows selected by Query as
// {"rows": [...]} under the field's output name.
type RelationshipField struct {
	Relationship string
	Query        Query
	Arguments    ir.IRObject
}

func (RelationshipField) fieldNode() {}

// Expression is a boolean predicate over the current row.
//
// This is a sealed interface - only types in this package implement it.
//
// Expression types:
//   - And, Or: conjunction / disjunction (empty And is true, empty Or is false)
//   - Not: negation
//   - UnaryComparison: column IS NULL
//   - BinaryComparison: column <op> value
//   - BinaryArrayComparison: column <op> (values...), decoded but not supported
//   - Exists: at least one related row satisfies a nested predicate
type Expression interface {
	expressionNode() // Marker method - seals interface to this package
}

// And is true when every sub-expression is true.
type And struct {
	Expressions []Expression
}

func (And) expressionNode() {}

// Or is true when any sub-expression is true.
type Or struct {
	Expressions []Expression
}

func (Or) expressionNode() {}

// Not negates Expression.
type Not struct {
	Expression Expression
}

func (Not) expressionNode() {}

// UnaryComparison applies a unary operator to a column.
type UnaryComparison struct {
	Column   ComparisonTarget
	Operator UnaryOperator
}

func (UnaryComparison) expressionNode() {}

// BinaryComparison compares a column with a value.
type BinaryComparison struct {
	Column   ComparisonTarget
	Operator BinaryOperator
	Value    ComparisonValue
}

func (BinaryComparison) expressionNode() {}

// BinaryArrayComparison compares a column with a list of values.
type BinaryArrayComparison struct {
	Column   ComparisonTarget
	Operator string
	Values   []ComparisonValue
}

func (BinaryArrayComparison) expressionNode() {}

// Exists tests for at least one row of InCollection matching Where.
type Exists struct {
	InCollection ExistsInCollection
	Where        Expression // nil = any row
}

func (Exists) expressionNode() {}

// UnaryOperator names a unary comparison operator.
type UnaryOperator string

// OpIsNull is the only unary operator.
const OpIsNull UnaryOperator = "is_null"

// BinaryOperator names a binary comparison operator. The protocol's
// {"type":"equal"} decodes to OpEqual; {"type":"other","name":N} decodes to N.
type BinaryOperator string

// Binary operators the compiler implements. Any other operator decodes but
// fails compilation as a bad request.
const (
	OpEqual BinaryOperator = "equal"
	OpLike  BinaryOperator = "like"
)

// ComparisonTarget is the left-hand side of a comparison.
//
// This is a sealed interface - only types in this package implement it.
// Only a ColumnTarget with an empty Path compiles.
type ComparisonTarget interface {
	comparisonTargetNode() // Marker method - seals interface to this package
}

// ColumnTarget references a column, optionally through a relationship path.
type ColumnTarget struct {
	Name string
	Path []PathElement
}

func (ColumnTarget) comparisonTargetNode() {}

// RootCollectionColumn references a column of the request's root collection.
type RootCollectionColumn struct {
	Name string
}

func (RootCollectionColumn) comparisonTargetNode() {}

// PathElement is one relationship hop in a column path.
type PathElement struct {
	Relationship string
	Arguments    ir.IRObject
	Predicate    Expression
}

// ComparisonValue is the right-hand side of a comparison.
//
// This is a sealed interface - only types in this package implement it.
// Only ScalarValue compiles; its value is always bound as a parameter.
type ComparisonValue interface {
	comparisonValueNode() // Marker method - seals interface to this package
}

// ScalarValue is a literal.
type ScalarValue struct {
	Value ir.IRValue
}

func (ScalarValue) comparisonValueNode() {}

// ColumnValue compares against another column.
type ColumnValue struct {
	Column ComparisonTarget
}

func (ColumnValue) comparisonValueNode() {}

// VariableValue compares against a request variable.
type VariableValue struct {
	Name string
}

func (VariableValue) comparisonValueNode() {}

// ExistsInCollection selects the rows an Exists expression ranges over.
//
// This is a sealed interface - only types in this package implement it.
type ExistsInCollection interface {
	existsInCollectionNode() // Marker method - seals interface to this package
}

// RelatedCollection ranges over the rows related to the current row.
type RelatedCollection struct {
	Relationship string
	Arguments    ir.IRObject
}

func (RelatedCollection) existsInCollectionNode() {}

// UnrelatedCollection ranges over an arbitrary collection.
type UnrelatedCollection struct {
	Collection string
	Arguments  ir.IRObject
}

func (UnrelatedCollection) existsInCollectionNode() {}

// OrderDirection is ascending or descending.
type OrderDirection string

const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

// OrderByElement is one sort key.
type OrderByElement struct {
	Target    OrderByTarget
	Direction OrderDirection
}

// OrderByTarget is what a sort key orders by.
//
// This is a sealed interface - only types in this package implement it.
// Only OrderByColumn with an empty Path compiles.
type OrderByTarget interface {
	orderByTargetNode() // Marker method - seals interface to this package
}

// OrderByColumn orders by a column value.
type OrderByColumn struct {
	Name string
	Path []PathElement
}

func (OrderByColumn) orderByTargetNode() {}

// OrderBySingleColumnAggregate orders by an aggregate over related rows.
type OrderBySingleColumnAggregate struct {
	Column   string
	Function string
	Path     []PathElement
}

func (OrderBySingleColumnAggregate) orderByTargetNode() {}

// OrderByStarCountAggregate orders by the count of related rows.
type OrderByStarCountAggregate struct {
	Path []PathElement
}

func (OrderByStarCountAggregate) orderByTargetNode() {}

// Aggregate is a requested aggregate over the query's row set.
//
// This is a sealed interface - only types in this package implement it.
type Aggregate interface {
	aggregateNode() // Marker method - seals interface to this package
}

// StarCount counts rows, including rows whose columns are all NULL.
type StarCount struct{}

func (StarCount) aggregateNode() {}

// ColumnCount counts non-NULL values of Column, once per value when Distinct.
type ColumnCount struct {
	Column   string
	Distinct bool
}

func (ColumnCount) aggregateNode() {}

// SingleColumnAggregate applies Function to Column.
type SingleColumnAggregate struct {
	Column   string
	Function AggregateFunction
}

func (SingleColumnAggregate) aggregateNode() {}

// AggregateFunction names a single-column aggregate function.
type AggregateFunction string

// Single-column aggregate functions the compiler implements.
const (
	FuncSum    AggregateFunction = "sum"
	FuncAvg    AggregateFunction = "avg"
	FuncMin    AggregateFunction = "min"
	FuncMax    AggregateFunction = "max"
	FuncConcat AggregateFunction = "concat"
)

// AggregateFunctions lists the supported functions in a fixed order.
var AggregateFunctions = []AggregateFunction{FuncAvg, FuncConcat, FuncMax, FuncMin, FuncSum}

// IsKnown reports whether f is one of the supported functions.
func (f AggregateFunction) IsKnown() bool {
	switch f {
	case FuncSum, FuncAvg, FuncMin, FuncMax, FuncConcat:
		return true
	default:
		return false
	}
}
