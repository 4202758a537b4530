package schema

import (
	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
)

// AnyScalar is the single scalar type every column is reported as. SQLite
// columns are dynamically typed, so declared types are not promised.
const AnyScalar = "any"

// CapabilitiesResponse answers the capabilities endpoint.
type CapabilitiesResponse struct {
	Versions     string       `json:"versions"`
	Capabilities Capabilities `json:"capabilities"`
}

// Capabilities lists the optional protocol features served. An empty
// object means the feature is supported with no sub-options.
type Capabilities struct {
	Query         struct{} `json:"query"`
	Explain       struct{} `json:"explain"`
	Relationships struct{} `json:"relationships"`
}

// CapabilitiesFor returns the fixed capabilities of this connector.
func CapabilitiesFor() CapabilitiesResponse {
	return CapabilitiesResponse{Versions: ir.NDCVersion}
}

// SchemaResponse describes the collections and types a catalog exposes.
type SchemaResponse struct {
	ScalarTypes map[string]ScalarType `json:"scalar_types"`
	ObjectTypes map[string]ObjectType `json:"object_types"`
	Collections []CollectionInfo      `json:"collections"`
	Functions   []struct{}            `json:"functions"`
	Procedures  []struct{}            `json:"procedures"`
}

// TypeRef is a reference to a named type.
type TypeRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func named(name string) TypeRef { return TypeRef{Type: "named", Name: name} }

// ScalarType lists what a scalar supports.
type ScalarType struct {
	AggregateFunctions  map[string]AggregateFunctionDefinition  `json:"aggregate_functions"`
	ComparisonOperators map[string]ComparisonOperatorDefinition `json:"comparison_operators"`
}

// AggregateFunctionDefinition gives an aggregate's result type.
type AggregateFunctionDefinition struct {
	ResultType TypeRef `json:"result_type"`
}

// ComparisonOperatorDefinition gives a custom operator's argument type.
type ComparisonOperatorDefinition struct {
	Type         string  `json:"type"`
	ArgumentType TypeRef `json:"argument_type"`
}

// ObjectType is the row type of one collection.
type ObjectType struct {
	Fields map[string]ObjectField `json:"fields"`
}

// ObjectField is one column of a row type.
type ObjectField struct {
	Type TypeRef `json:"type"`
}

// CollectionInfo describes one queryable collection.
type CollectionInfo struct {
	Name                  string                          `json:"name"`
	Arguments             map[string]struct{}             `json:"arguments"`
	Type                  string                          `json:"type"`
	Deletable             bool                            `json:"deletable"`
	UniquenessConstraints map[string]UniquenessConstraint `json:"uniqueness_constraints"`
	ForeignKeys           map[string]ForeignKeyConstraint `json:"foreign_keys"`
}

// UniquenessConstraint names the columns of a unique key.
type UniquenessConstraint struct {
	UniqueColumns []string `json:"unique_columns"`
}

// ForeignKeyConstraint maps owning columns to foreign collection columns.
type ForeignKeyConstraint struct {
	ColumnMapping     map[string]string `json:"column_mapping"`
	ForeignCollection string            `json:"foreign_collection"`
}

// BuildSchemaResponse describes catalog in protocol form. Collections are
// listed in catalog order; each table is its own object type.
func BuildSchemaResponse(catalog *ir.Catalog) SchemaResponse {
	resp := SchemaResponse{
		ScalarTypes: map[string]ScalarType{AnyScalar: anyScalarType()},
		ObjectTypes: make(map[string]ObjectType, len(catalog.Tables)),
		Collections: make([]CollectionInfo, 0, len(catalog.Tables)),
		Functions:   []struct{}{},
		Procedures:  []struct{}{},
	}

	for _, t := range catalog.Tables {
		fields := make(map[string]ObjectField, len(t.Columns))
		for _, c := range t.Columns {
			fields[c.Name] = ObjectField{Type: named(AnyScalar)}
		}
		resp.ObjectTypes[t.Name] = ObjectType{Fields: fields}

		info := CollectionInfo{
			Name:                  t.Name,
			Arguments:             map[string]struct{}{},
			Type:                  t.Name,
			UniquenessConstraints: map[string]UniquenessConstraint{},
			ForeignKeys:           make(map[string]ForeignKeyConstraint, len(t.ForeignKeys)),
		}
		if len(t.PrimaryKey) > 0 {
			info.UniquenessConstraints[t.Name+"_pkey"] = UniquenessConstraint{UniqueColumns: t.PrimaryKey}
		}
		for name, fk := range t.ForeignKeys {
			info.ForeignKeys[name] = ForeignKeyConstraint{ColumnMapping: fk.Columns, ForeignCollection: fk.TargetTable}
		}
		resp.Collections = append(resp.Collections, info)
	}
	return resp
}

func anyScalarType() ScalarType {
	aggs := make(map[string]AggregateFunctionDefinition, len(queryir.AggregateFunctions))
	for _, f := range queryir.AggregateFunctions {
		aggs[string(f)] = AggregateFunctionDefinition{ResultType: named(AnyScalar)}
	}
	return ScalarType{
		AggregateFunctions: aggs,
		ComparisonOperators: map[string]ComparisonOperatorDefinition{
			string(queryir.OpLike): {Type: "custom", ArgumentType: named(AnyScalar)},
		},
	}
}
