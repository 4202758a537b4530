package querysql

import (
	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
)

func testCatalog() *ir.Catalog {
	return &ir.Catalog{Tables: []ir.Table{
		{
			Name:       "users",
			Columns:    []ir.Column{{Name: "id"}, {Name: "name"}, {Name: "email"}},
			PrimaryKey: []string{"id"},
		},
		{
			Name:       "posts",
			Columns:    []ir.Column{{Name: "id"}, {Name: "user_id"}, {Name: "title"}, {Name: "score"}},
			PrimaryKey: []string{"id"},
		},
		{
			Name:    "comments",
			Columns: []ir.Column{{Name: "id"}, {Name: "post_id"}, {Name: "body"}},
		},
	}}
}

func testRelationships() map[string]queryir.Relationship {
	return map[string]queryir.Relationship{
		"user_posts": {
			TargetCollection: "posts",
			ColumnMapping:    []queryir.ColumnPair{{Source: "id", Target: "user_id"}},
			RelationshipType: queryir.RelationshipArray,
		},
		"post_comments": {
			TargetCollection: "comments",
			ColumnMapping:    []queryir.ColumnPair{{Source: "id", Target: "post_id"}},
			RelationshipType: queryir.RelationshipArray,
		},
		"post_author": {
			TargetCollection: "users",
			ColumnMapping:    []queryir.ColumnPair{{Source: "user_id", Target: "id"}},
			RelationshipType: queryir.RelationshipObject,
		},
	}
}

func request(collection string, q queryir.Query) *queryir.QueryRequest {
	return &queryir.QueryRequest{
		Collection:              collection,
		Query:                   q,
		CollectionRelationships: testRelationships(),
	}
}

func columns(names ...string) map[string]queryir.Field {
	fields := make(map[string]queryir.Field, len(names))
	for _, n := range names {
		fields[n] = queryir.ColumnField{Column: n}
	}
	return fields
}

func eq(column string, v ir.IRValue) queryir.BinaryComparison {
	return queryir.BinaryComparison{
		Column:   queryir.ColumnTarget{Name: column},
		Operator: queryir.OpEqual,
		Value:    queryir.ScalarValue{Value: v},
	}
}

func int64Ptr(n int64) *int64 { return &n }

// validatedRows validates req and compiles only its row-fetch statement.
func validatedRows(c *Compiler, req *queryir.QueryRequest) (*CompiledQuery, error) {
	if err := queryir.Validate(req, c.catalog, c.limits); err != nil {
		return nil, err
	}
	return c.compileRows(req)
}

// validatedAggregates validates req and compiles only its aggregate statement.
func validatedAggregates(c *Compiler, req *queryir.QueryRequest) (*CompiledQuery, error) {
	if err := queryir.Validate(req, c.catalog, c.limits); err != nil {
		return nil, err
	}
	return c.compileAggregates(req)
}
