package queryir

import "github.com/roach88/ndcsqlite/internal/ir"

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

func testRelationships() map[string]Relationship {
	return map[string]Relationship{
		"user_posts": {
			TargetCollection: "posts",
			ColumnMapping:    []ColumnPair{{Source: "id", Target: "user_id"}},
			RelationshipType: RelationshipArray,
		},
		"post_comments": {
			TargetCollection: "comments",
			ColumnMapping:    []ColumnPair{{Source: "id", Target: "post_id"}},
			RelationshipType: RelationshipArray,
		},
		"post_author": {
			TargetCollection: "users",
			ColumnMapping:    []ColumnPair{{Source: "user_id", Target: "id"}},
			RelationshipType: RelationshipObject,
		},
	}
}

func col(name string) ColumnTarget { return ColumnTarget{Name: name} }

func eq(column string, v ir.IRValue) BinaryComparison {
	return BinaryComparison{Column: col(column), Operator: OpEqual, Value: ScalarValue{Value: v}}
}

func int64Ptr(n int64) *int64 { return &n }
