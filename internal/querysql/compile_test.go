package querysql

import (
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
)

// TestCompile_GoldenSQL pins the exact SQL for single-level queries.
func TestCompile_GoldenSQL(t *testing.T) {
	tests := []struct {
		name       string
		req        *queryir.QueryRequest
		wantSQL    string
		wantParams []ir.IRValue
	}{
		{
			name:    "columns with primary key ordering",
			req:     request("users", queryir.Query{Fields: columns("id", "name")}),
			wantSQL: `SELECT "table_1"."id" AS "id", "table_1"."name" AS "name" FROM "users" AS "table_1" ORDER BY "table_1"."id" COLLATE BINARY ASC`,
		},
		{
			name: "filter order and pagination",
			req: request("users", queryir.Query{
				Fields: columns("id"),
				Where:  eq("name", ir.IRString("Ann")),
				OrderBy: []queryir.OrderByElement{
					{Target: queryir.OrderByColumn{Name: "name"}, Direction: queryir.Desc},
				},
				Limit:  int64Ptr(2),
				Offset: int64Ptr(1),
			}),
			wantSQL:    `SELECT "table_1"."id" AS "id" FROM "users" AS "table_1" WHERE "table_1"."name" = ? ORDER BY "table_1"."name" COLLATE BINARY DESC, "table_1"."id" COLLATE BINARY ASC LIMIT 2 OFFSET 1`,
			wantParams: []ir.IRValue{ir.IRString("Ann")},
		},
		{
			name: "ordering by primary key is not repeated",
			req: request("users", queryir.Query{
				Fields:  columns("id"),
				OrderBy: []queryir.OrderByElement{{Target: queryir.OrderByColumn{Name: "id"}, Direction: queryir.Desc}},
			}),
			wantSQL: `SELECT "table_1"."id" AS "id" FROM "users" AS "table_1" ORDER BY "table_1"."id" COLLATE BINARY DESC`,
		},
		{
			name:    "empty fields without primary key",
			req:     request("comments", queryir.Query{Fields: map[string]queryir.Field{}}),
			wantSQL: `SELECT 1 AS "__placeholder" FROM "comments" AS "table_1" ORDER BY (SELECT NULL)`,
		},
		{
			name:    "empty and",
			req:     request("users", queryir.Query{Fields: columns("id"), Where: queryir.And{}}),
			wantSQL: `SELECT "table_1"."id" AS "id" FROM "users" AS "table_1" WHERE 1 = 1 ORDER BY "table_1"."id" COLLATE BINARY ASC`,
		},
		{
			name:    "empty or",
			req:     request("users", queryir.Query{Fields: columns("id"), Where: queryir.Or{}}),
			wantSQL: `SELECT "table_1"."id" AS "id" FROM "users" AS "table_1" WHERE 1 = 0 ORDER BY "table_1"."id" COLLATE BINARY ASC`,
		},
		{
			name: "and with not is_null",
			req: request("users", queryir.Query{
				Fields: columns("id"),
				Where: queryir.And{Expressions: []queryir.Expression{
					eq("id", ir.IRInt(1)),
					queryir.Not{Expression: queryir.UnaryComparison{
						Column:   queryir.ColumnTarget{Name: "email"},
						Operator: queryir.OpIsNull,
					}},
				}},
			}),
			wantSQL:    `SELECT "table_1"."id" AS "id" FROM "users" AS "table_1" WHERE ("table_1"."id" = ?) AND (NOT ("table_1"."email" IS NULL)) ORDER BY "table_1"."id" COLLATE BINARY ASC`,
			wantParams: []ir.IRValue{ir.IRInt(1)},
		},
		{
			name: "or with like",
			req: request("users", queryir.Query{
				Fields: columns("id"),
				Where: queryir.Or{Expressions: []queryir.Expression{
					queryir.BinaryComparison{
						Column:   queryir.ColumnTarget{Name: "name"},
						Operator: queryir.OpLike,
						Value:    queryir.ScalarValue{Value: ir.IRString("A%")},
					},
					eq("email", ir.IRNull{}),
				}},
			}),
			wantSQL:    `SELECT "table_1"."id" AS "id" FROM "users" AS "table_1" WHERE ("table_1"."name" LIKE ?) OR ("table_1"."email" = ?) ORDER BY "table_1"."id" COLLATE BINARY ASC`,
			wantParams: []ir.IRValue{ir.IRString("A%"), ir.IRNull{}},
		},
		{
			name:    "offset without limit",
			req:     request("users", queryir.Query{Fields: columns("id"), Offset: int64Ptr(3)}),
			wantSQL: `SELECT "table_1"."id" AS "id" FROM "users" AS "table_1" ORDER BY "table_1"."id" COLLATE BINARY ASC LIMIT -1 OFFSET 3`,
		},
		{
			name: "exists over related collection",
			req: request("posts", queryir.Query{
				Fields: columns("id"),
				Where: queryir.Exists{
					InCollection: queryir.RelatedCollection{Relationship: "post_author"},
					Where:        eq("name", ir.IRString("Ann")),
				},
			}),
			wantSQL:    `SELECT "table_1"."id" AS "id" FROM "posts" AS "table_1" WHERE EXISTS (SELECT 1 AS "__placeholder" FROM "users" AS "table_2" WHERE ("table_2"."name" = ?) AND ("table_1"."user_id" = "table_2"."id") ORDER BY "table_2"."id" COLLATE BINARY ASC) ORDER BY "table_1"."id" COLLATE BINARY ASC`,
			wantParams: []ir.IRValue{ir.IRString("Ann")},
		},
		{
			name: "exists without predicate",
			req: request("posts", queryir.Query{
				Fields: columns("id"),
				Where:  queryir.Exists{InCollection: queryir.RelatedCollection{Relationship: "post_comments"}},
			}),
			wantSQL: `SELECT "table_1"."id" AS "id" FROM "posts" AS "table_1" WHERE EXISTS (SELECT 1 AS "__placeholder" FROM "comments" AS "table_2" WHERE "table_1"."id" = "table_2"."post_id" ORDER BY (SELECT NULL)) ORDER BY "table_1"."id" COLLATE BINARY ASC`,
		},
	}

	compiler := NewCompiler(testCatalog())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := validatedRows(compiler, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, q.SQL)
			assert.Equal(t, tt.wantParams, q.Params)
		})
	}
}

func TestCompile_Aggregates(t *testing.T) {
	tests := []struct {
		name    string
		query   queryir.Query
		wantSQL string
	}{
		{
			name: "mixed aggregates over a limited source",
			query: queryir.Query{
				Aggregates: map[string]queryir.Aggregate{
					"count":           queryir.StarCount{},
					"distinct_emails": queryir.ColumnCount{Column: "email", Distinct: true},
					"max_id":          queryir.SingleColumnAggregate{Column: "id", Function: queryir.FuncMax},
				},
				Limit: int64Ptr(5),
			},
			wantSQL: `SELECT COUNT(*) AS "count", COUNT(DISTINCT "aggregate_source"."email") AS "distinct_emails", MAX("aggregate_source"."id") AS "max_id" FROM (SELECT "table_1"."email" AS "email", "table_1"."id" AS "id" FROM "users" AS "table_1" ORDER BY "table_1"."id" COLLATE BINARY ASC LIMIT 5) AS "aggregate_source"`,
		},
		{
			name:    "empty aggregate set",
			query:   queryir.Query{Aggregates: map[string]queryir.Aggregate{}},
			wantSQL: `SELECT COUNT(*) AS "__placeholder" FROM (SELECT 1 AS "__placeholder" FROM "users" AS "table_1" ORDER BY "table_1"."id" COLLATE BINARY ASC) AS "aggregate_source"`,
		},
		{
			name: "non-distinct count and concat",
			query: queryir.Query{Aggregates: map[string]queryir.Aggregate{
				"emails": queryir.ColumnCount{Column: "email"},
				"names":  queryir.SingleColumnAggregate{Column: "name", Function: queryir.FuncConcat},
			}},
			wantSQL: `SELECT COUNT("aggregate_source"."email") AS "emails", group_concat("aggregate_source"."name", ',') AS "names" FROM (SELECT "table_1"."email" AS "email", "table_1"."name" AS "name" FROM "users" AS "table_1" ORDER BY "table_1"."id" COLLATE BINARY ASC) AS "aggregate_source"`,
		},
	}

	compiler := NewCompiler(testCatalog())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := validatedAggregates(compiler, request("users", tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, q.SQL)
			assert.Empty(t, q.Params)
		})
	}
}

func TestCompile_AggregatesShareFilter(t *testing.T) {
	query := queryir.Query{
		Fields:     columns("id"),
		Aggregates: map[string]queryir.Aggregate{"n": queryir.StarCount{}},
		Where:      eq("name", ir.IRString("Ann")),
	}

	plan, err := NewCompiler(testCatalog()).Compile(request("users", query))
	require.NoError(t, err)
	require.NotNil(t, plan.Rows)
	require.NotNil(t, plan.Aggregates)

	assert.Equal(t, []ir.IRValue{ir.IRString("Ann")}, plan.Rows.Params)
	assert.Equal(t, []ir.IRValue{ir.IRString("Ann")}, plan.Aggregates.Params)
	assert.Contains(t, plan.Aggregates.SQL, `FROM "users" AS "table_1" WHERE "table_1"."name" = ?`,
		"aggregate pass allocates its own aliases")
}

func TestCompile_PlanFollowsRequest(t *testing.T) {
	compiler := NewCompiler(testCatalog())

	plan, err := compiler.Compile(request("users", queryir.Query{Fields: columns("id")}))
	require.NoError(t, err)
	assert.NotNil(t, plan.Rows)
	assert.Nil(t, plan.Aggregates)

	plan, err = compiler.Compile(request("users", queryir.Query{
		Aggregates: map[string]queryir.Aggregate{"n": queryir.StarCount{}},
	}))
	require.NoError(t, err)
	assert.Nil(t, plan.Rows)
	assert.NotNil(t, plan.Aggregates)

	plan, err = compiler.Compile(request("users", queryir.Query{}))
	require.NoError(t, err)
	assert.Nil(t, plan.Rows)
	assert.Nil(t, plan.Aggregates)
}

func nestedRequest() *queryir.QueryRequest {
	return request("users", queryir.Query{
		Fields: map[string]queryir.Field{
			"name": queryir.ColumnField{Column: "name"},
			"posts": queryir.RelationshipField{
				Relationship: "user_posts",
				Query: queryir.Query{
					Fields: map[string]queryir.Field{
						"title": queryir.ColumnField{Column: "title"},
						"comments": queryir.RelationshipField{
							Relationship: "post_comments",
							Query: queryir.Query{
								Fields: columns("body"),
								Where: queryir.BinaryComparison{
									Column:   queryir.ColumnTarget{Name: "body"},
									Operator: queryir.OpLike,
									Value:    queryir.ScalarValue{Value: ir.IRString("x%")},
								},
							},
						},
					},
					Where: eq("title", ir.IRString("T")),
				},
			},
		},
		Where: eq("name", ir.IRString("Ann")),
	})
}

// TestCompile_NestedRelationships pins nested correlated subqueries and
// checks that parameters follow placeholder order, not traversal order.
func TestCompile_NestedRelationships(t *testing.T) {
	q, err := validatedRows(NewCompiler(testCatalog()), nestedRequest())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "nested_relationships_sqlite", []byte(q.SQL))

	assert.Equal(t, []ir.IRValue{ir.IRString("x%"), ir.IRString("T"), ir.IRString("Ann")}, q.Params)
	assert.Equal(t, strings.Count(q.SQL, "?"), len(q.Params))
}

func TestCompile_PostgresDialect(t *testing.T) {
	req := request("users", queryir.Query{
		Fields: map[string]queryir.Field{
			"id": queryir.ColumnField{Column: "id"},
			"posts": queryir.RelationshipField{
				Relationship: "user_posts",
				Query: queryir.Query{
					Fields: columns("title"),
					Where:  eq("title", ir.IRString("T")),
				},
			},
		},
		Where:  eq("name", ir.IRString("Ann")),
		Limit:  int64Ptr(10),
		Offset: int64Ptr(2),
	})

	q, err := validatedRows(NewCompiler(testCatalog(), WithDialect(Postgres{})), req)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "relationship_postgres", []byte(q.SQL))
	assert.Equal(t, []ir.IRValue{ir.IRString("T"), ir.IRString("Ann")}, q.Params)
}

func TestCompile_SingleLevelRelationship(t *testing.T) {
	req := request("users", queryir.Query{
		Fields: map[string]queryir.Field{
			"id": queryir.ColumnField{Column: "id"},
			"posts": queryir.RelationshipField{
				Relationship: "user_posts",
				Query:        queryir.Query{Fields: columns("title")},
			},
		},
	})

	q, err := validatedRows(NewCompiler(testCatalog()), req)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "table_1"."id" AS "id", (SELECT json_object('rows', json_group_array(json_object('title', "table_2_rows"."title"))) FROM (SELECT "table_2"."title" AS "title" FROM "posts" AS "table_2" WHERE "table_1"."id" = "table_2"."user_id" ORDER BY "table_2"."id" COLLATE BINARY ASC) AS "table_2_rows") AS "posts" FROM "users" AS "table_1" ORDER BY "table_1"."id" COLLATE BINARY ASC`,
		q.SQL)
}

func TestCompile_EmptyNestedFields(t *testing.T) {
	req := request("users", queryir.Query{
		Fields: map[string]queryir.Field{
			"posts": queryir.RelationshipField{Relationship: "user_posts", Query: queryir.Query{}},
		},
	})

	q, err := validatedRows(NewCompiler(testCatalog()), req)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "json_group_array(json_object())")
	assert.Contains(t, q.SQL, `SELECT 1 AS "__placeholder" FROM "posts" AS "table_2"`)
}

func TestCompile_SelfRelationshipAliasesDistinct(t *testing.T) {
	req := request("posts", queryir.Query{
		Fields: map[string]queryir.Field{
			"author": queryir.RelationshipField{
				Relationship: "post_author",
				Query: queryir.Query{Fields: map[string]queryir.Field{
					"posts": queryir.RelationshipField{
						Relationship: "user_posts",
						Query:        queryir.Query{Fields: columns("id")},
					},
				}},
			},
		},
	})

	q, err := validatedRows(NewCompiler(testCatalog()), req)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, `FROM "posts" AS "table_1"`)
	assert.Contains(t, q.SQL, `FROM "users" AS "table_2"`)
	assert.Contains(t, q.SQL, `FROM "posts" AS "table_3"`)
	assert.Contains(t, q.SQL, `WHERE "table_2"."id" = "table_3"."user_id"`)
	assert.Contains(t, q.SQL, `json("table_2_rows"."posts")`)
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	payload := `'; DROP TABLE users; --`
	req := request("users", queryir.Query{
		Fields: columns("id"),
		Where:  eq("name", ir.IRString(payload)),
	})

	q, err := validatedRows(NewCompiler(testCatalog()), req)
	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "DROP")
	assert.Equal(t, []ir.IRValue{ir.IRString(payload)}, q.Params)
}

func TestCompile_OutputNamesQuoted(t *testing.T) {
	req := request("users", queryir.Query{Fields: map[string]queryir.Field{
		`x" FROM users; --`: queryir.ColumnField{Column: "id"},
	}})

	q, err := validatedRows(NewCompiler(testCatalog()), req)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, `"table_1"."id" AS "x"" FROM users; --" FROM "users"`)
}

func TestCompile_RejectsInvalidRequests(t *testing.T) {
	compiler := NewCompiler(testCatalog())

	_, err := validatedRows(compiler, request("users", queryir.Query{Fields: columns("password")}))
	assert.True(t, queryir.IsBadRequest(err))

	_, err = validatedRows(compiler, request("users", queryir.Query{Fields: map[string]queryir.Field{
		"friends": queryir.RelationshipField{Relationship: "user_friends"},
	}}))
	assert.True(t, queryir.IsUnresolvedRelationship(err))

	_, err = compiler.Compile(request("users", queryir.Query{
		Aggregates: map[string]queryir.Aggregate{
			"x": queryir.SingleColumnAggregate{Column: "id", Function: "median"},
		},
	}))
	assert.True(t, queryir.IsNotSupported(err))

	_, err = validatedAggregates(compiler, request("missing", queryir.Query{}))
	assert.True(t, queryir.IsBadRequest(err))
}

func TestCompile_DepthLimit(t *testing.T) {
	compiler := NewCompiler(testCatalog(), WithLimits(queryir.Limits{MaxDepth: 1}))

	_, err := validatedRows(compiler, nestedRequest())
	require.Error(t, err)
	assert.True(t, queryir.IsBadRequest(err))
}

func TestCompile_Deterministic(t *testing.T) {
	compiler := NewCompiler(testCatalog())
	first, err := validatedRows(compiler, nestedRequest())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*CompiledQuery, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := validatedRows(compiler, nestedRequest())
			if err == nil {
				results[i] = q
			}
		}(i)
	}
	wg.Wait()

	for _, q := range results {
		require.NotNil(t, q)
		assert.Equal(t, first.SQL, q.SQL)
		assert.Equal(t, first.Params, q.Params)
	}
}

func TestCompiledQuery_Args(t *testing.T) {
	q := &CompiledQuery{Params: []ir.IRValue{
		ir.IRString("a"), ir.IRInt(2), ir.IRFloat(1.5), ir.IRBool(true), ir.IRNull{},
	}}
	args, err := q.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"a", int64(2), 1.5, true, nil}, args)

	bad := &CompiledQuery{Params: []ir.IRValue{ir.IRArray{}}}
	_, err = bad.Args()
	assert.Error(t, err)
}
