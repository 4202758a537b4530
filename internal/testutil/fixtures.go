// Package testutil provides the fixture schema and database shared by
// package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
	"github.com/roach88/ndcsqlite/internal/store"
)

// FixtureSQL creates and fills the fixture tables.
//
//	users:    5 rows, ids 1..5; emails on 1, 3, 4
//	posts:    3 rows; user 1 has two, user 3 has one
//	comments: 3 rows, no primary key; post 10 has two, post 12 has one
var FixtureSQL = []string{
	`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`,
	`CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id), title TEXT NOT NULL, score REAL)`,
	`CREATE TABLE comments (id INTEGER, post_id INTEGER NOT NULL REFERENCES posts(id), body TEXT)`,
	`INSERT INTO users (id, name, email) VALUES
		(1, 'Ann', 'ann@example.com'),
		(2, 'Bo', NULL),
		(3, 'Cy', 'cy@example.com'),
		(4, 'Di', 'di@example.com'),
		(5, 'Ed', NULL)`,
	`INSERT INTO posts (id, user_id, title, score) VALUES
		(10, 1, 'hello', 3.5),
		(11, 1, 'again', 1),
		(12, 3, 'first', 2)`,
	`INSERT INTO comments (id, post_id, body) VALUES
		(100, 10, 'nice'),
		(101, 10, 'meh'),
		(102, 12, 'ok')`,
}

// Catalog describes the fixture tables.
func Catalog() *ir.Catalog {
	return &ir.Catalog{Tables: []ir.Table{
		{
			Name:       "users",
			Columns:    []ir.Column{{Name: "id", Type: "INTEGER"}, {Name: "name", Type: "TEXT"}, {Name: "email", Type: "TEXT"}},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "posts",
			Columns: []ir.Column{
				{Name: "id", Type: "INTEGER"}, {Name: "user_id", Type: "INTEGER"},
				{Name: "title", Type: "TEXT"}, {Name: "score", Type: "REAL"},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: map[string]ir.ForeignKey{
				"users": {TargetTable: "users", Columns: map[string]string{"user_id": "id"}},
			},
		},
		{
			Name:    "comments",
			Columns: []ir.Column{{Name: "id", Type: "INTEGER"}, {Name: "post_id", Type: "INTEGER"}, {Name: "body", Type: "TEXT"}},
			ForeignKeys: map[string]ir.ForeignKey{
				"posts": {TargetTable: "posts", Columns: map[string]string{"post_id": "id"}},
			},
		},
	}}
}

// Relationships are the collection relationships fixture requests use.
func Relationships() map[string]queryir.Relationship {
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

// Request builds a fixture request against collection.
func Request(collection string, q queryir.Query) *queryir.QueryRequest {
	return &queryir.QueryRequest{
		Collection:              collection,
		Query:                   q,
		CollectionRelationships: Relationships(),
	}
}

// OpenStore opens a temporary SQLite database seeded with FixtureSQL.
// The store is closed when the test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "fixture.db"))
	if err != nil {
		t.Fatalf("open fixture store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Exec(context.Background(), FixtureSQL...); err != nil {
		t.Fatalf("seed fixture store: %v", err)
	}
	return s
}

// Columns builds a field map of plain column fields, output name = column.
func Columns(names ...string) map[string]queryir.Field {
	fields := make(map[string]queryir.Field, len(names))
	for _, n := range names {
		fields[n] = queryir.ColumnField{Column: n}
	}
	return fields
}

// Int64 returns a pointer to n, for Limit and Offset.
func Int64(n int64) *int64 { return &n }
