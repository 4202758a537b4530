package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/queryir"
)

func postsField(nested map[string]queryir.Field) queryir.RelationshipField {
	return queryir.RelationshipField{Relationship: "user_posts", Query: queryir.Query{Fields: nested}}
}

func TestReassemble_ColumnsAndFillerDropped(t *testing.T) {
	fields := map[string]queryir.Field{"id": queryir.ColumnField{Column: "id"}}
	rows := []ir.IRObject{
		{"id": ir.IRInt(1), "__placeholder": ir.IRInt(1)},
	}

	got, err := Reassemble(fields, rows)
	require.NoError(t, err)
	assert.Equal(t, []ir.IRObject{{"id": ir.IRInt(1)}}, got)
}

func TestReassemble_RelationshipFromText(t *testing.T) {
	fields := map[string]queryir.Field{
		"name":  queryir.ColumnField{Column: "name"},
		"posts": postsField(map[string]queryir.Field{"title": queryir.ColumnField{Column: "title"}}),
	}
	rows := []ir.IRObject{{
		"name":  ir.IRString("Ann"),
		"posts": ir.IRString(`{"rows":[{"title":"hello"},{"title":"again"}]}`),
	}}

	got, err := Reassemble(fields, rows)
	require.NoError(t, err)
	assert.Equal(t, []ir.IRObject{{
		"name": ir.IRString("Ann"),
		"posts": ir.IRObject{"rows": ir.IRArray{
			ir.IRObject{"title": ir.IRString("hello")},
			ir.IRObject{"title": ir.IRString("again")},
		}},
	}}, got)
}

func TestReassemble_NestedStructuredDocument(t *testing.T) {
	comments := queryir.RelationshipField{
		Relationship: "post_comments",
		Query:        queryir.Query{Fields: map[string]queryir.Field{"body": queryir.ColumnField{Column: "body"}}},
	}
	fields := map[string]queryir.Field{
		"posts": postsField(map[string]queryir.Field{"comments": comments}),
	}
	rows := []ir.IRObject{{
		"posts": ir.IRString(`{"rows":[{"comments":{"rows":[{"body":"nice","extra":1}]}}]}`),
	}}

	got, err := Reassemble(fields, rows)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"rows": ir.IRArray{
		ir.IRObject{"comments": ir.IRObject{"rows": ir.IRArray{
			ir.IRObject{"body": ir.IRString("nice")},
		}}},
	}}, got[0]["posts"])
}

func TestReassemble_EmptyRelationship(t *testing.T) {
	fields := map[string]queryir.Field{"posts": postsField(map[string]queryir.Field{})}
	rows := []ir.IRObject{{"posts": ir.IRString(`{"rows":[]}`)}}

	got, err := Reassemble(fields, rows)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"rows": ir.IRArray{}}, got[0]["posts"])
}

func TestReassemble_NilNestedFieldsOmitRows(t *testing.T) {
	fields := map[string]queryir.Field{"posts": postsField(nil)}
	rows := []ir.IRObject{{"posts": ir.IRString(`{"rows":[{},{}]}`)}}

	got, err := Reassemble(fields, rows)
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{}, got[0]["posts"])
}

func TestReassemble_EmptyInput(t *testing.T) {
	got, err := Reassemble(map[string]queryir.Field{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReassemble_ShapeMismatchIsInternal(t *testing.T) {
	rel := map[string]queryir.Field{"posts": postsField(map[string]queryir.Field{})}

	tests := []struct {
		name   string
		fields map[string]queryir.Field
		row    ir.IRObject
	}{
		{"missing column", map[string]queryir.Field{"id": queryir.ColumnField{Column: "id"}}, ir.IRObject{}},
		{"malformed json", rel, ir.IRObject{"posts": ir.IRString(`{"rows":`)}},
		{"not an object", rel, ir.IRObject{"posts": ir.IRInt(3)}},
		{"rows missing", rel, ir.IRObject{"posts": ir.IRString(`{"items":[]}`)}},
		{"row not an object", rel, ir.IRObject{"posts": ir.IRString(`{"rows":[1]}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reassemble(tt.fields, []ir.IRObject{tt.row})
			require.Error(t, err)
			assert.True(t, queryir.IsInternal(err), "expected internal, got %v", err)
		})
	}
}
