package schema

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcsqlite/internal/ir"
)

const blogCUE = `
package test

table: users: {
	columns: ["id", "name", {name: "email", type: "TEXT"}]
	primary_key: ["id"]
}

table: posts: {
	columns: ["id", "user_id", "title"]
	primary_key: ["id"]
	foreign_keys: author: {
		target_table: "users"
		columns: {user_id: "id"}
	}
}
`

func writeCUE(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestLoadCUE(t *testing.T) {
	dir := writeCUE(t, map[string]string{"blog.cue": blogCUE})

	catalog, err := LoadCUE(dir)
	require.NoError(t, err)
	require.Len(t, catalog.Tables, 2)

	users, ok := catalog.Table("users")
	require.True(t, ok)
	assert.Equal(t, []ir.Column{{Name: "id"}, {Name: "name"}, {Name: "email", Type: "TEXT"}}, users.Columns)
	assert.Equal(t, []string{"id"}, users.PrimaryKey)
	assert.Empty(t, users.ForeignKeys)

	posts, ok := catalog.Table("posts")
	require.True(t, ok)
	assert.Equal(t, map[string]ir.ForeignKey{
		"author": {TargetTable: "users", Columns: map[string]string{"user_id": "id"}},
	}, posts.ForeignKeys)

	assert.Empty(t, Validate(catalog))
}

func TestLoadCUE_SplitAcrossFiles(t *testing.T) {
	dir := writeCUE(t, map[string]string{
		"users.cue": "package test\n\ntable: users: columns: [\"id\"]\n",
		"tags.cue":  "package test\n\ntable: tags: columns: [\"id\", \"label\"]\n",
	})

	catalog, err := LoadCUE(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users", "tags"}, catalog.TableNames())
}

func TestLoadCUE_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		code  string
	}{
		{
			name:  "no cue files",
			files: map[string]string{"readme.txt": "nothing here"},
			code:  ErrCodeNoFiles,
		},
		{
			name:  "syntax error",
			files: map[string]string{"bad.cue": "package test\n\ntable: users: {\n"},
			code:  ErrCodeLoadFailed,
		},
		{
			name:  "no table struct",
			files: map[string]string{"empty.cue": "package test\n\nname: \"blog\"\n"},
			code:  ErrCodeNoTables,
		},
		{
			name:  "missing columns",
			files: map[string]string{"t.cue": "package test\n\ntable: users: primary_key: [\"id\"]\n"},
			code:  ErrCodeBadTable,
		},
		{
			name:  "column without name",
			files: map[string]string{"t.cue": "package test\n\ntable: users: columns: [{type: \"TEXT\"}]\n"},
			code:  ErrCodeBadTable,
		},
		{
			name:  "foreign key without target",
			files: map[string]string{"t.cue": "package test\n\ntable: users: {\n\tcolumns: [\"id\"]\n\tforeign_keys: self: columns: {id: \"id\"}\n}\n"},
			code:  ErrCodeBadTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCUE(t, tt.files)
			_, err := LoadCUE(dir)
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestLoadCUE_NotFound(t *testing.T) {
	_, err := LoadCUE("/nonexistent/schema/dir")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestCompileTable_MissingColumns(t *testing.T) {
	v := cuecontext.New().CompileString(`users: {
	primary_key: ["id"]
}`, cue.Filename("inline.cue"))
	require.NoError(t, v.Err())

	_, err := CompileTable("users", v.LookupPath(cue.ParsePath("users")))
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeBadTable, loadErr.Code)
	assert.Equal(t, "table.users.columns", loadErr.Field)
	assert.Contains(t, err.Error(), "columns is required")
}

func TestFindCUEFiles(t *testing.T) {
	dir := writeCUE(t, map[string]string{"a.cue": "package test\n", "b.yaml": "tables: []\n"})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.cue"), []byte("package test\n"), 0644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.cue"), filepath.Join(dir, "nested", "c.cue")}, files)
}
