package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcsqlite/internal/ir"
	"github.com/roach88/ndcsqlite/internal/schema"
)

func TestSchemaCommand(t *testing.T) {
	f := newFixture(t)

	output, err := runCmd(t, f.options("text"), NewSchemaCommand, "")
	require.NoError(t, err, output)

	var resp schema.SchemaResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))

	var names []string
	for _, c := range resp.Collections {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"users", "posts", "comments"}, names)
	assert.Contains(t, resp.ObjectTypes, "users")
	assert.Contains(t, resp.ScalarTypes, schema.AnyScalar)
}

func TestSchemaCommand_InvalidCatalog(t *testing.T) {
	path := writeFile(t, "schema.yaml", invalidCatalogYAML)
	opts := &RootOptions{Format: "text", ConfigPath: emptyConfig(t), Schema: path}

	output, err := runCmd(t, opts, NewSchemaCommand, "")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "Error ["+schema.ErrPKColumnMissing+"]")
}

func TestCapabilitiesCommand(t *testing.T) {
	output, err := runCmd(t, &RootOptions{Format: "text"}, NewCapabilitiesCommand, "")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, ir.NDCVersion, resp["versions"])
	assert.Equal(t, map[string]any{
		"query":         map[string]any{},
		"explain":       map[string]any{},
		"relationships": map[string]any{},
	}, resp["capabilities"])
}

func TestIntrospectCommand_Stdout(t *testing.T) {
	f := newFixture(t)

	output, err := runCmd(t, f.options("text"), NewIntrospectCommand, "")
	require.NoError(t, err, output)

	catalog, err := schema.DecodeYAML(strings.NewReader(output))
	require.NoError(t, err)
	assert.Equal(t, []string{"comments", "posts", "users"}, catalog.TableNames())

	posts, ok := catalog.Table("posts")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, posts.PrimaryKey)
	require.Len(t, posts.ForeignKeys, 1)
}

func TestIntrospectCommand_OutputFile(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(t.TempDir(), "introspected.yaml")

	output, err := runCmd(t, f.options("text"), NewIntrospectCommand, "", "-o", out)
	require.NoError(t, err, output)
	assert.Contains(t, output, "Wrote 3 table(s)")

	catalog, err := schema.Load(out)
	require.NoError(t, err)
	assert.Len(t, catalog.Tables, 3)
}

func TestIntrospectCommand_NoDatabase(t *testing.T) {
	output, err := runCmd(t, &RootOptions{Format: "text", ConfigPath: emptyConfig(t)}, NewIntrospectCommand, "")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "Error ["+ErrCodeNoDatabase+"]")
}
