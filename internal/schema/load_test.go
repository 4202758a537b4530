package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_PicksFormat(t *testing.T) {
	cueDir := writeCUE(t, map[string]string{"blog.cue": blogCUE})
	fromCUE, err := Load(cueDir)
	require.NoError(t, err)

	yamlPath := filepath.Join(t.TempDir(), "blog.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(blogYAML), 0644))
	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)

	assert.ElementsMatch(t, fromCUE.TableNames(), fromYAML.TableNames())
}

func TestLoad_RunsValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := "tables:\n  - name: posts\n    columns: [id]\n    primary_key: [uid]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := Load(path)
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, ErrPKColumnMissing, errs[0].Code)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}
